package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Le stock n'est écrit que par des LWT (réservations checkout, restock
// conditionnel). Si cette colonne réapparaît dans la mise à jour simple des
// métadonnées, un décrément concurrent peut être écrasé silencieusement.
func TestProductMetadataUpdateNeverTouchesStock(t *testing.T) {
	assert.NotContains(t, productMetadataUpdateCQL, "stock")
	assert.Contains(t, productMetadataUpdateCQL, "updated_at")
}
