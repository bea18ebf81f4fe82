package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFrontendInvoiceBaseURL(t *testing.T) {
	// Sans URL configurée, le rendu PDF est désactivé : pas de fallback
	// localhost qui ferait tourner Chrome dans le vide en production
	t.Setenv("FRONTEND_INVOICE_URL", "")
	assert.Empty(t, GetFrontendInvoiceBaseURL())

	t.Setenv("FRONTEND_INVOICE_URL", "https://nexicart.in/invoice")
	assert.Equal(t, "https://nexicart.in/invoice", GetFrontendInvoiceBaseURL())
}
