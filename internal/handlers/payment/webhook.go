package payment

import (
	"errors"
	"log"
	"net/http"

	"nexicart_back_end/internal/orders"

	"github.com/gin-gonic/gin"
)

//
// 📥 POST /api/payment/webhook — notifications asynchrones Razorpay
//
// Le corps brut est lu tel quel : la signature HMAC porte sur les octets
// exacts reçus, avant tout décodage JSON.
func RazorpayWebhook(c *gin.Context) {
	rawBody, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corps illisible"})
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")

	if err := orderService.HandleWebhook(c.Request.Context(), rawBody, signature); err != nil {
		if errors.Is(err, orders.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
			return
		}
		log.Printf("❌ Erreur webhook: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}

	// Acquittement systématique une fois la signature validée : le
	// prestataire re-livrerait sinon indéfiniment
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
