package payment

import (
	"net/http"

	"nexicart_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

//
// 🪣 GET /api/payment/upi-qr/:id — QR d'intent UPI pour régler la commande
//
func GetUPIQR(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de commande invalide"})
		return
	}

	order, err := orderService.GetOrderForUser(c.Request.Context(), orderID, userID)
	if err != nil {
		respondPaymentError(c, err)
		return
	}

	if order.IsPaid {
		c.JSON(http.StatusConflict, gin.H{"error": "Commande déjà payée"})
		return
	}

	qr, err := utils.GenerateUPIQR(order.ID.String(), order.TotalPrice)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Paiement UPI indisponible"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"qr_code": qr,
		"amount":  order.TotalPrice,
	})
}
