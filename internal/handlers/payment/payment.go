package payment

import (
	"errors"
	"net/http"
	"os"

	"nexicart_back_end/internal/gateway"
	"nexicart_back_end/internal/orders"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

var orderService *orders.Service

// Init injecte le service de commandes construit dans main
func Init(svc *orders.Service) {
	orderService = svc
}

func currentUserID(c *gin.Context) (gocql.UUID, bool) {
	userID, err := gocql.ParseUUID(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return gocql.UUID{}, false
	}
	return userID, true
}

//
// 💳 POST /api/payment/order/:id — crée la session de paiement chez le prestataire
//
func CreateGatewayOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de commande invalide"})
		return
	}

	session, err := orderService.CreateGatewayOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

//
// ✅ POST /api/payment/verify — confirmation synchrone après paiement côté client
//
func VerifyPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		OrderID          string `json:"order_id"`
		GatewayOrderID   string `json:"razorpay_order_id"`
		GatewayPaymentID string `json:"razorpay_payment_id"`
		Signature        string `json:"razorpay_signature"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	orderID, err := gocql.ParseUUID(input.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de commande invalide"})
		return
	}

	order, err := orderService.VerifyPayment(c.Request.Context(), orderID, userID,
		input.GatewayOrderID, input.GatewayPaymentID, input.Signature)
	if err != nil {
		respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Paiement confirmé",
		"order":   order,
	})
}

//
// 🔑 GET /api/payment/config — clés publiables pour initialiser le checkout
//
func GetGatewayConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"razorpay_key_id":        os.Getenv("RAZORPAY_KEY_ID"),
		"stripe_publishable_key": os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		"currency":               "INR",
	})
}

func respondPaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gateway.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Passerelle de paiement indisponible"})
	case errors.Is(err, orders.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature de paiement invalide"})
	case errors.Is(err, orders.ErrNoGatewayForMethod):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cette commande se règle à la livraison"})
	case errors.Is(err, orders.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
	case errors.Is(err, orders.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Commande non autorisée"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur de paiement"})
	}
}
