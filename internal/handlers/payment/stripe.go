package payment

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"nexicart_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
)

//
// 📥 POST /api/payment/webhook/stripe — notifications asynchrones Stripe
//
// Même discipline que le webhook Razorpay : signature vérifiée sur le corps
// brut avant tout décodage, acquittement systématique après authentification.
func StripeWebhook(c *gin.Context) {
	rawBody, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corps illisible"})
		return
	}

	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	event, err := webhook.ConstructEvent(rawBody, c.GetHeader("Stripe-Signature"), secret)
	if err != nil {
		log.Printf("🚨 Webhook Stripe rejeté : %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
		return
	}

	log.Printf("📥 Événement Stripe reçu : %s", event.Type)

	switch event.Type {
	case "payment_intent.succeeded":
		handleStripeIntent(c, event, true)
	case "payment_intent.payment_failed":
		handleStripeIntent(c, event, false)
	default:
		log.Printf("ℹ️ Événement Stripe ignoré : %s", event.Type)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleStripeIntent(c *gin.Context, event stripe.Event, captured bool) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		log.Printf("⚠️ PaymentIntent illisible dans l'événement %s: %v", event.ID, err)
		return
	}

	orderID, err := gocql.ParseUUID(intent.Metadata["order_id"])
	if err != nil {
		log.Printf("⚠️ order_id absent des metadata du PaymentIntent %s — ignoré", intent.ID)
		return
	}

	result := models.PaymentResult{
		PaymentID:      intent.ID,
		GatewayOrderID: intent.ID,
		Status:         string(intent.Status),
		Method:         "card",
		Amount:         intent.Amount,
		Currency:       string(intent.Currency),
		UpdatedAt:      time.Now(),
	}

	if captured {
		if err := orderService.ApplyCapture(c.Request.Context(), orderID, result); err != nil {
			log.Printf("❌ Capture Stripe non appliquée pour la commande %s: %v", orderID, err)
		}
		return
	}

	if intent.LastPaymentError != nil {
		result.ErrorCode = string(intent.LastPaymentError.Code)
		result.ErrorDescription = intent.LastPaymentError.Msg
	}
	if err := orderService.ApplyFailure(c.Request.Context(), orderID, result); err != nil {
		log.Printf("❌ Échec Stripe non annoté pour la commande %s: %v", orderID, err)
	}
}
