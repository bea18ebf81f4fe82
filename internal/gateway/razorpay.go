package gateway

import (
	"context"
	"fmt"
	"log"
	"os"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayClient : passerelle principale (UPI, wallets, netbanking, EMI)
type RazorpayClient struct {
	client *razorpay.Client
	keyID  string
}

// NewRazorpayFromEnv construit le client depuis RAZORPAY_KEY_ID /
// RAZORPAY_KEY_SECRET. Identifiants absents → variante Unconfigured.
func NewRazorpayFromEnv() Client {
	keyID := os.Getenv("RAZORPAY_KEY_ID")
	keySecret := os.Getenv("RAZORPAY_KEY_SECRET")

	if keyID == "" || keySecret == "" {
		log.Println("⚠️ Razorpay non configuré — les paiements en ligne renverront 503")
		return Unconfigured{Name: "razorpay"}
	}

	log.Println("✅ Razorpay initialisé")
	return &RazorpayClient{
		client: razorpay.NewClient(keyID, keySecret),
		keyID:  keyID,
	}
}

func (r *RazorpayClient) CreateSession(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (Session, error) {
	data := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		n := make(map[string]interface{}, len(notes))
		for k, v := range notes {
			n[k] = v
		}
		data["notes"] = n
	}

	body, err := r.client.Order.Create(data, nil)
	if err != nil {
		return Session{}, fmt.Errorf("création ordre Razorpay: %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return Session{}, fmt.Errorf("réponse Razorpay sans id: %v", body)
	}

	return Session{
		ID:       id,
		Amount:   amountMinor,
		Currency: currency,
		KeyID:    r.keyID,
	}, nil
}

func (r *RazorpayClient) FetchPayment(ctx context.Context, paymentID string) (PaymentDetails, error) {
	body, err := r.client.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return PaymentDetails{}, fmt.Errorf("lecture paiement Razorpay: %w", err)
	}

	details := PaymentDetails{ID: paymentID}
	if v, ok := body["order_id"].(string); ok {
		details.SessionID = v
	}
	if v, ok := body["status"].(string); ok {
		details.Status = v
	}
	if v, ok := body["method"].(string); ok {
		details.Method = v
	}
	if v, ok := body["amount"].(float64); ok {
		details.Amount = int64(v)
	}
	if v, ok := body["currency"].(string); ok {
		details.Currency = v
	}
	if v, ok := body["email"].(string); ok {
		details.Email = v
	}

	return details, nil
}
