package gateway

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/client"
)

// StripeClient : passerelle carte bancaire
type StripeClient struct {
	api            *client.API
	publishableKey string
}

// NewStripeFromEnv construit le client depuis STRIPE_SECRET_KEY /
// STRIPE_PUBLISHABLE_KEY. Identifiants absents → variante Unconfigured.
func NewStripeFromEnv() Client {
	secret := os.Getenv("STRIPE_SECRET_KEY")
	if secret == "" {
		log.Println("⚠️ Stripe non configuré — les paiements carte renverront 503")
		return Unconfigured{Name: "stripe"}
	}

	api := &client.API{}
	api.Init(secret, nil)

	log.Println("✅ Stripe initialisé")
	return &StripeClient{
		api:            api,
		publishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
	}
}

func (s *StripeClient) CreateSession(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (Session, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: notes,
	}
	params.Context = ctx

	intent, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("création PaymentIntent Stripe: %w", err)
	}

	return Session{
		ID:       intent.ID,
		Amount:   amountMinor,
		Currency: currency,
		// Pour Stripe le client a besoin du client_secret, transmis via KeyID
		KeyID: intent.ClientSecret,
	}, nil
}

func (s *StripeClient) FetchPayment(ctx context.Context, paymentID string) (PaymentDetails, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := s.api.PaymentIntents.Get(paymentID, params)
	if err != nil {
		return PaymentDetails{}, fmt.Errorf("lecture PaymentIntent Stripe: %w", err)
	}

	return PaymentDetails{
		ID:        intent.ID,
		SessionID: intent.ID,
		Status:    string(intent.Status),
		Method:    "card",
		Amount:    intent.Amount,
		Currency:  string(intent.Currency),
	}, nil
}
