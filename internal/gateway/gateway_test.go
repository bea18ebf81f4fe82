package gateway

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnconfiguredGatewayFailsCleanly(t *testing.T) {
	gw := Unconfigured{Name: "razorpay"}

	_, err := gw.CreateSession(context.Background(), 10000, "INR", "order_x", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = gw.FetchPayment(context.Background(), "pay_x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewRazorpayFromEnvWithoutCredentials(t *testing.T) {
	os.Unsetenv("RAZORPAY_KEY_ID")
	os.Unsetenv("RAZORPAY_KEY_SECRET")

	client := NewRazorpayFromEnv()

	// Sans identifiants le serveur démarre quand même, en mode dégradé
	_, err := client.CreateSession(context.Background(), 10000, "INR", "order_x", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewStripeFromEnvWithoutCredentials(t *testing.T) {
	os.Unsetenv("STRIPE_SECRET_KEY")

	client := NewStripeFromEnv()

	_, err := client.FetchPayment(context.Background(), "pi_x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
