package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentSignatureRoundTrip(t *testing.T) {
	sig := ComputePaymentSignature("order_123", "pay_456", "secret")

	assert.Len(t, sig, 64, "HMAC-SHA256 encodé en hexadécimal")
	assert.True(t, VerifyPaymentSignature("order_123", "pay_456", sig, "secret"))
}

func TestPaymentSignatureCoversBothIDs(t *testing.T) {
	sig := ComputePaymentSignature("order_123", "pay_456", "secret")

	assert.False(t, VerifyPaymentSignature("order_999", "pay_456", sig, "secret"))
	assert.False(t, VerifyPaymentSignature("order_123", "pay_999", sig, "secret"))
	assert.False(t, VerifyPaymentSignature("order_123", "pay_456", sig, "autre-secret"))
}

func TestPaymentSignatureSeparatorMatters(t *testing.T) {
	// Le message signé est "<order>|<payment>" : déplacer la frontière
	// entre les deux doit invalider la signature
	sig := ComputePaymentSignature("ab", "cd", "secret")
	assert.NotEqual(t, sig, ComputePaymentSignature("abc", "d", "secret"))
	assert.NotEqual(t, sig, ComputePaymentSignature("a", "bcd", "secret"))
}

func TestWebhookSignatureOverRawBody(t *testing.T) {
	body := []byte(`{"event":"payment.captured","payload":{}}`)
	sig := ComputeWebhookSignature(body, "webhook_secret")

	assert.True(t, VerifyWebhookSignature(body, sig, "webhook_secret"))

	// Le moindre octet modifié invalide la signature
	tampered := append([]byte{}, body...)
	tampered[0] = ' '
	assert.False(t, VerifyWebhookSignature(tampered, sig, "webhook_secret"))

	assert.False(t, VerifyWebhookSignature(body, sig, "autre-secret"))
	assert.False(t, VerifyWebhookSignature(body, "", "webhook_secret"))
}
