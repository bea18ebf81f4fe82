package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// ComputePaymentSignature calcule la signature HMAC-SHA256 attendue pour une
// confirmation de paiement : hex(HMAC(secret, "<gateway_order_id>|<payment_id>"))
func ComputePaymentSignature(gatewayOrderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature compare la signature fournie par le client à la
// signature recalculée. Comparaison en temps constant.
func VerifyPaymentSignature(gatewayOrderID, paymentID, signature, secret string) bool {
	expected := ComputePaymentSignature(gatewayOrderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ComputeWebhookSignature calcule la signature HMAC-SHA256 d'un corps de
// requête webhook
func ComputeWebhookSignature(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature vérifie la signature HMAC-SHA256 calculée sur le
// corps brut de la requête webhook. Doit être appelée AVANT tout parsing
// du payload : un payload non signé n'est jamais interprété.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	expected := ComputeWebhookSignature(body, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
