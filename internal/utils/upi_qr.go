package utils

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"

	"github.com/skip2/go-qrcode"
)

// BuildUPIIntent construit l'URI d'intent UPI (upi://pay?...) pour un
// paiement vers le VPA marchand
func BuildUPIIntent(vpa, merchantName, reference string, amount float64) string {
	q := url.Values{}
	q.Set("pa", vpa)
	q.Set("pn", merchantName)
	q.Set("am", fmt.Sprintf("%.2f", amount))
	q.Set("cu", "INR")
	q.Set("tr", reference)
	q.Set("tn", "Commande NexiCart "+reference)

	return "upi://pay?" + q.Encode()
}

// GenerateUPIQR génère un QR d'intent UPI en base64 prêt à mettre dans <img src="...">
func GenerateUPIQR(reference string, amount float64) (string, error) {
	vpa := os.Getenv("UPI_MERCHANT_VPA")
	if vpa == "" {
		return "", fmt.Errorf("UPI_MERCHANT_VPA non configuré")
	}

	name := os.Getenv("UPI_MERCHANT_NAME")
	if name == "" {
		name = "NexiCart"
	}

	intent := BuildUPIIntent(vpa, name, reference, amount)

	png, err := qrcode.Encode(intent, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
