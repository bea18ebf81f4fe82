package orders

import (
	"context"
	"log"
	"math"
	"time"

	"nexicart_back_end/internal/gateway"
	"nexicart_back_end/internal/models"
	"nexicart_back_end/internal/utils"

	"github.com/gocql/gocql"
)

// gatewayFor retourne le client de passerelle correspondant à la méthode
// canonique de la commande
func (s *Service) gatewayFor(method string) (gateway.Client, error) {
	switch method {
	case models.PaymentMethodRazorpay:
		return s.razorpay, nil
	case models.PaymentMethodStripe:
		return s.stripe, nil
	default:
		// COD : pas de passerelle, encaissement à la livraison
		return nil, ErrNoGatewayForMethod
	}
}

// CreateGatewayOrder crée l'intention de paiement chez le prestataire pour
// une commande existante. Le montant est converti en unités mineures
// (paise) arrondies, et la session est étiquetée avec les IDs locaux pour
// que le webhook puisse retrouver la commande.
func (s *Service) CreateGatewayOrder(ctx context.Context, orderID, userID gocql.UUID) (gateway.Session, error) {
	order, err := s.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		return gateway.Session{}, err
	}

	client, err := s.gatewayFor(order.PaymentMethod)
	if err != nil {
		return gateway.Session{}, err
	}

	amountMinor := int64(math.Round(order.TotalPrice * 100))
	notes := map[string]string{
		"order_id": order.ID.String(),
		"user_id":  order.UserID.String(),
	}

	session, err := client.CreateSession(ctx, amountMinor, "INR", order.ID.String(), notes)
	if err != nil {
		return gateway.Session{}, err
	}

	log.Printf("💳 Session de paiement %s créée pour la commande %s (%d paise)",
		session.ID, order.ID, amountMinor)

	return session, nil
}

// VerifyPayment traite la confirmation synchrone du client : vérification
// de la signature HMAC, relecture des détails autoritaires chez le
// prestataire, puis transition idempotente Unpaid→Paid. Une signature
// invalide ne mute jamais la commande.
func (s *Service) VerifyPayment(ctx context.Context, orderID, userID gocql.UUID, gatewayOrderID, paymentID, signature string) (models.Order, error) {
	order, err := s.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		return models.Order{}, err
	}

	if !utils.VerifyPaymentSignature(gatewayOrderID, paymentID, signature, s.keySecret) {
		log.Printf("🚨 Signature invalide pour la commande %s (paiement %s)", orderID, paymentID)
		return models.Order{}, ErrInvalidSignature
	}

	client, err := s.gatewayFor(order.PaymentMethod)
	if err != nil {
		return models.Order{}, err
	}

	// Montant et méthode relus chez le prestataire, jamais pris du client
	details, err := client.FetchPayment(ctx, paymentID)
	if err != nil {
		return models.Order{}, err
	}

	result := models.PaymentResult{
		PaymentID:      details.ID,
		GatewayOrderID: gatewayOrderID,
		Status:         details.Status,
		Method:         details.Method,
		Amount:         details.Amount,
		Currency:       details.Currency,
		UpdatedAt:      time.Now(),
	}

	if err := s.ApplyCapture(ctx, orderID, result); err != nil {
		return models.Order{}, err
	}

	return s.store.GetOrder(ctx, orderID)
}

// ApplyCapture applique la transition Unpaid→Paid. Partagée par la voie
// synchrone et les deux webhooks ; un doublon est un succès silencieux qui
// ne réécrit ni paid_at ni payment_result.
func (s *Service) ApplyCapture(ctx context.Context, orderID gocql.UUID, result models.PaymentResult) error {
	applied, err := s.store.MarkPaid(ctx, orderID, time.Now(), result)
	if err != nil {
		return err
	}

	if !applied {
		log.Printf("🔁 Commande %s déjà payée — confirmation ignorée (paiement %s)", orderID, result.PaymentID)
		return nil
	}

	log.Printf("✅ Commande %s payée (paiement %s, %d %s)",
		orderID, result.PaymentID, result.Amount, result.Currency)

	if s.paidHook != nil {
		order, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			log.Printf("⚠️ Relecture commande %s pour les effets post-paiement: %v", orderID, err)
			return nil
		}
		go s.paidHook(order)
	}

	return nil
}

// ApplyFailure annote la commande avec l'échec de paiement, sans toucher
// is_paid. Idempotent : les échecs répétés s'écrasent entre eux.
func (s *Service) ApplyFailure(ctx context.Context, orderID gocql.UUID, result models.PaymentResult) error {
	return s.store.RecordPaymentFailure(ctx, orderID, result)
}
