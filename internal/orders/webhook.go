package orders

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"nexicart_back_end/internal/models"
	"nexicart_back_end/internal/utils"

	"github.com/gocql/gocql"
)

// Événements Razorpay reconnus
const (
	webhookPaymentCaptured   = "payment.captured"
	webhookPaymentFailed     = "payment.failed"
	webhookPaymentAuthorized = "payment.authorized"
	webhookRefundCreated     = "refund.created"
)

type webhookPaymentEntity struct {
	ID               string          `json:"id"`
	OrderID          string          `json:"order_id"`
	Amount           int64           `json:"amount"`
	Currency         string          `json:"currency"`
	Status           string          `json:"status"`
	Method           string          `json:"method"`
	Email            string          `json:"email"`
	ErrorCode        string          `json:"error_code"`
	ErrorDescription string          `json:"error_description"`
	Notes            json.RawMessage `json:"notes"`
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity webhookPaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// notes est `{}` ou `[]` selon que Razorpay en a ou non — décodage tolérant
func (e webhookPaymentEntity) notesMap() map[string]string {
	notes := map[string]string{}
	if len(e.Notes) > 0 {
		_ = json.Unmarshal(e.Notes, &notes)
	}
	return notes
}

// HandleWebhook traite une notification asynchrone du prestataire.
//
// La signature HMAC sur le corps brut est vérifiée AVANT tout parsing : un
// payload non authentifié n'est jamais interprété et ne mute rien. Après
// authentification, les erreurs de traitement (commande inconnue, payload
// bancal) sont journalisées mais l'endpoint acquitte quand même — le
// prestataire livre au-moins-une-fois et re-tenterait sinon indéfiniment.
// Seul ErrInvalidSignature est remonté à l'appelant.
func (s *Service) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if !utils.VerifyWebhookSignature(rawBody, signature, s.webhookSecret) {
		log.Println("🚨 Webhook rejeté : signature invalide")
		return ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		log.Printf("⚠️ Webhook signé mais illisible: %v", err)
		return nil
	}

	log.Printf("📥 Événement webhook reçu : %s", event.Event)

	switch event.Event {
	case webhookPaymentCaptured:
		s.handleCaptured(ctx, event.Payload.Payment.Entity)
	case webhookPaymentFailed:
		s.handleFailed(ctx, event.Payload.Payment.Entity)
	case webhookPaymentAuthorized, webhookRefundCreated:
		// Observés sans mutation : l'autorisation sans capture et la
		// comptabilité des remboursements sont des points d'extension
		log.Printf("ℹ️ Événement %s observé (paiement %s)", event.Event, event.Payload.Payment.Entity.ID)
	default:
		// Le prestataire ajoute des types d'événements au fil du temps :
		// on acquitte sans erreur ce qu'on ne connaît pas
		log.Printf("ℹ️ Événement inconnu ignoré : %s", event.Event)
	}

	return nil
}

func (s *Service) handleCaptured(ctx context.Context, entity webhookPaymentEntity) {
	orderID, ok := s.localOrderID(entity)
	if !ok {
		return
	}

	// Détails re-dérivés du payload de l'événement, pas d'un état local
	result := models.PaymentResult{
		PaymentID:      entity.ID,
		GatewayOrderID: entity.OrderID,
		Status:         entity.Status,
		Method:         entity.Method,
		Amount:         entity.Amount,
		Currency:       entity.Currency,
		UpdatedAt:      time.Now(),
	}

	if err := s.ApplyCapture(ctx, orderID, result); err != nil {
		log.Printf("❌ Capture webhook non appliquée pour la commande %s: %v", orderID, err)
	}
}

func (s *Service) handleFailed(ctx context.Context, entity webhookPaymentEntity) {
	orderID, ok := s.localOrderID(entity)
	if !ok {
		return
	}

	result := models.PaymentResult{
		PaymentID:        entity.ID,
		GatewayOrderID:   entity.OrderID,
		Status:           entity.Status,
		Method:           entity.Method,
		Amount:           entity.Amount,
		Currency:         entity.Currency,
		ErrorCode:        entity.ErrorCode,
		ErrorDescription: entity.ErrorDescription,
		UpdatedAt:        time.Now(),
	}

	if err := s.ApplyFailure(ctx, orderID, result); err != nil {
		log.Printf("❌ Annotation d'échec non appliquée pour la commande %s: %v", orderID, err)
	}
}

// localOrderID retrouve l'ID de commande local porté par les notes de la session
func (s *Service) localOrderID(entity webhookPaymentEntity) (gocql.UUID, bool) {
	notes := entity.notesMap()
	raw := notes["order_id"]
	if raw == "" {
		log.Printf("⚠️ Webhook sans order_id dans les notes (paiement %s) — ignoré", entity.ID)
		return gocql.UUID{}, false
	}

	orderID, err := gocql.ParseUUID(raw)
	if err != nil {
		log.Printf("⚠️ order_id illisible dans les notes du paiement %s: %v", entity.ID, err)
		return gocql.UUID{}, false
	}

	return orderID, true
}
