package orders

import (
	"context"
	"time"

	"nexicart_back_end/internal/models"

	"github.com/gocql/gocql"
)

// Store : opérations de persistance dont dépendent les invariants du
// parcours commande/paiement. Les deux mutations contestées (stock,
// état de paiement) sont des opérations conditionnelles atomiques côté
// stockage, jamais des read-modify-write.
type Store interface {
	GetProduct(ctx context.Context, productID gocql.UUID) (models.Product, error)

	// DecrementStock retire qty du stock avec garde-fou plancher.
	// Retourne (false, stock courant, nil) si le stock ne couvre pas qty —
	// aucune mutation dans ce cas.
	DecrementStock(ctx context.Context, productID gocql.UUID, qty int) (bool, int, error)

	// IncrementStock restitue du stock (compensation d'une réservation)
	IncrementStock(ctx context.Context, productID gocql.UUID, qty int) error

	// SetStock fixe le stock à une valeur absolue (restock admin), par la
	// même écriture conditionnelle que les réservations. Cette colonne ne
	// supporte aucune écriture simple.
	SetStock(ctx context.Context, productID gocql.UUID, stock int) error

	InsertOrder(ctx context.Context, order models.Order) error
	GetOrder(ctx context.Context, orderID gocql.UUID) (models.Order, error)

	// MarkPaid applique la transition Unpaid→Paid en une seule écriture
	// conditionnelle. Retourne false (sans erreur) si la commande était
	// déjà payée : paid_at et payment_result ne sont alors pas réécrits.
	MarkPaid(ctx context.Context, orderID gocql.UUID, paidAt time.Time, result models.PaymentResult) (bool, error)

	// RecordPaymentFailure annote payment_result avec l'échec, sans jamais
	// toucher is_paid ni écraser le reçu d'un paiement déjà capturé
	RecordPaymentFailure(ctx context.Context, orderID gocql.UUID, result models.PaymentResult) error

	// CancelIfPending bascule la commande en "cancelled" seulement si elle
	// est encore pending et non payée (même écriture conditionnelle)
	CancelIfPending(ctx context.Context, orderID gocql.UUID) (bool, error)
}
