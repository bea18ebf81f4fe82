// Package gateway isole les passerelles de paiement derrière une capacité
// injectée : les handlers ne touchent jamais un SDK directement, ce qui
// permet de les tester contre un faux client et de démarrer le serveur
// sans identifiants (mode dégradé, jamais un crash).
package gateway

import (
	"context"
	"errors"
)

// ErrNotConfigured : la passerelle n'a pas reçu d'identifiants au démarrage.
// Les handlers doivent le traduire en 503, pas en panique.
var ErrNotConfigured = errors.New("passerelle de paiement non configurée")

// Session : intention de paiement créée chez le prestataire
type Session struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // unités mineures
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"` // clé publiable à transmettre au client
}

// PaymentDetails : détails autoritatifs d'un paiement, relus chez le
// prestataire (jamais les montants fournis par le client)
type PaymentDetails struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Method    string `json:"method"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Email     string `json:"email,omitempty"`
}

type Client interface {
	// CreateSession crée une intention de paiement pour un montant en
	// unités mineures, étiquetée avec les notes métier (order_id, user_id)
	CreateSession(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (Session, error)

	// FetchPayment relit les détails autoritatifs d'un paiement
	FetchPayment(ctx context.Context, paymentID string) (PaymentDetails, error)
}

// Unconfigured : variante explicite "pas de passerelle". Chaque appel
// échoue proprement avec ErrNotConfigured.
type Unconfigured struct {
	Name string
}

func (u Unconfigured) CreateSession(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (Session, error) {
	return Session{}, ErrNotConfigured
}

func (u Unconfigured) FetchPayment(ctx context.Context, paymentID string) (PaymentDetails, error) {
	return PaymentDetails{}, ErrNotConfigured
}
