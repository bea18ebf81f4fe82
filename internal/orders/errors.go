package orders

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyOrder            = errors.New("commande vide")
	ErrInvalidQuantity       = errors.New("quantité invalide")
	ErrMissingShippingFields = errors.New("adresse de livraison incomplète : ville et état requis")
	ErrInvalidPaymentMethod  = errors.New("méthode de paiement inconnue")
	ErrOrderNotFound         = errors.New("commande introuvable")
	ErrNotAuthorized         = errors.New("commande non autorisée pour cet utilisateur")
	ErrInvalidSignature      = errors.New("signature de paiement invalide")
	ErrNoGatewayForMethod    = errors.New("aucune passerelle pour cette méthode de paiement")
	ErrCannotCancel          = errors.New("commande déjà payée ou déjà en préparation")
)

// ProductNotFoundError : un article référence un produit inexistant ou
// désactivé. La commande entière est rejetée, pas de substitution par nom.
type ProductNotFoundError struct {
	ProductID string
	Name      string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("produit introuvable: %s (%s)", e.ProductID, e.Name)
}

// InsufficientStockError : le stock courant ne couvre pas la quantité
// demandée. Porte le contexte disponible/demandé pour que le client ajuste.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuffisant pour %s: disponible %d, demandé %d",
		e.Name, e.Available, e.Requested)
}
