package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Méthodes de paiement canoniques côté serveur
const (
	PaymentMethodStripe   = "stripe"   // processeur carte
	PaymentMethodRazorpay = "razorpay" // UPI, wallets, netbanking, EMI
	PaymentMethodCOD      = "cod"      // paiement à la livraison
)

// Alias côté client → valeur canonique. Toute la normalisation passe par
// cette table, jamais par des conditions éparpillées dans les handlers.
var paymentMethodAliases = map[string]string{
	"card":          PaymentMethodStripe,
	"credit-card":   PaymentMethodStripe,
	"debit-card":    PaymentMethodStripe,
	"stripe":        PaymentMethodStripe,
	"upi":           PaymentMethodRazorpay,
	"wallet":        PaymentMethodRazorpay,
	"netbanking":    PaymentMethodRazorpay,
	"emi":           PaymentMethodRazorpay,
	"bank-transfer": PaymentMethodRazorpay,
	"razorpay":      PaymentMethodRazorpay,
	"cod":           PaymentMethodCOD,
	"cash":          PaymentMethodCOD,
}

// NormalizePaymentMethod traduit un libellé client en méthode canonique.
// Retourne false si le libellé n'est pas reconnu.
func NormalizePaymentMethod(method string) (string, bool) {
	canonical, ok := paymentMethodAliases[method]
	return canonical, ok
}

// Statuts de commande
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// orderStatusFlow : transitions autorisées pending → processing → shipped → delivered,
// avec annulation possible tant que la commande n'est pas expédiée
var orderStatusFlow = map[string][]string{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// CanTransitionOrderStatus vérifie qu'un changement de statut suit le flux autorisé
func CanTransitionOrderStatus(from, to string) bool {
	for _, next := range orderStatusFlow[from] {
		if next == to {
			return true
		}
	}
	return false
}

type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"` // prix snapshoté à la création, jamais relié au produit
	ImageURL  string  `json:"image_url"`
}

type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// PaymentResult : reçu opaque renvoyé par la passerelle de paiement.
// Sur un échec, seuls ErrorCode/ErrorDescription sont renseignés.
type PaymentResult struct {
	PaymentID        string    `json:"payment_id"`
	GatewayOrderID   string    `json:"gateway_order_id"`
	Status           string    `json:"status"`
	Method           string    `json:"method"`
	Amount           int64     `json:"amount"` // en unités mineures (paise, centimes)
	Currency         string    `json:"currency"`
	ErrorCode        string    `json:"error_code,omitempty"`
	ErrorDescription string    `json:"error_description,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Order struct {
	ID              gocql.UUID      `json:"id" db:"order_id"`
	UserID          gocql.UUID      `json:"user_id" db:"user_id"`
	Items           []OrderItem     `json:"items" db:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address" db:"shipping_address"`
	PaymentMethod   string          `json:"payment_method" db:"payment_method"`
	ItemsPrice      float64         `json:"items_price" db:"items_price"`
	TaxPrice        float64         `json:"tax_price" db:"tax_price"`
	ShippingPrice   float64         `json:"shipping_price" db:"shipping_price"`
	TotalPrice      float64         `json:"total_price" db:"total_price"`
	IsPaid          bool            `json:"is_paid" db:"is_paid"`
	PaidAt          *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	PaymentResult   *PaymentResult  `json:"payment_result,omitempty" db:"payment_result"`
	OrderStatus     string          `json:"order_status" db:"order_status"`
	IsDelivered     bool            `json:"is_delivered" db:"is_delivered"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}
