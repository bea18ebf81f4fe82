package orders

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"nexicart_back_end/internal/gateway"
	"nexicart_back_end/internal/models"

	"github.com/gocql/gocql"
)

// Config : secrets de vérification des signatures Razorpay
type Config struct {
	KeySecret     string
	WebhookSecret string // retombe sur KeySecret si vide
}

// Service orchestre le parcours commande → paiement. Toutes les mutations
// contestées passent par les opérations conditionnelles du Store.
type Service struct {
	store         Store
	razorpay      gateway.Client
	stripe        gateway.Client
	keySecret     string
	webhookSecret string

	// paidHook est déclenché exactement une fois par commande, par la voie
	// de confirmation qui gagne la transition Unpaid→Paid
	paidHook func(models.Order)
}

func NewService(store Store, razorpay, stripe gateway.Client, cfg Config) *Service {
	webhookSecret := cfg.WebhookSecret
	if webhookSecret == "" {
		webhookSecret = cfg.KeySecret
	}

	return &Service{
		store:         store,
		razorpay:      razorpay,
		stripe:        stripe,
		keySecret:     cfg.KeySecret,
		webhookSecret: webhookSecret,
	}
}

// SetPaidHook branche les effets de bord post-paiement (e-mail, vidage du
// panier). Le hook est appelé dans une goroutine, jamais sur un doublon.
func (s *Service) SetPaidHook(hook func(models.Order)) {
	s.paidHook = hook
}

type OrderItemInput struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url"`
}

type PlaceOrderInput struct {
	Items           []OrderItemInput       `json:"items"`
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
	TaxPrice        float64                `json:"tax_price"`
	ShippingPrice   float64                `json:"shipping_price"`
}

// PlaceOrder convertit un panier soumis par le client en commande persistée.
// Les prix et images sont resnapshotés depuis le catalogue courant, jamais
// repris du payload client (sauf l'image, en secours si le produit n'en a pas).
//
// Déroulé : validations pures → relecture produits → réservation du stock
// (décréments conditionnels en ordre fixe) → insertion de la commande.
// Tout échec après réservation est compensé par des incréments : il n'existe
// jamais de commande partielle ni de stock perdu.
func (s *Service) PlaceOrder(ctx context.Context, userID gocql.UUID, input PlaceOrderInput) (models.Order, error) {
	// Validations sans accès au stockage, dans l'ordre du contrat client
	if len(input.Items) == 0 {
		return models.Order{}, ErrEmptyOrder
	}
	if input.ShippingAddress.City == "" || input.ShippingAddress.State == "" {
		return models.Order{}, ErrMissingShippingFields
	}
	method, ok := models.NormalizePaymentMethod(input.PaymentMethod)
	if !ok {
		return models.Order{}, ErrInvalidPaymentMethod
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return models.Order{}, ErrInvalidQuantity
		}
	}

	address := input.ShippingAddress
	if address.Country == "" {
		address.Country = "India"
	}

	// Relecture des produits : prix/nom/image autoritaires, pas de
	// substitution par nom pour les références inconnues
	resolved := make([]resolvedItem, 0, len(input.Items))
	for _, item := range input.Items {
		productID, err := gocql.ParseUUID(item.ProductID)
		if err != nil {
			return models.Order{}, &ProductNotFoundError{ProductID: item.ProductID, Name: item.Name}
		}

		product, err := s.store.GetProduct(ctx, productID)
		if err != nil {
			if err == gocql.ErrNotFound {
				return models.Order{}, &ProductNotFoundError{ProductID: item.ProductID, Name: item.Name}
			}
			return models.Order{}, err
		}
		if !product.IsActive {
			return models.Order{}, &ProductNotFoundError{ProductID: item.ProductID, Name: product.Name}
		}

		image := product.MainImage()
		if image == "" {
			image = item.ImageURL
		}

		resolved = append(resolved, resolvedItem{
			productID: productID,
			snapshot: models.OrderItem{
				ProductID: item.ProductID,
				Name:      product.Name,
				Quantity:  item.Quantity,
				Price:     product.EffectivePrice(),
				ImageURL:  image,
			},
		})
	}

	// Réservation du stock en ordre fixe (IDs croissants) pour éviter les
	// interblocages logiques entre checkouts concurrents
	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].productID.String() < resolved[j].productID.String()
	})

	reserved := make([]resolvedItem, 0, len(resolved))
	for _, item := range resolved {
		applied, available, err := s.store.DecrementStock(ctx, item.productID, item.snapshot.Quantity)
		if err != nil {
			s.releaseStock(ctx, reserved)
			return models.Order{}, err
		}
		if !applied {
			s.releaseStock(ctx, reserved)
			return models.Order{}, &InsufficientStockError{
				ProductID: item.snapshot.ProductID,
				Name:      item.snapshot.Name,
				Available: available,
				Requested: item.snapshot.Quantity,
			}
		}
		reserved = append(reserved, item)
	}

	var itemsPrice float64
	items := make([]models.OrderItem, 0, len(resolved))
	for _, item := range resolved {
		itemsPrice += item.snapshot.Price * float64(item.snapshot.Quantity)
		items = append(items, item.snapshot)
	}
	itemsPrice = round2(itemsPrice)

	order := models.Order{
		ID:              gocql.TimeUUID(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: address,
		PaymentMethod:   method,
		ItemsPrice:      itemsPrice,
		TaxPrice:        round2(input.TaxPrice),
		ShippingPrice:   round2(input.ShippingPrice),
		TotalPrice:      round2(itemsPrice + input.TaxPrice + input.ShippingPrice),
		OrderStatus:     models.OrderStatusPending,
		CreatedAt:       time.Now(),
	}

	if err := s.store.InsertOrder(ctx, order); err != nil {
		s.releaseStock(ctx, reserved)
		return models.Order{}, err
	}

	log.Printf("🧾 Commande %s créée pour %s (%.2f, %d articles, %s)",
		order.ID, userID, order.TotalPrice, len(items), method)

	return order, nil
}

// GetOrderForUser charge une commande et vérifie qu'elle appartient bien au
// demandeur. Le refus ne révèle rien de plus que "non autorisée".
func (s *Service) GetOrderForUser(ctx context.Context, orderID, userID gocql.UUID) (models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if order.UserID != userID {
		return models.Order{}, ErrNotAuthorized
	}
	return order, nil
}

// CancelOrder annule une commande encore pending et non payée, puis
// restitue le stock réservé
func (s *Service) CancelOrder(ctx context.Context, orderID, userID gocql.UUID) error {
	order, err := s.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		return err
	}

	applied, err := s.store.CancelIfPending(ctx, orderID)
	if err != nil {
		return err
	}
	if !applied {
		return ErrCannotCancel
	}

	for _, item := range order.Items {
		productID, err := gocql.ParseUUID(item.ProductID)
		if err != nil {
			continue
		}
		if err := s.store.IncrementStock(ctx, productID, item.Quantity); err != nil {
			// La commande est annulée, le stock sera réconcilié manuellement
			log.Printf("❌ Restitution stock échouée pour %s (commande %s): %v",
				item.ProductID, orderID, err)
		}
	}

	log.Printf("🚫 Commande %s annulée par %s", orderID, userID)
	return nil
}

type resolvedItem struct {
	productID gocql.UUID
	snapshot  models.OrderItem
}

func (s *Service) releaseStock(ctx context.Context, reserved []resolvedItem) {
	for _, item := range reserved {
		if err := s.store.IncrementStock(ctx, item.productID, item.snapshot.Quantity); err != nil {
			log.Printf("❌ Compensation stock échouée pour %s: %v", item.productID, err)
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
