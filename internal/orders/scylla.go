package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"nexicart_back_end/internal/database"
	"nexicart_back_end/internal/models"

	"github.com/gocql/gocql"
)

// Nombre de tentatives CAS avant d'abandonner sous contention
const casMaxRetries = 8

const orderColumns = `order_id, user_id, items, shipping_address, payment_method,
	items_price, tax_price, shipping_price, total_price,
	is_paid, paid_at, payment_result, order_status, is_delivered, delivered_at, created_at`

// ScyllaStore implémente Store sur les keyspaces products/orders.
// Les invariants stock/paiement reposent sur des LWT (UPDATE ... IF ...) :
// la base arbitre les écritures concurrentes, pas le code applicatif.
type ScyllaStore struct{}

func NewScyllaStore() *ScyllaStore {
	return &ScyllaStore{}
}

// =============================================
// PRODUITS / STOCK
// =============================================

func (s *ScyllaStore) GetProduct(ctx context.Context, productID gocql.UUID) (models.Product, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return models.Product{}, err
	}

	var p models.Product
	var createdAt, updatedAt time.Time

	err = session.Query(`SELECT product_id, name, description, price, discount_price, category, stock,
			image_urls, rating, num_reviews, is_featured, is_active, created_at, updated_at
		FROM products WHERE product_id = ?`, productID).WithContext(ctx).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.DiscountPrice, &p.Category, &p.Stock,
		&p.ImageURLs, &p.Rating, &p.NumReviews, &p.IsFeatured, &p.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return models.Product{}, err
	}

	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	return p, nil
}

func (s *ScyllaStore) DecrementStock(ctx context.Context, productID gocql.UUID, qty int) (bool, int, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return false, 0, err
	}

	var current int
	if err := session.Query("SELECT stock FROM products WHERE product_id = ?", productID).
		WithContext(ctx).Scan(&current); err != nil {
		return false, 0, err
	}

	for attempt := 0; attempt < casMaxRetries; attempt++ {
		if current < qty {
			return false, current, nil
		}

		// Décrément avec garde-fou plancher : l'écriture n'est appliquée
		// que si le stock n'a pas bougé depuis la lecture
		prev := make(map[string]interface{})
		applied, err := session.Query(
			"UPDATE products SET stock = ? WHERE product_id = ? IF stock = ?",
			current-qty, productID, current).WithContext(ctx).MapScanCAS(prev)
		if err != nil {
			return false, 0, err
		}
		if applied {
			return true, current - qty, nil
		}

		// Un autre checkout est passé entre-temps : on repart de la valeur renvoyée
		if v, ok := prev["stock"].(int); ok {
			current = v
		} else if err := session.Query("SELECT stock FROM products WHERE product_id = ?", productID).
			WithContext(ctx).Scan(&current); err != nil {
			return false, 0, err
		}
	}

	return false, 0, fmt.Errorf("trop de contention sur le stock du produit %s", productID)
}

func (s *ScyllaStore) IncrementStock(ctx context.Context, productID gocql.UUID, qty int) error {
	session, err := database.GetProductsSession()
	if err != nil {
		return err
	}

	var current int
	if err := session.Query("SELECT stock FROM products WHERE product_id = ?", productID).
		WithContext(ctx).Scan(&current); err != nil {
		return err
	}

	for attempt := 0; attempt < casMaxRetries; attempt++ {
		prev := make(map[string]interface{})
		applied, err := session.Query(
			"UPDATE products SET stock = ? WHERE product_id = ? IF stock = ?",
			current+qty, productID, current).WithContext(ctx).MapScanCAS(prev)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}

		if v, ok := prev["stock"].(int); ok {
			current = v
		} else if err := session.Query("SELECT stock FROM products WHERE product_id = ?", productID).
			WithContext(ctx).Scan(&current); err != nil {
			return err
		}
	}

	return fmt.Errorf("trop de contention sur le stock du produit %s", productID)
}

// SetStock écrase le stock avec la valeur absolue demandée par l'admin.
// Lecture toujours fraîche (jamais le cache Redis) et écriture en LWT :
// une écriture simple ici casserait la linéarisabilité des décréments
// concurrents des checkouts.
func (s *ScyllaStore) SetStock(ctx context.Context, productID gocql.UUID, stock int) error {
	session, err := database.GetProductsSession()
	if err != nil {
		return err
	}

	var current int
	if err := session.Query("SELECT stock FROM products WHERE product_id = ?", productID).
		WithContext(ctx).Scan(&current); err != nil {
		return err
	}

	for attempt := 0; attempt < casMaxRetries; attempt++ {
		if current == stock {
			return nil
		}

		prev := make(map[string]interface{})
		applied, err := session.Query(
			"UPDATE products SET stock = ? WHERE product_id = ? IF stock = ?",
			stock, productID, current).WithContext(ctx).MapScanCAS(prev)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}

		// Un checkout est passé entre la lecture et l'écriture : on rejoue
		// avec la valeur courante, l'intention de restock reste absolue
		if v, ok := prev["stock"].(int); ok {
			current = v
		} else if err := session.Query("SELECT stock FROM products WHERE product_id = ?", productID).
			WithContext(ctx).Scan(&current); err != nil {
			return err
		}
	}

	return fmt.Errorf("trop de contention sur le stock du produit %s", productID)
}

// =============================================
// COMMANDES
// =============================================

func (s *ScyllaStore) InsertOrder(ctx context.Context, order models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}

	// Insertion atomique commande + index par utilisateur
	batch := session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`INSERT INTO orders (order_id, user_id, items, shipping_address, payment_method,
			items_price, tax_price, shipping_price, total_price,
			is_paid, order_status, is_delivered, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, false, ?, false, ?)`,
		order.ID, order.UserID, string(itemsJSON), string(addressJSON), order.PaymentMethod,
		order.ItemsPrice, order.TaxPrice, order.ShippingPrice, order.TotalPrice,
		order.OrderStatus, order.CreatedAt)
	batch.Query(`INSERT INTO orders_by_user (user_id, created_at, order_id) VALUES (?, ?, ?)`,
		order.UserID, order.CreatedAt, order.ID)

	return session.ExecuteBatch(batch)
}

func (s *ScyllaStore) GetOrder(ctx context.Context, orderID gocql.UUID) (models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return models.Order{}, err
	}

	row := make(map[string]interface{})
	if err := session.Query("SELECT "+orderColumns+" FROM orders WHERE order_id = ?", orderID).
		WithContext(ctx).MapScan(row); err != nil {
		if err == gocql.ErrNotFound {
			return models.Order{}, ErrOrderNotFound
		}
		return models.Order{}, err
	}

	return orderFromRow(row)
}

// ListOrdersByUser retourne les commandes d'un utilisateur, plus récentes en premier
func (s *ScyllaStore) ListOrdersByUser(ctx context.Context, userID gocql.UUID) ([]models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query("SELECT order_id FROM orders_by_user WHERE user_id = ?", userID).
		WithContext(ctx).Iter()

	orders := []models.Order{}
	var orderID gocql.UUID
	for iter.Scan(&orderID) {
		order, err := s.GetOrder(ctx, orderID)
		if err != nil {
			log.Printf("⚠️ Commande %s référencée mais introuvable: %v", orderID, err)
			continue
		}
		orders = append(orders, order)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	return orders, nil
}

// ListAllOrders : parcours complet pour l'admin (volumétrie boutique, pas de pagination serveur)
func (s *ScyllaStore) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query("SELECT " + orderColumns + " FROM orders").WithContext(ctx).Iter()

	orders := []models.Order{}
	for {
		row := make(map[string]interface{})
		if !iter.MapScan(row) {
			break
		}
		order, err := orderFromRow(row)
		if err != nil {
			log.Printf("⚠️ Ligne commande illisible: %v", err)
			continue
		}
		orders = append(orders, order)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	return orders, nil
}

func (s *ScyllaStore) MarkPaid(ctx context.Context, orderID gocql.UUID, paidAt time.Time, result models.PaymentResult) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, err
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return false, err
	}

	// Compare-and-set : une seule des deux voies de confirmation
	// (synchrone ou webhook) gagne, l'autre est un no-op
	prev := make(map[string]interface{})
	applied, err := session.Query(
		`UPDATE orders SET is_paid = true, paid_at = ?, payment_result = ?, order_status = ?
		 WHERE order_id = ? IF is_paid = false`,
		paidAt, string(resultJSON), models.OrderStatusProcessing, orderID).
		WithContext(ctx).MapScanCAS(prev)
	if err != nil {
		return false, err
	}

	return applied, nil
}

func (s *ScyllaStore) RecordPaymentFailure(ctx context.Context, orderID gocql.UUID, result models.PaymentResult) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return err
	}

	// L'annotation d'échec ne doit jamais écraser le reçu d'un paiement
	// déjà capturé. Les échecs répétés s'écrasent entre eux (last-write-wins).
	prev := make(map[string]interface{})
	applied, err := session.Query(
		"UPDATE orders SET payment_result = ? WHERE order_id = ? IF is_paid = false",
		string(resultJSON), orderID).WithContext(ctx).MapScanCAS(prev)
	if err != nil {
		return err
	}
	if !applied {
		log.Printf("🔁 Échec de paiement reçu pour la commande %s déjà payée — ignoré", orderID)
	}

	return nil
}

func (s *ScyllaStore) CancelIfPending(ctx context.Context, orderID gocql.UUID) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, err
	}

	prev := make(map[string]interface{})
	applied, err := session.Query(
		"UPDATE orders SET order_status = ? WHERE order_id = ? IF is_paid = false AND order_status = ?",
		models.OrderStatusCancelled, orderID, models.OrderStatusPending).
		WithContext(ctx).MapScanCAS(prev)
	if err != nil {
		return false, err
	}

	return applied, nil
}

// UpdateStatus fait progresser le statut de préparation/livraison (admin).
// La validation du flux de statuts est faite par l'appelant.
func (s *ScyllaStore) UpdateStatus(ctx context.Context, orderID gocql.UUID, status string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	if status == models.OrderStatusDelivered {
		return session.Query(
			"UPDATE orders SET order_status = ?, is_delivered = true, delivered_at = ? WHERE order_id = ?",
			status, time.Now(), orderID).WithContext(ctx).Exec()
	}

	return session.Query("UPDATE orders SET order_status = ? WHERE order_id = ?",
		status, orderID).WithContext(ctx).Exec()
}

// orderFromRow reconstruit une commande depuis une ligne Scylla
func orderFromRow(row map[string]interface{}) (models.Order, error) {
	var o models.Order

	id, ok := row["order_id"].(gocql.UUID)
	if !ok {
		return o, fmt.Errorf("order_id manquant")
	}
	o.ID = id

	if v, ok := row["user_id"].(gocql.UUID); ok {
		o.UserID = v
	}
	if v, ok := row["items"].(string); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &o.Items); err != nil {
			return o, fmt.Errorf("items illisibles pour %s: %v", o.ID, err)
		}
	}
	if v, ok := row["shipping_address"].(string); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &o.ShippingAddress); err != nil {
			return o, fmt.Errorf("adresse illisible pour %s: %v", o.ID, err)
		}
	}
	if v, ok := row["payment_method"].(string); ok {
		o.PaymentMethod = v
	}
	if v, ok := row["items_price"].(float64); ok {
		o.ItemsPrice = v
	}
	if v, ok := row["tax_price"].(float64); ok {
		o.TaxPrice = v
	}
	if v, ok := row["shipping_price"].(float64); ok {
		o.ShippingPrice = v
	}
	if v, ok := row["total_price"].(float64); ok {
		o.TotalPrice = v
	}
	if v, ok := row["is_paid"].(bool); ok {
		o.IsPaid = v
	}
	if v, ok := row["paid_at"].(time.Time); ok && !v.IsZero() {
		t := v
		o.PaidAt = &t
	}
	if v, ok := row["payment_result"].(string); ok && v != "" {
		var result models.PaymentResult
		if err := json.Unmarshal([]byte(v), &result); err == nil {
			o.PaymentResult = &result
		}
	}
	if v, ok := row["order_status"].(string); ok {
		o.OrderStatus = v
	}
	if v, ok := row["is_delivered"].(bool); ok {
		o.IsDelivered = v
	}
	if v, ok := row["delivered_at"].(time.Time); ok && !v.IsZero() {
		t := v
		o.DeliveredAt = &t
	}
	if v, ok := row["created_at"].(time.Time); ok {
		o.CreatedAt = v
	}

	return o, nil
}
