package cache

import (
	"context"
	"encoding/json"
	"time"

	"nexicart_back_end/internal/database"
	"nexicart_back_end/internal/models"

	"github.com/gocql/gocql"
)

const (
	UserCacheTTL    = 5 * time.Minute
	ProductCacheTTL = 10 * time.Minute
)

// GetProductFromCache récupère un produit depuis Redis ou ScyllaDB
func GetProductFromCache(ctx context.Context, productID gocql.UUID) (*models.Product, error) {
	key := "product:" + productID.String()

	// 1. Essayer le cache Redis
	data, err := database.Redis.Get(ctx, key).Result()
	if err == nil {
		var product models.Product
		if json.Unmarshal([]byte(data), &product) == nil {
			return &product, nil
		}
	}

	// 2. Récupérer de ScyllaDB
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}

	var p models.Product
	err = session.Query(`SELECT product_id, name, description, price, discount_price, category, stock,
			image_urls, rating, num_reviews, is_featured, is_active, created_at, updated_at
		FROM products WHERE product_id = ?`, productID).WithContext(ctx).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.DiscountPrice, &p.Category, &p.Stock,
		&p.ImageURLs, &p.Rating, &p.NumReviews, &p.IsFeatured, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	// 3. Mettre en cache
	jsonData, _ := json.Marshal(p)
	database.Redis.Set(ctx, key, jsonData, ProductCacheTTL)

	return &p, nil
}

// InvalidateProduct purge le cache d'un produit après une écriture admin
// ou un mouvement de stock
func InvalidateProduct(ctx context.Context, productID gocql.UUID) {
	database.Redis.Del(ctx, "product:"+productID.String())
}

// GetUserFromCache récupère un utilisateur depuis Redis ou ScyllaDB
func GetUserFromCache(ctx context.Context, userID string) (*models.User, error) {
	key := "user:" + userID

	data, err := database.Redis.Get(ctx, key).Result()
	if err == nil {
		var user models.User
		if json.Unmarshal([]byte(data), &user) == nil {
			return &user, nil
		}
	}

	session, err := database.GetUsersSession()
	if err != nil {
		return nil, err
	}

	uid, err := gocql.ParseUUID(userID)
	if err != nil {
		return nil, err
	}

	var (
		email, name, role, provider string
		createdAt                   time.Time
	)
	err = session.Query(`SELECT email, name, role, provider, created_at FROM users WHERE user_id = ?`, uid).
		WithContext(ctx).Scan(&email, &name, &role, &provider, &createdAt)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:        userID,
		Email:     email,
		Name:      name,
		Role:      role,
		Provider:  provider,
		CreatedAt: createdAt,
	}

	jsonData, _ := json.Marshal(user)
	database.Redis.Set(ctx, key, jsonData, UserCacheTTL)

	return user, nil
}

// InvalidateUser purge le cache d'un utilisateur après une mise à jour profil
func InvalidateUser(ctx context.Context, userID string) {
	database.Redis.Del(ctx, "user:"+userID)
}
