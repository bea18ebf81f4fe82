package user

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nexicart_back_end/internal/database"
	"nexicart_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

const cartTTL = 30 * 24 * time.Hour

func cartKey(userID string) string {
	return "cart:" + userID
}

func loadCart(ctx context.Context, userID string) []models.CartItem {
	data, err := database.RedisClient.Get(ctx, cartKey(userID)).Result()
	if err != nil || data == "" {
		return []models.CartItem{}
	}

	var cart []models.CartItem
	if json.Unmarshal([]byte(data), &cart) != nil {
		return []models.CartItem{}
	}
	return cart
}

func saveCart(ctx context.Context, userID string, cart []models.CartItem) {
	jsonData, _ := json.Marshal(cart)
	database.RedisClient.Set(ctx, cartKey(userID), jsonData, cartTTL)

	// Notifier les clients websocket abonnés
	database.RedisClient.Publish(ctx, cartKey(userID), "updated")
}

func GetCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	cart := loadCart(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"items": cart, "total": models.Cart{Items: cart}.Total()})
}

//
// 🟢 POST /api/cart/add
//
func AddToCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	product, ok := fetchActiveProduct(c, input.ProductID)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	cart := loadCart(ctx, userID)

	// Met à jour ou ajoute l'item, en bornant à la valeur de stock lue
	// (contrainte souple : le stock fait foi au moment du checkout)
	found := false
	for i := range cart {
		if cart[i].ProductID == input.ProductID {
			cart[i].Quantity += input.Quantity
			if cart[i].Quantity > product.Stock {
				cart[i].Quantity = product.Stock
			}
			cart[i].Price = product.EffectivePrice()
			cart[i].Stock = product.Stock
			found = true
			break
		}
	}
	if !found {
		qty := input.Quantity
		if qty > product.Stock {
			qty = product.Stock
		}
		cart = append(cart, models.CartItem{
			ProductID: input.ProductID,
			Name:      product.Name,
			Price:     product.EffectivePrice(),
			Quantity:  qty,
			Stock:     product.Stock,
			ImageURL:  product.MainImage(),
		})
	}

	saveCart(ctx, userID, cart)

	c.JSON(http.StatusOK, gin.H{
		"message": "Produit ajouté au panier",
		"items":   cart,
	})
}

//
// 🔁 PUT /api/cart/:productId
//
func UpdateCartItem(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	productID := c.Param("productId")

	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	product, ok := fetchActiveProduct(c, productID)
	if !ok {
		return
	}

	if input.Quantity > product.Stock {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Stock insuffisant",
			"available": product.Stock,
			"requested": input.Quantity,
		})
		return
	}

	ctx := c.Request.Context()
	cart := loadCart(ctx, userID)

	found := false
	for i := range cart {
		if cart[i].ProductID == productID {
			cart[i].Quantity = input.Quantity
			cart[i].Price = product.EffectivePrice()
			cart[i].Stock = product.Stock
			found = true
			break
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit absent du panier"})
		return
	}

	saveCart(ctx, userID, cart)

	c.JSON(http.StatusOK, gin.H{"items": cart})
}

//
// ❌ DELETE /api/cart/:productId
//
func RemoveFromCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	productID := c.Param("productId")
	ctx := c.Request.Context()

	cart := loadCart(ctx, userID)
	newCart := []models.CartItem{}
	for _, item := range cart {
		if item.ProductID != productID {
			newCart = append(newCart, item)
		}
	}

	saveCart(ctx, userID, newCart)

	c.JSON(http.StatusOK, gin.H{
		"message": "Produit supprimé du panier",
		"items":   newCart,
	})
}

//
// 🧹 DELETE /api/cart/clear
//
func ClearCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	ctx := c.Request.Context()
	if err := database.RedisClient.Del(ctx, cartKey(userID)).Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors du vidage du panier"})
		return
	}
	database.RedisClient.Publish(ctx, cartKey(userID), "cleared")

	c.JSON(http.StatusOK, gin.H{
		"message": "Panier vidé avec succès",
	})
}

//
// 🔀 POST /api/cart/merge — fusion du panier invité à la connexion
//
func MergeGuestCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		Items []models.CartItem `json:"items"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	ctx := c.Request.Context()
	cart := loadCart(ctx, userID)

	for _, guest := range input.Items {
		if guest.Quantity <= 0 || guest.ProductID == "" {
			continue
		}

		// Chaque ligne invitée est revalidée contre le catalogue courant
		product, ok := fetchActiveProductQuiet(ctx, guest.ProductID)
		if !ok {
			continue
		}

		merged := false
		for i := range cart {
			if cart[i].ProductID == guest.ProductID {
				cart[i].Quantity += guest.Quantity
				if cart[i].Quantity > product.Stock {
					cart[i].Quantity = product.Stock
				}
				cart[i].Price = product.EffectivePrice()
				cart[i].Stock = product.Stock
				merged = true
				break
			}
		}
		if !merged {
			qty := guest.Quantity
			if qty > product.Stock {
				qty = product.Stock
			}
			cart = append(cart, models.CartItem{
				ProductID: guest.ProductID,
				Name:      product.Name,
				Price:     product.EffectivePrice(),
				Quantity:  qty,
				Stock:     product.Stock,
				ImageURL:  product.MainImage(),
			})
		}
	}

	saveCart(ctx, userID, cart)

	c.JSON(http.StatusOK, gin.H{
		"message": "Panier fusionné",
		"items":   cart,
	})
}

// fetchActiveProduct relit le produit dans ScyllaDB et répond à la place de
// l'appelant en cas d'erreur
func fetchActiveProduct(c *gin.Context, productID string) (models.Product, bool) {
	product, ok := fetchActiveProductQuiet(c.Request.Context(), productID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return models.Product{}, false
	}
	return product, true
}

func fetchActiveProductQuiet(ctx context.Context, productID string) (models.Product, bool) {
	pid, err := gocql.ParseUUID(productID)
	if err != nil {
		return models.Product{}, false
	}

	var p models.Product
	if err := database.GetPreparedGetProductByID().Bind(pid).WithContext(ctx).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.DiscountPrice, &p.Category, &p.Stock,
		&p.ImageURLs, &p.Rating, &p.NumReviews, &p.IsActive); err != nil {
		return models.Product{}, false
	}
	if !p.IsActive {
		return models.Product{}, false
	}

	return p, true
}
