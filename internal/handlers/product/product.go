package product

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"nexicart_back_end/internal/cache"
	"nexicart_back_end/internal/database"
	"nexicart_back_end/internal/models"
	"nexicart_back_end/internal/orders"
	services "nexicart_back_end/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

var productStore *orders.ScyllaStore

func Init(store *orders.ScyllaStore) {
	productStore = store
}

const productColumns = `product_id, name, description, price, discount_price, category, stock,
	image_urls, rating, num_reviews, is_featured, is_active, created_at, updated_at`

const newArrivalsLimit = 12

// La colonne stock est volontairement absente : elle n'est écrite que par
// des LWT (réservations checkout, restock conditionnel). Une écriture
// simple ici écraserait un décrément concurrent.
const productMetadataUpdateCQL = `UPDATE products SET name = ?, description = ?, price = ?, discount_price = ?,
		category = ?, image_urls = ?, is_featured = ?, is_active = ?, updated_at = ?
	WHERE product_id = ?`

func scanProduct(iter *gocql.Iter, p *models.Product) bool {
	return iter.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.DiscountPrice, &p.Category,
		&p.Stock, &p.ImageURLs, &p.Rating, &p.NumReviews, &p.IsFeatured, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt)
}

//
// 🛍️ GET /api/products — catalogue filtrable (category, featured, min/max price)
//
func GetAllProducts(c *gin.Context) {
	ctx := c.Request.Context()

	category := c.Query("category")
	featuredOnly := c.Query("featured") == "true"
	minPrice, _ := strconv.ParseFloat(c.DefaultQuery("min_price", "0"), 64)
	maxPrice, _ := strconv.ParseFloat(c.DefaultQuery("max_price", "0"), 64)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	// Le catalogue complet non filtré est mis en cache une heure
	cacheKey := "products:all"
	useCache := category == "" && !featuredOnly && minPrice == 0 && maxPrice == 0
	if useCache {
		if val, err := database.RedisClient.Get(ctx, cacheKey).Result(); err == nil && val != "" {
			var cached []models.Product
			if json.Unmarshal([]byte(val), &cached) == nil {
				respondPaginated(c, cached, page, limit)
				return
			}
		}
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// ScyllaDB ne filtre pas nativement sur ces colonnes : scan + filtre mémoire
	iter := session.Query(`SELECT ` + productColumns + ` FROM products`).WithContext(ctx).Iter()

	products := []models.Product{}
	var p models.Product
	for scanProduct(iter, &p) {
		keep := p.IsActive &&
			(category == "" || p.Category == category) &&
			(!featuredOnly || p.IsFeatured) &&
			(minPrice == 0 || p.EffectivePrice() >= minPrice) &&
			(maxPrice == 0 || p.EffectivePrice() <= maxPrice)
		if keep {
			products = append(products, p)
		}
		p = models.Product{}
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produits: " + err.Error()})
		return
	}

	if useCache {
		if data, err := json.Marshal(products); err == nil {
			database.RedisClient.Set(ctx, cacheKey, data, time.Hour)
		}
	}

	respondPaginated(c, products, page, limit)
}

// respondPaginated découpe la liste filtrée en pages côté serveur
func respondPaginated(c *gin.Context, products []models.Product, page, limit int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	total := len(products)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products[start:end],
		"page":     page,
		"limit":    limit,
		"total":    total,
	})
}

//
// ⭐ GET /api/products/featured
//
func GetFeaturedProducts(c *gin.Context) {
	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT ` + productColumns + ` FROM products`).
		WithContext(c.Request.Context()).Iter()

	products := []models.Product{}
	var p models.Product
	for scanProduct(iter, &p) {
		if p.IsActive && p.IsFeatured {
			products = append(products, p)
		}
		p = models.Product{}
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produits: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, products)
}

//
// 🆕 GET /api/products/new — les derniers produits ajoutés au catalogue
//
func GetNewArrivals(c *gin.Context) {
	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT ` + productColumns + ` FROM products`).
		WithContext(c.Request.Context()).Iter()

	products := []models.Product{}
	var p models.Product
	for scanProduct(iter, &p) {
		if p.IsActive {
			products = append(products, p)
		}
		p = models.Product{}
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produits: " + err.Error()})
		return
	}

	sort.Slice(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	if len(products) > newArrivalsLimit {
		products = products[:newArrivalsLimit]
	}

	c.JSON(http.StatusOK, products)
}

//
// 🔍 GET /api/products/:id — lecture unitaire via cache Redis
//
func GetProductByID(c *gin.Context) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de produit invalide"})
		return
	}

	product, err := cache.GetProductFromCache(c.Request.Context(), productID)
	if err != nil || !product.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	c.JSON(http.StatusOK, product)
}

//
// 🗂️ GET /api/products/categories
//
func GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": models.Categories})
}

//
// ➕ POST /api/products (admin)
//
func CreateProduct(c *gin.Context) {
	var p models.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if p.Name == "" || p.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nom et prix positif requis"})
		return
	}
	if !models.IsValidCategory(p.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Catégorie inconnue", "categories": models.Categories})
		return
	}
	if p.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Stock négatif interdit"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	p.ID = gocql.TimeUUID()
	p.IsActive = true
	p.Rating = 0
	p.NumReviews = 0
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if err := session.Query(query, p.ID, p.Name, p.Description, p.Price, p.DiscountPrice,
		p.Category, p.Stock, p.ImageURLs, p.Rating, p.NumReviews, p.IsFeatured, p.IsActive,
		p.CreatedAt, p.UpdatedAt).WithContext(c.Request.Context()).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création produit: " + err.Error()})
		return
	}

	database.RedisClient.Del(c.Request.Context(), "products:all")

	// 🔄 Indexation Elasticsearch
	go services.IndexProduct(p)

	c.JSON(http.StatusCreated, p)
}

//
// 🔁 PUT /api/products/:id (admin)
//
func UpdateProduct(c *gin.Context) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de produit invalide"})
		return
	}

	// Lecture fraîche en base, jamais le cache : la copie en cache peut
	// avoir des minutes de retard sur les checkouts
	existing, err := productStore.GetProduct(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	var input struct {
		Name          *string   `json:"name"`
		Description   *string   `json:"description"`
		Price         *float64  `json:"price"`
		DiscountPrice *float64  `json:"discount_price"`
		Category      *string   `json:"category"`
		Stock         *int      `json:"stock"`
		ImageURLs     *[]string `json:"image_urls"`
		IsFeatured    *bool     `json:"is_featured"`
		IsActive      *bool     `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	p := existing
	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Prix positif requis"})
			return
		}
		p.Price = *input.Price
	}
	if input.DiscountPrice != nil {
		p.DiscountPrice = *input.DiscountPrice
	}
	if input.Category != nil {
		if !models.IsValidCategory(*input.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Catégorie inconnue"})
			return
		}
		p.Category = *input.Category
	}
	if input.Stock != nil && *input.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Stock négatif interdit"})
		return
	}
	if input.ImageURLs != nil {
		p.ImageURLs = *input.ImageURLs
	}
	if input.IsFeatured != nil {
		p.IsFeatured = *input.IsFeatured
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	p.UpdatedAt = time.Now()

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := session.Query(productMetadataUpdateCQL,
		p.Name, p.Description, p.Price, p.DiscountPrice, p.Category, p.ImageURLs,
		p.IsFeatured, p.IsActive, p.UpdatedAt, productID).WithContext(c.Request.Context()).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour produit: " + err.Error()})
		return
	}

	if input.Stock != nil {
		if err := productStore.SetStock(c.Request.Context(), productID, *input.Stock); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour stock: " + err.Error()})
			return
		}
		p.Stock = *input.Stock
	}

	cache.InvalidateProduct(c.Request.Context(), productID)
	database.RedisClient.Del(c.Request.Context(), "products:all")

	if p.IsActive {
		go services.IndexProduct(p)
	} else {
		go services.RemoveProduct(productID.String())
	}

	c.JSON(http.StatusOK, p)
}

//
// ❌ DELETE /api/products/:id (admin) — désactivation logique, les
// commandes passées gardent leurs snapshots
//
func DeleteProduct(c *gin.Context) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de produit invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := session.Query(`UPDATE products SET is_active = false, updated_at = ? WHERE product_id = ?`,
		time.Now(), productID).WithContext(c.Request.Context()).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression produit: " + err.Error()})
		return
	}

	cache.InvalidateProduct(c.Request.Context(), productID)
	database.RedisClient.Del(c.Request.Context(), "products:all")
	go services.RemoveProduct(productID.String())

	c.JSON(http.StatusOK, gin.H{"message": "Produit désactivé"})
}

// invalidateCatalogCaches est partagé par les écritures produit hors de ce fichier
func invalidateCatalogCaches(ctx context.Context, productID gocql.UUID) {
	cache.InvalidateProduct(ctx, productID)
	database.RedisClient.Del(ctx, "products:all")
}
