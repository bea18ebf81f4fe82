package product

import (
	"net/http"
	"time"

	"nexicart_back_end/internal/cache"
	"nexicart_back_end/internal/database"
	"nexicart_back_end/internal/models"
	services "nexicart_back_end/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

//
// 💬 GET /api/products/:id/reviews
//
func GetReviews(c *gin.Context) {
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

	iter := session.Query(`SELECT product_id, user_id, user_name, rating, comment, created_at
		FROM reviews WHERE product_id = ?`, productID).WithContext(c.Request.Context()).Iter()

	reviews := []models.Review{}
	var r models.Review
	for iter.Scan(&r.ProductID, &r.UserID, &r.UserName, &r.Rating, &r.Comment, &r.CreatedAt) {
		reviews = append(reviews, r)
		r = models.Review{}
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture avis: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "count": len(reviews)})
}

//
// ✍️ POST /api/products/:id/reviews — un avis par utilisateur, le second
// écrase le premier et ré-agrège la note
//
func AddReview(c *gin.Context) {
	userID, err := gocql.ParseUUID(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de produit invalide"})
		return
	}

	var input struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Rating < 1 || input.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Note entre 1 et 5 requise"})
		return
	}

	ctx := c.Request.Context()

	product, err := cache.GetProductFromCache(ctx, productID)
	if err != nil || !product.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	userName := "Client NexiCart"
	if u, err := cache.GetUserFromCache(ctx, userID.String()); err == nil && u.Name != "" {
		userName = u.Name
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// Clé (product_id, user_id) : un nouvel INSERT écrase l'avis précédent
	review := models.Review{
		ProductID: productID,
		UserID:    userID,
		UserName:  userName,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: time.Now(),
	}
	if err := session.Query(`INSERT INTO reviews (product_id, user_id, user_name, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		review.ProductID, review.UserID, review.UserName, review.Rating, review.Comment, review.CreatedAt).
		WithContext(ctx).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement avis: " + err.Error()})
		return
	}

	// Ré-agrégation de la note depuis l'ensemble des avis de la partition
	iter := session.Query(`SELECT rating FROM reviews WHERE product_id = ?`, productID).
		WithContext(ctx).Iter()

	var sum, count, rating int
	for iter.Scan(&rating) {
		sum += rating
		count++
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur agrégation avis: " + err.Error()})
		return
	}

	avg := 0.0
	if count > 0 {
		avg = float64(sum) / float64(count)
	}

	if err := session.Query(`UPDATE products SET rating = ?, num_reviews = ?, updated_at = ? WHERE product_id = ?`,
		avg, count, time.Now(), productID).WithContext(ctx).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour note: " + err.Error()})
		return
	}

	invalidateCatalogCaches(ctx, productID)

	product.Rating = avg
	product.NumReviews = count
	go services.IndexProduct(*product)

	c.JSON(http.StatusCreated, gin.H{
		"review":      review,
		"rating":      avg,
		"num_reviews": count,
	})
}
