package product

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nexicart_back_end/internal/database"
	services "nexicart_back_end/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
)

func minioBucket() string {
	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "nexicart-images"
	}
	return bucket
}

//
// 🟢 POST /api/products/:id/images (admin) — upload vers MinIO puis
// rattachement au produit
//
func UploadProductImage(c *gin.Context) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de produit invalide"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier manquant"})
		return
	}
	defer file.Close()

	if database.MinIO == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Stockage d'images indisponible"})
		return
	}

	ctx := c.Request.Context()

	ext := filepath.Ext(header.Filename)
	objectName := fmt.Sprintf("products/%s/%d%s", productID, time.Now().UnixNano(), ext)

	_, err = database.MinIO.PutObject(ctx, minioBucket(), objectName, file, header.Size,
		minio.PutObjectOptions{ContentType: header.Header.Get("Content-Type")})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur upload MinIO: " + err.Error()})
		return
	}

	imageURL := "/uploads/" + objectName

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var existingURLs []string
	if err := session.Query(`SELECT image_urls FROM products WHERE product_id = ?`, productID).
		WithContext(ctx).Scan(&existingURLs); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	existingURLs = append(existingURLs, imageURL)
	if err := session.Query(`UPDATE products SET image_urls = ?, updated_at = ? WHERE product_id = ?`,
		existingURLs, time.Now(), productID).WithContext(ctx).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour produit"})
		return
	}

	invalidateCatalogCaches(ctx, productID)

	c.JSON(http.StatusOK, gin.H{
		"message":   "Image uploadée",
		"image_url": imageURL,
	})
}

//
// 🔵 GET /api/products/:id/images — URLs signées valides 24h
//
func GetProductImages(c *gin.Context) {
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

	var imageURLs []string
	if err := session.Query(`SELECT image_urls FROM products WHERE product_id = ?`, productID).
		WithContext(c.Request.Context()).Scan(&imageURLs); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	ctx := c.Request.Context()
	signedURLs := []string{}
	for _, relativeURL := range imageURLs {
		if relativeURL == "" {
			continue
		}
		signed, err := services.GenerateSignedURL(ctx, relativeURL, 24*time.Hour)
		if err == nil {
			signedURLs = append(signedURLs, signed)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": productID.String(),
		"images":     signedURLs,
	})
}

//
// 🔴 DELETE /api/products/:id/images (admin)
//
func DeleteProductImage(c *gin.Context) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de produit invalide"})
		return
	}

	var req struct {
		ImageURL string `json:"image_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	if database.MinIO != nil {
		key := strings.TrimPrefix(req.ImageURL, "/uploads/")
		if err := database.MinIO.RemoveObject(ctx, minioBucket(), key, minio.RemoveObjectOptions{}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression MinIO: " + err.Error()})
			return
		}
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var currentURLs []string
	if err := session.Query(`SELECT image_urls FROM products WHERE product_id = ?`, productID).
		WithContext(ctx).Scan(&currentURLs); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	filteredURLs := []string{}
	for _, u := range currentURLs {
		if u != req.ImageURL {
			filteredURLs = append(filteredURLs, u)
		}
	}

	if err := session.Query(`UPDATE products SET image_urls = ?, updated_at = ? WHERE product_id = ?`,
		filteredURLs, time.Now(), productID).WithContext(ctx).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour produit"})
		return
	}

	invalidateCatalogCaches(ctx, productID)

	c.JSON(http.StatusOK, gin.H{
		"message":   "Image supprimée",
		"image_url": req.ImageURL,
	})
}
