package product

import (
	"net/http"
	"strings"

	"nexicart_back_end/internal/database"
	"nexicart_back_end/internal/models"
	services "nexicart_back_end/internal/service"

	"github.com/gin-gonic/gin"
)

//
// 🔎 GET /api/products/search?q=... — Elasticsearch d'abord, repli sur un
// scan ScyllaDB filtré en mémoire si l'index est indisponible
//
func SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paramètre 'q' manquant"})
		return
	}

	results, err := services.SearchProducts(query)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
		return
	}

	// Repli : pas de LIKE natif côté ScyllaDB, filtre en mémoire
	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT ` + productColumns + ` FROM products`).
		WithContext(c.Request.Context()).Iter()

	needle := strings.ToLower(query)
	products := []models.Product{}
	var p models.Product
	for scanProduct(iter, &p) {
		if p.IsActive &&
			(strings.Contains(strings.ToLower(p.Name), needle) ||
				strings.Contains(strings.ToLower(p.Description), needle) ||
				strings.Contains(strings.ToLower(p.Category), needle)) {
			products = append(products, p)
		}
		p = models.Product{}
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur recherche: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": products, "count": len(products)})
}
