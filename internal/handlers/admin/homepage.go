package admin

import (
	"encoding/json"
	"net/http"
	"sort"

	"nexicart_back_end/internal/database"
	"nexicart_back_end/internal/models"

	"github.com/gin-gonic/gin"
)

const homepageKey = "homepage:sections"

//
// 🏠 GET /api/homepage — sections éditoriales servies depuis Redis
// (endpoint public, le montage admin n'expose que l'écriture)
//
func GetHomepage(c *gin.Context) {
	data, err := database.RedisClient.Get(c.Request.Context(), homepageKey).Result()
	if err != nil || data == "" {
		c.JSON(http.StatusOK, gin.H{"sections": []models.HomepageSection{}})
		return
	}

	var sections []models.HomepageSection
	if json.Unmarshal([]byte(data), &sections) != nil {
		c.JSON(http.StatusOK, gin.H{"sections": []models.HomepageSection{}})
		return
	}

	sort.Slice(sections, func(i, j int) bool {
		return sections[i].Position < sections[j].Position
	})

	c.JSON(http.StatusOK, gin.H{"sections": sections})
}

//
// 🛠️ PUT /api/admin/homepage — remplacement atomique de la curation
//
func SetHomepage(c *gin.Context) {
	var input struct {
		Sections []models.HomepageSection `json:"sections"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	for _, s := range input.Sections {
		if s.Key == "" || s.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Chaque section requiert key et title"})
			return
		}
	}

	data, err := json.Marshal(input.Sections)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sérialisation"})
		return
	}

	// Pas de TTL : la curation vit jusqu'au prochain remplacement
	if err := database.RedisClient.Set(c.Request.Context(), homepageKey, data, 0).Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde homepage"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Homepage mise à jour",
		"sections": len(input.Sections),
	})
}
