package admin

import (
	"net/http"
	"time"

	"nexicart_back_end/internal/database"
	"nexicart_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

//
// 👥 GET /api/admin/users
//
func ListUsers(c *gin.Context) {
	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT user_id, email, name, role, provider, created_at FROM users`).
		WithContext(c.Request.Context()).Iter()

	users := []models.User{}
	var (
		userID    gocql.UUID
		email     string
		name      string
		role      string
		provider  string
		createdAt time.Time
	)
	for iter.Scan(&userID, &email, &name, &role, &provider, &createdAt) {
		users = append(users, models.User{
			ID:        userID.String(),
			Email:     email,
			Name:      name,
			Role:      role,
			Provider:  provider,
			CreatedAt: createdAt,
		})
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture utilisateurs: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}
