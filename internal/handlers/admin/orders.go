package admin

import (
	"errors"
	"net/http"

	"nexicart_back_end/internal/models"
	"nexicart_back_end/internal/orders"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

var orderStore *orders.ScyllaStore

// Init injecte le store de commandes construit dans main
func Init(store *orders.ScyllaStore) {
	orderStore = store
}

//
// 📦 GET /api/admin/orders — toutes les commandes, optionnellement
// filtrées par statut
//
func ListAllOrders(c *gin.Context) {
	list, err := orderStore.ListAllOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commandes: " + err.Error()})
		return
	}

	if status := c.Query("status"); status != "" {
		filtered := []models.Order{}
		for _, o := range list {
			if o.OrderStatus == status {
				filtered = append(filtered, o)
			}
		}
		list = filtered
	}

	c.JSON(http.StatusOK, gin.H{"orders": list, "count": len(list)})
}

//
// 🔁 PUT /api/admin/orders/:id/status — suit le flux
// pending → processing → shipped → delivered
//
func UpdateOrderStatus(c *gin.Context) {
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de commande invalide"})
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut manquant"})
		return
	}

	order, err := orderStore.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commande"})
		return
	}

	if !models.CanTransitionOrderStatus(order.OrderStatus, input.Status) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Transition de statut non autorisée",
			"current": order.OrderStatus,
			"wanted":  input.Status,
		})
		return
	}

	if err := orderStore.UpdateStatus(c.Request.Context(), orderID, input.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour statut: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Statut mis à jour",
		"status":  input.Status,
	})
}
