package user

import (
	"errors"
	"net/http"

	"nexicart_back_end/internal/database"
	"nexicart_back_end/internal/orders"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

var (
	orderService *orders.Service
	orderStore   *orders.ScyllaStore
)

// InitOrders injecte le service de commandes construit dans main
func InitOrders(svc *orders.Service, store *orders.ScyllaStore) {
	orderService = svc
	orderStore = store
}

func currentUserID(c *gin.Context) (gocql.UUID, bool) {
	raw := c.GetString("user_id")
	userID, err := gocql.ParseUUID(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return gocql.UUID{}, false
	}
	return userID, true
}

//
// 🧾 POST /api/orders — création de commande depuis le panier soumis
//
func PlaceOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input orders.PlaceOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	order, err := orderService.PlaceOrder(c.Request.Context(), userID, input)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	// Le panier Redis est vidé une fois la commande persistée
	ctx := c.Request.Context()
	database.RedisClient.Del(ctx, cartKey(userID.String()))
	database.RedisClient.Publish(ctx, cartKey(userID.String()), "cleared")

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

//
// 📦 GET /api/orders/my
//
func GetMyOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	list, err := orderStore.ListOrdersByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la récupération des commandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": list})
}

//
// 🔍 GET /api/orders/:id
//
func GetOrderByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de commande invalide"})
		return
	}

	order, err := orderService.GetOrderForUser(c.Request.Context(), orderID, userID)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

//
// 🚫 PUT /api/orders/:id/cancel
//
func CancelOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de commande invalide"})
		return
	}

	if err := orderService.CancelOrder(c.Request.Context(), orderID, userID); err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Commande annulée, stock restitué"})
}

// respondOrderError traduit les erreurs du service de commandes en réponses
// HTTP, avec le contexte disponible/demandé pour les ruptures de stock
func respondOrderError(c *gin.Context, err error) {
	var notFound *orders.ProductNotFoundError
	var outOfStock *orders.InsufficientStockError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":      "Produit introuvable",
			"product_id": notFound.ProductID,
		})
	case errors.As(err, &outOfStock):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Stock insuffisant",
			"product_id": outOfStock.ProductID,
			"name":       outOfStock.Name,
			"available":  outOfStock.Available,
			"requested":  outOfStock.Requested,
		})
	case errors.Is(err, orders.ErrEmptyOrder),
		errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrMissingShippingFields),
		errors.Is(err, orders.ErrInvalidPaymentMethod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, orders.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
	case errors.Is(err, orders.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Commande non autorisée"})
	case errors.Is(err, orders.ErrCannotCancel):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
	}
}
