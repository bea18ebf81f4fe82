package admin

import (
	"net/http"
	"sort"
	"time"

	"nexicart_back_end/internal/database"
	"nexicart_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

const (
	lowStockThreshold = 5
	recentOrdersLimit = 10
)

type recentOrder struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	TotalPrice  float64   `json:"total_price"`
	IsPaid      bool      `json:"is_paid"`
	OrderStatus string    `json:"order_status"`
	CreatedAt   time.Time `json:"created_at"`
}

//
// 📊 GET /api/admin/dashboard — agrégats de pilotage calculés en mémoire
// (ScyllaDB ne fait pas d'agrégation complexe côté serveur)
//
func GetDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := ordersSession.Query(`SELECT order_id, user_id, total_price, is_paid, order_status, created_at FROM orders`).
		WithContext(ctx).Iter()

	var (
		totalOrders  int
		paidOrders   int
		totalRevenue float64
		statusCounts = map[string]int{}
		salesByDay   = map[string]float64{}
		recent       []recentOrder
		orderID      gocql.UUID
		userID       gocql.UUID
		totalPrice   float64
		isPaid       bool
		orderStatus  string
		createdAt    time.Time
	)
	for iter.Scan(&orderID, &userID, &totalPrice, &isPaid, &orderStatus, &createdAt) {
		totalOrders++
		statusCounts[orderStatus]++
		if isPaid {
			paidOrders++
			totalRevenue += totalPrice
			salesByDay[createdAt.Format("2006-01-02")] += totalPrice
		}
		recent = append(recent, recentOrder{
			OrderID:     orderID.String(),
			UserID:      userID.String(),
			TotalPrice:  totalPrice,
			IsPaid:      isPaid,
			OrderStatus: orderStatus,
			CreatedAt:   createdAt,
		})
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commandes: " + err.Error()})
		return
	}

	avgOrderValue := 0.0
	if paidOrders > 0 {
		avgOrderValue = totalRevenue / float64(paidOrders)
	}

	sort.Slice(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	if len(recent) > recentOrdersLimit {
		recent = recent[:recentOrdersLimit]
	}

	productsSession, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	pIter := productsSession.Query(`SELECT product_id, name, stock, is_active FROM products`).
		WithContext(ctx).Iter()

	var (
		totalProducts int
		lowStock      []gin.H
		p             models.Product
	)
	for pIter.Scan(&p.ID, &p.Name, &p.Stock, &p.IsActive) {
		if !p.IsActive {
			continue
		}
		totalProducts++
		if p.Stock <= lowStockThreshold {
			lowStock = append(lowStock, gin.H{
				"product_id": p.ID.String(),
				"name":       p.Name,
				"stock":      p.Stock,
			})
		}
		p = models.Product{}
	}
	if err := pIter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produits: " + err.Error()})
		return
	}

	usersSession, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var totalUsers int
	if err := usersSession.Query(`SELECT COUNT(*) FROM users`).WithContext(ctx).Scan(&totalUsers); err != nil {
		totalUsers = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"total_orders":     totalOrders,
		"paid_orders":      paidOrders,
		"total_revenue":    totalRevenue,
		"avg_order_value":  avgOrderValue,
		"orders_by_status": statusCounts,
		"sales_by_day":     salesByDay,
		"recent_orders":    recent,
		"total_products":   totalProducts,
		"low_stock":        lowStock,
		"total_users":      totalUsers,
	})
}
