package routes

import (
	"os"
	"time"

	"nexicart_back_end/internal/handlers/admin"
	"nexicart_back_end/internal/handlers/payment"
	"nexicart_back_end/internal/handlers/product"
	"nexicart_back_end/internal/handlers/user"
	"nexicart_back_end/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "http://localhost:3000"
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontend},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	// --- Authentification ---
	auth := api.Group("/auth")
	auth.POST("/register", middleware.RegisterRateLimit(), user.Register)
	auth.POST("/login", middleware.LoginRateLimit(), user.Login)
	auth.GET("/:provider", user.BeginAuth)
	auth.GET("/:provider/callback", user.CallbackAuth)

	// --- Profil ---
	me := api.Group("/me", middleware.AuthRequired())
	me.GET("", user.Me)
	me.PUT("", user.UpdateMe)

	// --- Catalogue (public) ---
	api.GET("/products", product.GetAllProducts)
	api.GET("/products/featured", product.GetFeaturedProducts)
	api.GET("/products/new", product.GetNewArrivals)
	api.GET("/products/search", product.SearchProducts)
	api.GET("/products/categories", product.GetCategories)
	api.GET("/products/:id", product.GetProductByID)
	api.GET("/products/:id/reviews", product.GetReviews)
	api.GET("/products/:id/images", product.GetProductImages)

	// --- Avis (authentifié) ---
	api.POST("/products/:id/reviews", middleware.AuthRequired(), product.AddReview)

	// --- Catalogue (admin) ---
	api.POST("/products", middleware.AuthRequired(), middleware.RequireAdmin, product.CreateProduct)
	api.PUT("/products/:id", middleware.AuthRequired(), middleware.RequireAdmin, product.UpdateProduct)
	api.DELETE("/products/:id", middleware.AuthRequired(), middleware.RequireAdmin, product.DeleteProduct)
	api.POST("/products/:id/images", middleware.AuthRequired(), middleware.RequireAdmin, product.UploadProductImage)
	api.DELETE("/products/:id/images", middleware.AuthRequired(), middleware.RequireAdmin, product.DeleteProductImage)

	// --- Panier ---
	cart := api.Group("/cart", middleware.AuthRequired())
	cart.GET("", user.GetCart)
	cart.GET("/ws", user.CartWebSocket)
	cart.POST("/add", user.AddToCart)
	cart.POST("/merge", user.MergeGuestCart)
	cart.PUT("/:productId", user.UpdateCartItem)
	cart.DELETE("/clear", user.ClearCart)
	cart.DELETE("/:productId", user.RemoveFromCart)

	// --- Commandes ---
	ordersGroup := api.Group("/orders", middleware.AuthRequired())
	ordersGroup.POST("", user.PlaceOrder)
	ordersGroup.GET("/my", user.GetMyOrders)
	ordersGroup.GET("/:id", user.GetOrderByID)
	ordersGroup.PUT("/:id/cancel", user.CancelOrder)

	// --- Paiement ---
	api.GET("/payment/config", payment.GetGatewayConfig)
	api.POST("/payment/order/:id", middleware.AuthRequired(), payment.CreateGatewayOrder)
	api.POST("/payment/verify", middleware.AuthRequired(), payment.VerifyPayment)
	api.GET("/payment/upi-qr/:id", middleware.AuthRequired(), payment.GetUPIQR)

	// Les webhooks sont authentifiés par leur signature HMAC, pas par JWT,
	// et montés hors du groupe rate-limité : un 429 sur une livraison
	// signée déclencherait des re-livraisons en boucle chez le prestataire
	r.POST("/api/payment/webhook", payment.RazorpayWebhook)
	r.POST("/api/payment/webhook/stripe", payment.StripeWebhook)

	// --- Homepage (lecture publique, écriture admin) ---
	api.GET("/homepage", admin.GetHomepage)

	// --- Administration ---
	adminGroup := api.Group("/admin", middleware.AuthRequired(), middleware.RequireAdmin)
	adminGroup.GET("/dashboard", admin.GetDashboard)
	adminGroup.GET("/orders", admin.ListAllOrders)
	adminGroup.PUT("/orders/:id/status", admin.UpdateOrderStatus)
	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.PUT("/homepage", admin.SetHomepage)
}
