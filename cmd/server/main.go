package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	"nexicart_back_end/internal/cache"
	"nexicart_back_end/internal/config"
	"nexicart_back_end/internal/database"
	"nexicart_back_end/internal/gateway"
	"nexicart_back_end/internal/handlers/admin"
	"nexicart_back_end/internal/handlers/payment"
	"nexicart_back_end/internal/handlers/product"
	"nexicart_back_end/internal/handlers/user"
	"nexicart_back_end/internal/models"
	"nexicart_back_end/internal/orders"
	"nexicart_back_end/internal/routes"
	"nexicart_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth/gothic"
)

func main() {
	config.Load()

	database.ConnectDatabases()

	// ✅ Initialiser les prepared statements pour améliorer les performances
	database.InitPreparedStatements()

	warmupRedisCache()

	initOAuthSessionStore()

	// Passerelles de paiement : identifiants absents → variante Unconfigured,
	// le serveur démarre quand même et les endpoints concernés répondent 503
	razorpayClient := gateway.NewRazorpayFromEnv()
	stripeClient := gateway.NewStripeFromEnv()

	store := orders.NewScyllaStore()
	orderService := orders.NewService(store, razorpayClient, stripeClient, orders.Config{
		KeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		WebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
	})
	orderService.SetPaidHook(onOrderPaid)

	user.InitOrders(orderService, store)
	payment.Init(orderService)
	product.Init(store)
	admin.Init(store)

	r := gin.Default()
	routes.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur NexiCart lancé sur le port", port)
	r.Run(":" + port)
}

// onOrderPaid : effets de bord déclenchés une seule fois par commande payée.
// Tout est best-effort, un échec d'e-mail ne remet pas le paiement en cause.
func onOrderPaid(order models.Order) {
	ctx := context.Background()

	// Le panier est vidé côté serveur, les websockets sont notifiés
	cartKey := "cart:" + order.UserID.String()
	database.RedisClient.Del(ctx, cartKey)
	database.RedisClient.Publish(ctx, cartKey, "cleared")

	u, err := cache.GetUserFromCache(ctx, order.UserID.String())
	if err != nil || u.Email == "" {
		log.Printf("⚠️ E-mail de confirmation non envoyé pour %s : utilisateur introuvable", order.ID)
		return
	}

	html := utils.GenerateOrderConfirmationHTML(order, u.Email)

	// Facture PDF rendue depuis la page front (best-effort, désactivée
	// quand FRONTEND_INVOICE_URL n'est pas configurée)
	var pdf []byte
	if base := utils.GetFrontendInvoiceBaseURL(); base != "" {
		if rendered, err := utils.RenderInvoicePDF(base, order.ID.String(), ""); err != nil {
			log.Printf("⚠️ Rendu facture PDF échoué pour %s: %v", order.ID, err)
		} else {
			pdf = rendered
		}
	}

	if err := utils.SendConfirmationEmail(u.Email, "Confirmation de commande NexiCart", html, pdf); err != nil {
		log.Printf("❌ Envoi e-mail de confirmation échoué pour %s: %v", order.ID, err)
		return
	}

	log.Printf("📤 Confirmation envoyée à %s pour la commande %s", u.Email, order.ID)
}

func initOAuthSessionStore() {
	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		sessionSecret = "nexicart_session_secret"
		log.Println("⚠️ SESSION_SECRET manquant — secret de session par défaut")
	}

	cookieStore := sessions.NewCookieStore([]byte(sessionSecret))
	cookieStore.MaxAge(86400 * 30)
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   false, // à passer à true derrière HTTPS
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = cookieStore

	gothic.GetProviderName = func(req *http.Request) (string, error) {
		if provider := req.URL.Query().Get("provider"); provider != "" {
			return provider, nil
		}
		if provider := req.FormValue("provider"); provider != "" {
			return provider, nil
		}
		return "", errors.New("provider not found")
	}
}

// warmupRedisCache établit la connexion Redis avant le premier appel
func warmupRedisCache() {
	ctx := context.Background()
	if err := database.Redis.Ping(ctx).Err(); err == nil {
		log.Println("✅ Cache Redis pré-chauffé")
	}
}
