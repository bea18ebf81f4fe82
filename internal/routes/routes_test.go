package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nexicart_back_end/internal/gateway"
	"nexicart_back_end/internal/handlers/payment"
	"nexicart_back_end/internal/middleware"
	"nexicart_back_end/internal/orders"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// Les livraisons webhook ne passent par aucun rate limit : seule la
// signature HMAC décide de la réponse. Un 429 renvoyé à une livraison
// authentique serait rejoué indéfiniment par le prestataire.
func TestWebhookRoutesBypassRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	payment.Init(orders.NewService(orders.NewScyllaStore(),
		gateway.Unconfigured{Name: "razorpay"}, gateway.Unconfigured{Name: "stripe"},
		orders.Config{KeySecret: "test_secret"}))

	r := gin.New()
	RegisterRoutes(r)

	// Bien au-delà de la fenêtre de 100 req/min. Sans Redis derrière le
	// middleware de rate limit, seule une route montée hors du groupe /api
	// peut répondre : chaque rejet doit venir de la signature, jamais du quota.
	for i := 0; i < middleware.APIMaxRequests+50; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook",
			strings.NewReader(`{"event":"payment.captured"}`))
		req.Header.Set("X-Razorpay-Signature", "signature-forgée")
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	}

	for i := 0; i < middleware.APIMaxRequests+50; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook/stripe",
			strings.NewReader(`{"type":"payment_intent.succeeded"}`))
		req.Header.Set("Stripe-Signature", "t=0,v1=deadbeef")
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	}
}
