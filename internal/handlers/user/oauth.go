package user

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"nexicart_back_end/internal/config"
	"nexicart_back_end/internal/database"
	"nexicart_back_end/internal/models"
	"nexicart_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

// ================== AUTH SOCIALE (WEB) ==================

func BeginAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider != "google" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provider non supporté"})
		return
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	goth.UseProviders(google.New(
		os.Getenv("GOOGLE_CLIENT_ID"),
		os.Getenv("GOOGLE_CLIENT_SECRET"),
		baseURL+"/api/auth/google/callback",
	))

	redirectURL := c.Query("redirect_url")
	state := uuid.NewString()
	if redirectURL != "" {
		_ = database.RedisClient.Set(context.Background(), "oauth_redirect:"+state, redirectURL, 10*time.Minute).Err()
	}

	q := c.Request.URL.Query()
	q.Set("provider", provider)
	q.Set("state", state)
	c.Request.URL.RawQuery = q.Encode()
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

func CallbackAuth(c *gin.Context) {
	provider := c.Param("provider")
	state := c.Query("state")
	if provider != "google" || c.Query("code") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètres OAuth invalides"})
		return
	}

	var userEmail, userName string

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err == nil {
		userEmail = gothUser.Email
		userName = gothUser.Name
	} else {
		// Secours : échange manuel du code via la config oauth2
		log.Printf("⚠️ gothic.CompleteUserAuth a échoué (%v) — échange manuel", err)
		token, err := config.GoogleOAuthConfig.Exchange(context.Background(), c.Query("code"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Échange OAuth échoué"})
			return
		}

		resp, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + url.QueryEscape(token.AccessToken))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Lecture profil Google échouée"})
			return
		}
		defer resp.Body.Close()

		var info struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&info); err != nil || info.Email == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Profil Google illisible"})
			return
		}
		userEmail = info.Email
		userName = info.Name
	}

	user, err := findOrCreateOAuthUser(userEmail, userName, provider)
	if err != nil {
		log.Println("❌ Erreur création utilisateur OAuth:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	// Redirection vers le front avec le token
	redirect := os.Getenv("FRONTEND_URL")
	if redirect == "" {
		redirect = "http://localhost:3000"
	}
	if state != "" {
		if saved, err := database.RedisClient.Get(context.Background(), "oauth_redirect:"+state).Result(); err == nil && saved != "" {
			redirect = saved
			database.RedisClient.Del(context.Background(), "oauth_redirect:"+state)
		}
	}

	c.Redirect(http.StatusTemporaryRedirect, redirect+"/auth/callback?token="+url.QueryEscape(token))
}

func findOrCreateOAuthUser(email, name, provider string) (models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var userID gocql.UUID
	err := database.GetPreparedGetUserByEmail().Bind(email).WithContext(ctx).Scan(&userID)
	if err == nil {
		user, err := lookupUser(ctx, userID)
		if err == nil {
			return user, nil
		}
	}

	// Premier passage : on crée le compte sans mot de passe local
	userID = gocql.TimeUUID()
	now := time.Now()

	if err := database.GetPreparedInsertUser().
		Bind(userID, email, "", name, "customer", provider, now, now).
		WithContext(ctx).Exec(); err != nil {
		return models.User{}, err
	}
	if err := database.GetPreparedInsertUserByEmail().Bind(email, userID).WithContext(ctx).Exec(); err != nil {
		return models.User{}, err
	}

	log.Printf("✅ Compte %s créé via %s", email, provider)

	return models.User{
		ID:       userID.String(),
		Name:     name,
		Email:    email,
		Role:     "customer",
		Provider: provider,
	}, nil
}

func lookupUser(ctx context.Context, userID gocql.UUID) (models.User, error) {
	var (
		email, password, name, role, provider string
		createdAt                             time.Time
	)
	if err := database.GetPreparedGetUserByID().Bind(userID).WithContext(ctx).
		Scan(&email, &password, &name, &role, &provider, &createdAt); err != nil {
		return models.User{}, err
	}

	return models.User{
		ID:        userID.String(),
		Name:      name,
		Email:     email,
		Role:      role,
		Provider:  provider,
		CreatedAt: createdAt,
	}, nil
}
