package services

import (
	"context"
	"errors"
	"net/url"
	"os"
	"strings"
	"time"

	"nexicart_back_end/internal/database"
)

// GenerateSignedURL génère une URL de lecture signée pour un objet du bucket
// produits, avec expiration
func GenerateSignedURL(ctx context.Context, objectPath string, duration time.Duration) (string, error) {
	if database.MinIO == nil {
		return "", errors.New("MinIO non initialisé")
	}

	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "nexicart-images"
	}

	// Accepte l'URL relative /uploads/... ou la clé brute
	key := strings.TrimPrefix(objectPath, "/uploads/")

	presignedURL, err := database.MinIO.PresignedGetObject(ctx, bucket, key, duration, url.Values{})
	if err != nil {
		return "", err
	}

	return presignedURL.String(), nil
}
