package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Product struct {
	ID            gocql.UUID `json:"id" db:"product_id"`
	Name          string     `json:"name" db:"name"`
	Description   string     `json:"description" db:"description"`
	Price         float64    `json:"price" db:"price"`
	DiscountPrice float64    `json:"discount_price" db:"discount_price"`
	Category      string     `json:"category" db:"category"`
	Stock         int        `json:"stock" db:"stock"`
	ImageURLs     []string   `json:"image_urls" db:"image_urls"`
	Rating        float64    `json:"rating" db:"rating"`
	NumReviews    int        `json:"num_reviews" db:"num_reviews"`
	IsFeatured    bool       `json:"is_featured" db:"is_featured"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// Catégories autorisées (ensemble fermé, validé à la création produit)
var Categories = []string{
	"electronics",
	"fashion",
	"home",
	"beauty",
	"sports",
	"books",
	"toys",
	"grocery",
}

func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// EffectivePrice retourne le prix réellement facturé : le prix remisé
// s'il est renseigné et inférieur au prix catalogue
func (p Product) EffectivePrice() float64 {
	if p.DiscountPrice > 0 && p.DiscountPrice < p.Price {
		return p.DiscountPrice
	}
	return p.Price
}

// MainImage retourne la première image du produit (vide si aucune)
func (p Product) MainImage() string {
	if len(p.ImageURLs) > 0 {
		return p.ImageURLs[0]
	}
	return ""
}
