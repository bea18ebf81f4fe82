package models

// HomepageSection : bloc éditorial de la page d'accueil, curé par un admin.
// Stocké en JSON dans Redis sous la clé "homepage:sections".
type HomepageSection struct {
	Key        string   `json:"key"` // ex: "hero", "featured", "new-arrivals"
	Title      string   `json:"title"`
	BannerURL  string   `json:"banner_url,omitempty"`
	ProductIDs []string `json:"product_ids,omitempty"`
	Position   int      `json:"position"`
}
