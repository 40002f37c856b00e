package domain

import "github.com/shopspring/decimal"

// Store identifies a supported e-commerce site.
type Store string

const (
	StoreAmazon          Store = "amazon"
	StoreMercadoLibre    Store = "mercadolibre"
	StoreLiverpool       Store = "liverpool"
	StoreWalmart         Store = "walmart"
	StorePalacioDeHierro Store = "palaciodehierro"
)

type ProductInfo struct {
	URL      string          `json:"url"`
	Store    Store           `json:"store"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	ImageURL string          `json:"imageUrl,omitempty"`
}

type ProductInput struct {
	URL string `json:"url"`
}
