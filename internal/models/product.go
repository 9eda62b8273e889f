package models

// Product is a store catalog entry. PriceCents is the only trusted price.
type Product struct {
	BaseModel
	SKU         string `gorm:"uniqueIndex" json:"sku"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	ImageURL    string `json:"image_url"`
	Active      bool   `gorm:"index" json:"active"`
}
