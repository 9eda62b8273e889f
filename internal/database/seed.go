package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/jinsharnam/internal/models"
)

const bookDescription = "An introduction to Jain dharma and principles."

var catalogSeed = []models.Product{
	{SKU: "BOOK-001", Title: "Bottle Ka Tufan", Description: bookDescription, PriceCents: 29900, ImageURL: "/images/Products/Books/01-Bottle-ka-tufan.jpg"},
	{SKU: "BOOK-002", Title: "Haaye Budhapa", Description: bookDescription, PriceCents: 29900, ImageURL: "/images/Products/Books/02-haay-bhudapa.jpg"},
	{SKU: "BOOK-003", Title: "Gar Bhai Na Hota", Description: bookDescription, PriceCents: 29900, ImageURL: "/images/Products/Books/03-gar-bhai-na-hota.jpg"},
	{SKU: "BOOK-004", Title: "Kanya Daan", Description: bookDescription, PriceCents: 29900, ImageURL: "/images/Products/Books/04-kanya-daan.jpg"},
	{SKU: "BOOK-005", Title: "Prem Jivan Ka Mahamantra", Description: bookDescription, PriceCents: 29900, ImageURL: "/images/Products/Books/05-Prem-Jivan-ka-mhamantra.jpg"},
	{SKU: "BOOK-006", Title: "Aatmahatya", Description: bookDescription, PriceCents: 29900, ImageURL: "/images/Products/Books/06-aatmhatya.jpg"},
	{SKU: "BOOK-007", Title: "Bhookh", Description: bookDescription, PriceCents: 29900, ImageURL: "/images/Products/Books/07-bhookh.jpg"},
	{SKU: "BOOK-008", Title: "Zindagi Ka Naam Dosti", Description: bookDescription, PriceCents: 29900, ImageURL: "/images/Products/Books/08-jindgi-ka-naam-dosti.jpg"},
	{SKU: "BOOK-009", Title: "Lohe Ki Deewar", Description: bookDescription, PriceCents: 29900, ImageURL: "/images/Products/Books/09-lohe-ki-divar.jpg"},
	{SKU: "BOOK-010", Title: "Mithi Vani", Description: bookDescription, PriceCents: 29900, ImageURL: "/images/Products/Books/10-mithi-vani.jpg"},
	{SKU: "BOOK-011", Title: "Samasya", Description: bookDescription, PriceCents: 29900, ImageURL: "/images/Products/Books/11-samasya.jpg"},
	{SKU: "BOOK-012", Title: "Meri Nazro Me Azadi", Description: bookDescription, PriceCents: 29900, ImageURL: "/images/Products/Books/12-meri-mazro-m-azadi.jpg"},
	{SKU: "BOOK-013", Title: "Sant Sadhana", Description: bookDescription, PriceCents: 29900, ImageURL: "/images/Products/Books/13-sant-sadhu.jpg"},
	{SKU: "CAL-001", Title: "Pulak Sagar Ji Divine Wallpaper", Description: "Pulak Sagar Ji Spiritual and Divine Wallpaper", PriceCents: 19900, ImageURL: "/images/Products/Wallpapers/1.jpeg"},
	{SKU: "POST-001", Title: "Pulak Sagar Ji Thoughts", Description: "A serene artwork perfect for home or meditation space.", PriceCents: 14900, ImageURL: "/images/Products/Thoughts/20.jpg"},
}

// SeedCatalog inserts the store catalog. Existing SKUs are updated in place,
// so running it twice is safe.
func SeedCatalog(conn *gorm.DB) (int, error) {
	products := make([]models.Product, len(catalogSeed))
	copy(products, catalogSeed)
	for i := range products {
		products[i].Active = true
	}

	err := conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sku"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "price_cents", "image_url", "active", "updated_at"}),
	}).Create(&products).Error
	if err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}
	return len(products), nil
}
