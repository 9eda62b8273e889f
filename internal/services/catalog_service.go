package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/jinsharnam/internal/models"
)

// CartLine is one client-submitted cart entry. Any price the client sends is ignored.
type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PricedLine is a cart line priced from the catalog.
type PricedLine struct {
	Product    models.Product `json:"product"`
	Quantity   int            `json:"quantity"`
	PriceCents int64          `json:"price_cents"`
}

// LineTotal returns price times quantity.
func (l PricedLine) LineTotal() int64 {
	return l.PriceCents * int64(l.Quantity)
}

// PricedCart is a cart repriced on the server.
type PricedCart struct {
	Lines      []PricedLine `json:"lines"`
	TotalCents int64        `json:"total_cents"`
}

// CatalogService gives read-only access to products.
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListActive returns active products ordered by title.
func (s *CatalogService) ListActive(ctx context.Context, limit, offset int) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{}).Where("active = ?", true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	if err := query.Order("title asc").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Get returns an active product by id.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrProductNotFound
	}

	var product models.Product
	if err := s.db.WithContext(ctx).Where("id = ? AND active = ?", productID, true).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// PriceCart looks every line up in the catalog and computes the total.
func (s *CatalogService) PriceCart(ctx context.Context, lines []CartLine) (*PricedCart, error) {
	return priceCart(s.db.WithContext(ctx), lines)
}

// priceCart runs against db so order creation can price inside its transaction.
func priceCart(db *gorm.DB, lines []CartLine) (*PricedCart, error) {
	parsed, ids, err := parseCart(lines)
	if err != nil {
		return nil, err
	}

	var products []models.Product
	if err := db.Where("id IN ? AND active = ?", ids, true).Find(&products).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	cart := &PricedCart{Lines: make([]PricedLine, 0, len(lines))}
	for i, line := range lines {
		product, ok := byID[parsed[i]]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidProduct, line.ProductID)
		}
		priced := PricedLine{Product: product, Quantity: line.Quantity, PriceCents: product.PriceCents}
		cart.Lines = append(cart.Lines, priced)
		cart.TotalCents += priced.LineTotal()
	}

	return cart, nil
}

// parseCart checks the cart shape without touching the store. It returns the
// product id of every line and the distinct ids.
func parseCart(lines []CartLine) (parsed, ids []uuid.UUID, err error) {
	if len(lines) == 0 {
		return nil, nil, ErrEmptyCart
	}

	parsed = make([]uuid.UUID, len(lines))
	ids = make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for i, line := range lines {
		if line.Quantity < 1 {
			return nil, nil, ErrInvalidQuantity
		}
		id, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrInvalidProduct, line.ProductID)
		}
		parsed[i] = id
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return parsed, ids, nil
}
