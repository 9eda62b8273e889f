package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/jinsharnam/internal/testutil"
)

func TestPriceCartUsesCatalogPrices(t *testing.T) {
	db := testutil.NewDB(t)
	catalog := NewCatalogService(db)
	book := testutil.CreateProduct(t, db, "BOOK-001", 29900, true)
	poster := testutil.CreateProduct(t, db, "POST-001", 14900, true)

	cart, err := catalog.PriceCart(context.Background(), []CartLine{
		{ProductID: book.ID.String(), Quantity: 2},
		{ProductID: poster.ID.String(), Quantity: 1},
		{ProductID: book.ID.String(), Quantity: 1},
	})
	require.NoError(t, err)

	require.Len(t, cart.Lines, 3)
	assert.Equal(t, book.ID, cart.Lines[0].Product.ID)
	assert.Equal(t, int64(29900), cart.Lines[0].PriceCents)
	assert.Equal(t, int64(59800), cart.Lines[0].LineTotal())
	assert.Equal(t, poster.ID, cart.Lines[1].Product.ID)
	assert.Equal(t, int64(29900*3+14900), cart.TotalCents)
}

func TestPriceCartRejectsBadLines(t *testing.T) {
	db := testutil.NewDB(t)
	catalog := NewCatalogService(db)
	book := testutil.CreateProduct(t, db, "BOOK-001", 29900, true)
	retired := testutil.CreateProduct(t, db, "BOOK-099", 9900, false)
	ctx := context.Background()

	_, err := catalog.PriceCart(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = catalog.PriceCart(ctx, []CartLine{{ProductID: book.ID.String(), Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = catalog.PriceCart(ctx, []CartLine{{ProductID: "P1", Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = catalog.PriceCart(ctx, []CartLine{{ProductID: uuid.NewString(), Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = catalog.PriceCart(ctx, []CartLine{
		{ProductID: book.ID.String(), Quantity: 1},
		{ProductID: retired.ID.String(), Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestListActiveAndGet(t *testing.T) {
	db := testutil.NewDB(t)
	catalog := NewCatalogService(db)
	ctx := context.Background()
	active := testutil.CreateProduct(t, db, "BOOK-001", 29900, true)
	retired := testutil.CreateProduct(t, db, "BOOK-002", 29900, false)

	products, total, err := catalog.ListActive(ctx, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, products, 1)
	assert.Equal(t, active.ID, products[0].ID)

	got, err := catalog.Get(ctx, active.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "BOOK-001", got.SKU)

	_, err = catalog.Get(ctx, retired.ID.String())
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = catalog.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrProductNotFound)
}
