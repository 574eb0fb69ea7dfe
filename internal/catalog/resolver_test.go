package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *mocks.MockCatalog {
	now := time.Now()
	return mocks.NewMockCatalog(
		&store.Product{ID: "prod-a", Name: "Widget", UnitPrice: 1200, Currency: "usd", Active: true, CreatedAt: now},
		&store.Product{ID: "prod-b", Name: "Gadget", UnitPrice: 500, Currency: "usd", Active: true, CreatedAt: now},
		&store.Product{ID: "prod-ebook", Name: "E-Book", UnitPrice: 900, Currency: "usd", Active: true, Digital: true, CreatedAt: now},
		&store.Product{ID: "prod-gone", Name: "Retired", UnitPrice: 100, Currency: "usd", Active: false, CreatedAt: now},
		&store.Product{ID: "prod-eur", Name: "Import", UnitPrice: 800, Currency: "eur", Active: true, CreatedAt: now},
	)
}

func TestResolve_UsesAuthoritativePrices(t *testing.T) {
	r := NewResolver(testCatalog())

	snap, err := r.Resolve(context.Background(), []LineInput{
		{ProductID: "prod-a", Quantity: 2},
		{ProductID: "prod-b", Quantity: 1},
	})
	require.NoError(t, err)

	require.Len(t, snap.Items, 2)
	assert.Equal(t, int64(2400), snap.Items[0].LineTotal)
	assert.Equal(t, int64(500), snap.Items[1].LineTotal)
	assert.Equal(t, int64(2900), snap.Total)
	assert.Equal(t, "usd", snap.Currency)
	assert.True(t, snap.RequiresShipping)
	assert.False(t, snap.TakenAt.IsZero())
}

func TestResolve_DigitalOnlySkipsShipping(t *testing.T) {
	r := NewResolver(testCatalog())

	snap, err := r.Resolve(context.Background(), []LineInput{
		{ProductID: "prod-ebook", Quantity: 1},
	})
	require.NoError(t, err)
	assert.False(t, snap.RequiresShipping)
}

func TestResolve_UnknownProductFailsWhole(t *testing.T) {
	r := NewResolver(testCatalog())

	snap, err := r.Resolve(context.Background(), []LineInput{
		{ProductID: "prod-a", Quantity: 1},
		{ProductID: "prod-missing", Quantity: 1},
	})
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, ErrProductNotFound)

	var itemErr *ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, "prod-missing", itemErr.ProductID)
}

func TestResolve_InactiveProduct(t *testing.T) {
	r := NewResolver(testCatalog())

	snap, err := r.Resolve(context.Background(), []LineInput{
		{ProductID: "prod-gone", Quantity: 1},
	})
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, ErrProductInactive)
}

func TestResolve_InvalidQuantity(t *testing.T) {
	r := NewResolver(testCatalog())

	snap, err := r.Resolve(context.Background(), []LineInput{
		{ProductID: "prod-a", Quantity: 0},
	})
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestResolve_CurrencyMismatch(t *testing.T) {
	r := NewResolver(testCatalog())

	snap, err := r.Resolve(context.Background(), []LineInput{
		{ProductID: "prod-a", Quantity: 1},
		{ProductID: "prod-eur", Quantity: 1},
	})
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}
