package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domaincart "github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/tests/testutil"
)

type fixture struct {
	products *testutil.MockProductRepository
	store    *cache.InMemoryCartStore
	svc      *CartService
	shirt    *catalog.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	shirt, err := catalog.NewProduct("Linen Shirt", "", "")
	require.NoError(t, err)
	_, err = shirt.AddVariant("SHIRT-M", "Medium", decimal.RequireFromString("25.00"), 3)
	require.NoError(t, err)
	_, err = shirt.AddVariant("SHIRT-L", "Large", decimal.RequireFromString("27.00"), 0)
	require.NoError(t, err)
	require.NoError(t, shirt.Publish())

	f := &fixture{
		products: new(testutil.MockProductRepository),
		store:    cache.NewInMemoryCartStore(),
		shirt:    shirt,
	}
	t.Cleanup(func() { _ = f.store.Close() })
	f.svc = NewCartService(f.store, NewPricer(f.products), "USD", time.Hour)

	f.products.On("FindProductsByVariants", mock.Anything, mock.Anything).Return(map[uuid.UUID]*catalog.Product{
		shirt.Variants[0].ID: shirt,
		shirt.Variants[1].ID: shirt,
	}, nil)
	return f
}

func (f *fixture) medium() uuid.UUID { return f.shirt.Variants[0].ID }
func (f *fixture) large() uuid.UUID  { return f.shirt.Variants[1].ID }

func TestCartService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx)
	require.NoError(t, err)
	assert.Empty(t, created.Items)
	assert.False(t, created.CanCheckout)
	assert.True(t, created.Subtotal.IsZero())
	assert.Equal(t, "USD", created.Currency)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = f.svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCartService_SetItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.svc.Create(ctx)
	require.NoError(t, err)

	resp, err := f.svc.SetItem(ctx, c.ID, SetItemRequest{VariantID: f.medium(), Quantity: 2})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	line := resp.Items[0]
	assert.Equal(t, "SHIRT-M", line.SKU)
	assert.Equal(t, "Linen Shirt", line.ProductName)
	assert.True(t, decimal.RequireFromString("25").Equal(line.UnitPrice))
	assert.True(t, decimal.RequireFromString("50").Equal(line.LineTotal))
	assert.True(t, line.Available)
	assert.True(t, resp.CanCheckout)
	assert.True(t, decimal.RequireFromString("50").Equal(resp.Subtotal))

	resp, err = f.svc.SetItem(ctx, c.ID, SetItemRequest{VariantID: f.medium(), Quantity: 5})
	require.NoError(t, err)
	assert.False(t, resp.Items[0].Available)
	assert.Equal(t, ReasonNotEnoughLeft, resp.Items[0].Reason)
	assert.False(t, resp.CanCheckout)
	assert.True(t, resp.Subtotal.IsZero())

	resp, err = f.svc.SetItem(ctx, c.ID, SetItemRequest{VariantID: f.medium(), Quantity: 0})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestCartService_SetItem_Unavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.svc.Create(ctx)
	require.NoError(t, err)

	resp, err := f.svc.SetItem(ctx, c.ID, SetItemRequest{VariantID: f.large(), Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, ReasonOutOfStock, resp.Items[0].Reason)

	f.shirt.Variants[0].SetActive(false)
	resp, err = f.svc.SetItem(ctx, c.ID, SetItemRequest{VariantID: f.medium(), Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, ReasonNotForSale, resp.Items[1].Reason)
	assert.Equal(t, 2, resp.ItemCount)
}

func TestCartService_SetItem_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.svc.Create(ctx)
	require.NoError(t, err)

	_, err = f.svc.SetItem(ctx, c.ID, SetItemRequest{VariantID: uuid.New(), Quantity: 1})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.svc.SetItem(ctx, c.ID, SetItemRequest{VariantID: f.medium(), Quantity: 100})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = f.svc.SetItem(ctx, uuid.New(), SetItemRequest{VariantID: f.medium(), Quantity: 1})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCartService_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.svc.Create(ctx)
	require.NoError(t, err)
	_, err = f.svc.SetItem(ctx, c.ID, SetItemRequest{VariantID: f.medium(), Quantity: 1})
	require.NoError(t, err)

	resp, err := f.svc.RemoveItem(ctx, c.ID, f.medium())
	require.NoError(t, err)
	assert.Empty(t, resp.Items)

	require.NoError(t, f.svc.Clear(ctx, c.ID))
	_, err = f.svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPricer_VariantDeleted(t *testing.T) {
	f := newFixture(t)
	lines, subtotal, err := f.svc.pricer.Price(context.Background(), []domaincart.Item{{VariantID: uuid.New(), Quantity: 1}})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, ReasonNotFound, lines[0].Reason)
	assert.False(t, lines[0].Available)
	assert.True(t, subtotal.IsZero())
}
