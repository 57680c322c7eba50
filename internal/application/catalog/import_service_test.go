package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/tests/testutil"
)

const importFile = `
categories:
  - name: Apparel
  - name: Shirts
    parent: apparel
products:
  - name: Linen Shirt
    category: shirts
    publish: true
    variants:
      - sku: SHIRT-M
        price: "26.00"
        stock: 4
      - sku: SHIRT-L
        price: "27.00"
        stock: 2
`

type importFixture struct {
	products   *testutil.MockProductRepository
	categories *testutil.MockCategoryRepository
	stock      *testutil.MockStockRepository
	tx         *testutil.FakeTxManager
	events     *testutil.RecordingPublisher
	svc        *ImportService
}

func newImportFixture() *importFixture {
	f := &importFixture{
		products:   new(testutil.MockProductRepository),
		categories: new(testutil.MockCategoryRepository),
		stock:      new(testutil.MockStockRepository),
		tx:         &testutil.FakeTxManager{},
		events:     testutil.NewRecordingPublisher(),
	}
	f.svc = NewImportService(f.products, f.categories, f.stock, f.tx, f.events, nil)
	return f
}

func TestImportService_Import_CreatesAndUpdates(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture()

	apparel, _ := catalog.NewCategory("Apparel", "")
	existing := newTestProduct(t)
	mediumID := existing.Variants[0].ID

	f.categories.On("FindBySlug", ctx, "apparel").Return(apparel, nil)
	f.categories.On("FindBySlug", ctx, "shirts").Return(nil, shared.ErrNotFound)
	f.categories.On("Save", ctx, mock.AnythingOfType("*catalog.Category")).Return(nil)
	f.products.On("FindBySlug", ctx, "linen-shirt").Return(existing, nil)
	f.products.On("FindBySKU", ctx, "SHIRT-L").Return(nil, shared.ErrNotFound)
	f.products.On("Save", ctx, existing).Return(nil)
	f.stock.On("Adjust", ctx, mediumID, -6).Return(4, nil)

	result, err := f.svc.Import(ctx, strings.NewReader(importFile), false)
	require.NoError(t, err)

	assert.Equal(t, 1, f.tx.Calls)
	assert.Equal(t, 1, result.CategoriesCreated)
	assert.Equal(t, 1, result.CategoriesUpdated)
	assert.Equal(t, 0, result.ProductsCreated)
	assert.Equal(t, 1, result.ProductsUpdated)
	assert.Equal(t, 1, result.VariantsCreated)
	assert.Equal(t, 1, result.VariantsUpdated)
	assert.Equal(t, 1, result.StockAdjusted)

	assert.Equal(t, catalog.ProductStatusActive, existing.Status)
	require.NotNil(t, existing.CategoryID)
	require.Len(t, existing.Variants, 2)
	assert.True(t, decimal.RequireFromString("26").Equal(existing.Variants[0].Price))
	assert.Equal(t, "SHIRT-L", existing.Variants[1].SKU)
	assert.Equal(t, 2, existing.Variants[1].Stock)
	assert.Equal(t, []string{catalog.EventTypeProductPublished}, f.events.Types())

	f.stock.AssertExpectations(t)
	f.categories.AssertNumberOfCalls(t, "Save", 3)
}

func TestImportService_Import_DryRun(t *testing.T) {
	f := newImportFixture()

	result, err := f.svc.Import(context.Background(), strings.NewReader(importFile), true)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Zero(t, f.tx.Calls)
	f.products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestImportService_Import_InvalidFile(t *testing.T) {
	f := newImportFixture()

	_, err := f.svc.Import(context.Background(), strings.NewReader("products:\n  - slug: x\n"), false)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Zero(t, f.tx.Calls)
}

func TestImportService_Import_SKUOwnedByOtherProduct(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture()
	other := newTestProduct(t)
	other.Slug = "other"

	f.products.On("FindBySlug", ctx, "tote").Return(nil, shared.ErrNotFound)
	f.products.On("FindBySKU", ctx, "SHIRT-M").Return(other, nil)

	file := "products:\n  - name: Tote\n    variants:\n      - sku: SHIRT-M\n        price: \"1\"\n"
	_, err := f.svc.Import(ctx, strings.NewReader(file), false)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	assert.Empty(t, f.events.Events())
}

func TestImportService_Import_UnknownCategory(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture()

	f.products.On("FindBySlug", ctx, "tote").Return(nil, shared.ErrNotFound)
	f.categories.On("FindBySlug", ctx, "bags").Return(nil, shared.ErrNotFound)

	file := "products:\n  - name: Tote\n    category: bags\n"
	_, err := f.svc.Import(ctx, strings.NewReader(file), false)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
