package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormProductRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p := seedProduct(t, db, "linen-shirt", 4, 6)
	p.AddImage("https://cdn.example.com/linen.jpg")
	require.NoError(t, repo.Save(ctx, p))

	found, err := repo.FindBySlug(ctx, "linen-shirt")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)
	assert.Equal(t, []string{"https://cdn.example.com/linen.jpg"}, found.Images)
	require.Len(t, found.Variants, 2)
	assert.Equal(t, "LINEN-SHIRT-A", found.Variants[0].SKU)
	assert.Equal(t, 4, found.Variants[0].Stock)

	bySKU, err := repo.FindBySKU(ctx, "linen-shirt-b")
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySKU.ID)

	_, err = repo.FindBySKU(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProductRepository_SaveKeepsStock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	stock := NewGormStockRepository(db)
	ctx := context.Background()

	p := seedProduct(t, db, "wool-hat", 5)
	require.NoError(t, stock.Decrease(ctx, p.Variants[0].ID, 2))

	// p still holds the stale stock value of 5
	require.NoError(t, p.Variants[0].Update("wool-hat-a", "Large", decimal.NewFromInt(12)))
	require.NoError(t, repo.Save(ctx, p))

	v, err := repo.FindVariant(ctx, p.Variants[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Stock)
	assert.Equal(t, "Large", v.Name)
	assert.True(t, v.Price.Equal(decimal.NewFromInt(12)))
}

func TestGormProductRepository_SaveRemovesVariants(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	orders := NewGormOrderRepository(db)
	ctx := context.Background()

	p := seedProduct(t, db, "poster", 5, 5)
	removed := p.Variants[1]
	o := seedOrder(t, db, nil, removed, 1)

	require.NoError(t, p.RemoveVariant(removed.ID))
	require.NoError(t, repo.Save(ctx, p))

	_, err := repo.FindVariant(ctx, removed.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	stored, err := orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Nil(t, stored.Items[0].VariantID)
	assert.Equal(t, removed.SKU, stored.Items[0].SKU)
}

func TestGormProductRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	categories := NewGormCategoryRepository(db)
	ctx := context.Background()

	shoes, err := catalog.NewCategory("Shoes", "")
	require.NoError(t, err)
	require.NoError(t, categories.Save(ctx, shoes))

	sneaker := seedProduct(t, db, "canvas-sneaker", 1)
	sneaker.SetCategory(&shoes.ID)
	require.NoError(t, sneaker.Publish())
	require.NoError(t, repo.Save(ctx, sneaker))
	seedProduct(t, db, "canvas-bag", 1)

	active := catalog.ProductStatusActive
	items, total, err := repo.List(ctx, catalog.ProductFilter{Status: &active})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Len(t, items[0].Variants, 1)

	_, total, err = repo.List(ctx, catalog.ProductFilter{CategorySlug: "shoes"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = repo.List(ctx, catalog.ProductFilter{Filter: shared.Filter{Search: "CANVAS"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestGormProductRepository_FindProductsByVariants(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	a := seedProduct(t, db, "pen", 1, 1)
	b := seedProduct(t, db, "ink", 1)

	byVariant, err := repo.FindProductsByVariants(ctx, []uuid.UUID{a.Variants[1].ID, b.Variants[0].ID})
	require.NoError(t, err)
	assert.Len(t, byVariant, 2)
	assert.Equal(t, a.ID, byVariant[a.Variants[1].ID].ID)
	assert.Equal(t, b.ID, byVariant[b.Variants[0].ID].ID)

	variants, err := repo.FindVariants(ctx, []uuid.UUID{a.Variants[0].ID})
	require.NoError(t, err)
	assert.Len(t, variants, 1)
}

func TestGormProductRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p := seedProduct(t, db, "vase", 2)
	o := seedOrder(t, db, nil, p.Variants[0], 1)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err := repo.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	stored, err := NewGormOrderRepository(db).FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Items[0].VariantID)

	assert.ErrorIs(t, repo.Delete(ctx, p.ID), shared.ErrNotFound)
}

func TestGormCategoryRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCategoryRepository(db)
	products := NewGormProductRepository(db)
	ctx := context.Background()

	parent, err := catalog.NewCategory("Home", "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, parent))
	child, err := catalog.NewCategory("Kitchen", "")
	require.NoError(t, err)
	require.NoError(t, child.SetParent(&parent.ID))
	require.NoError(t, repo.Save(ctx, child))

	p := seedProduct(t, db, "kettle", 1)
	p.SetCategory(&parent.ID)
	require.NoError(t, products.Save(ctx, p))

	require.NoError(t, repo.Delete(ctx, parent.ID))

	stored, err := products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CategoryID)

	orphaned, err := repo.FindBySlug(ctx, "kitchen")
	require.NoError(t, err)
	assert.Nil(t, orphaned.ParentID)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
