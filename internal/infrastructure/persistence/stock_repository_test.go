package persistence

import (
	"context"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStockRepository_Decrease(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormStockRepository(db)
	products := NewGormProductRepository(db)
	ctx := context.Background()

	p := seedProduct(t, db, "tee", 3)
	variantID := p.Variants[0].ID

	t.Run("decreases available stock", func(t *testing.T) {
		require.NoError(t, repo.Decrease(ctx, variantID, 2))
		v, err := products.FindVariant(ctx, variantID)
		require.NoError(t, err)
		assert.Equal(t, 1, v.Stock)
	})

	t.Run("refuses to oversell", func(t *testing.T) {
		err := repo.Decrease(ctx, variantID, 2)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		v, err := products.FindVariant(ctx, variantID)
		require.NoError(t, err)
		assert.Equal(t, 1, v.Stock)
	})

	t.Run("unknown variant", func(t *testing.T) {
		assert.ErrorIs(t, repo.Decrease(ctx, uuid.New(), 1), shared.ErrNotFound)
	})

	t.Run("rejects non positive quantity", func(t *testing.T) {
		assert.ErrorIs(t, repo.Decrease(ctx, variantID, 0), shared.ErrInvalidInput)
	})
}

func TestGormStockRepository_Decrease_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormStockRepository(db)
	ctx := context.Background()

	p := seedProduct(t, db, "mug", 5)
	variantID := p.Variants[0].ID

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Decrease(ctx, variantID, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	v, err := NewGormProductRepository(db).FindVariant(ctx, variantID)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Stock)
}

func TestGormStockRepository_RestoreAndAdjust(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormStockRepository(db)
	ctx := context.Background()

	p := seedProduct(t, db, "cap", 2)
	variantID := p.Variants[0].ID

	require.NoError(t, repo.Restore(ctx, variantID, 3))
	assert.ErrorIs(t, repo.Restore(ctx, uuid.New(), 1), shared.ErrNotFound)

	stock, err := repo.Adjust(ctx, variantID, -4)
	require.NoError(t, err)
	assert.Equal(t, 1, stock)

	_, err = repo.Adjust(ctx, variantID, -2)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	stock, err = repo.Adjust(ctx, variantID, 10)
	require.NoError(t, err)
	assert.Equal(t, 11, stock)
}

func TestGormStockRepository_Decrease_SQL(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	mock := mockDB.Mock
	repo := NewGormStockRepository(mockDB.DB)

	variantID := uuid.New()

	t.Run("guards the update with the requested quantity", func(t *testing.T) {
		mock.ExpectExec(`UPDATE "variants" SET "stock"=stock - \$1,"updated_at"=\$2 WHERE id = \$3 AND stock >= \$4`).
			WithArgs(2, sqlmock.AnyArg(), variantID, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Decrease(context.Background(), variantID, 2))
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("no row updated on existing variant means shortage", func(t *testing.T) {
		mock.ExpectExec(`UPDATE "variants" SET .* WHERE id = \$3 AND stock >= \$4`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "variants" WHERE id = \$1`).
			WithArgs(variantID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := repo.Decrease(context.Background(), variantID, 5)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		mockDB.ExpectationsWereMet(t)
	})
}
