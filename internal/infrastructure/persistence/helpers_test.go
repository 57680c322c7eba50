package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), newGormConfig(gormlogger.Discard))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func testAddress() shared.Address {
	return shared.Address{
		Name:       "Grace Hopper",
		Line1:      "1 Navy Yard",
		City:       "Arlington",
		PostalCode: "22202",
		Country:    "US",
	}
}

// seedProduct stores an active product with one variant per stock level
func seedProduct(t *testing.T, db *gorm.DB, slug string, stocks ...int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("Product "+slug, slug, "")
	require.NoError(t, err)
	for i, stock := range stocks {
		_, err := p.AddVariant(slug+"-"+string(rune('A'+i)), "Variant", decimal.NewFromInt(10), stock)
		require.NoError(t, err)
	}
	require.NoError(t, NewGormProductRepository(db).Save(context.Background(), p))
	return p
}

// seedOrder stores a pending order with a single line for variant
func seedOrder(t *testing.T, db *gorm.DB, customerID *uuid.UUID, variant catalog.Variant, qty int) *order.Order {
	t.Helper()
	o, err := order.NewOrder("grace@example.com", customerID, testAddress(), "USD")
	require.NoError(t, err)
	require.NoError(t, o.AddItem(variant.ID, variant.SKU, variant.Name, variant.Price, qty))
	require.NoError(t, NewGormOrderRepository(db).Save(context.Background(), o))
	return o
}
