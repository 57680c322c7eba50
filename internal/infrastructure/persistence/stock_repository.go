package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockRepository implements catalog.StockRepository with conditional
// UPDATEs so concurrent checkouts can never drive stock below zero.
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// Decrease removes qty units if at least qty are available
func (r *GormStockRepository) Decrease(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return shared.ErrInvalidInput.Withf("quantity must be positive")
	}
	db := conn(ctx, r.db)
	result := db.Model(&models.VariantModel{}).
		Where("id = ? AND stock >= ?", variantID, qty).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missOrShortage(db, variantID)
	}
	return nil
}

// Restore adds qty units back
func (r *GormStockRepository) Restore(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return shared.ErrInvalidInput.Withf("quantity must be positive")
	}
	result := conn(ctx, r.db).Model(&models.VariantModel{}).
		Where("id = ?", variantID).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock + ?", qty),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.Withf("variant %s not found", variantID)
	}
	return nil
}

// Adjust applies a signed delta and returns the resulting stock
func (r *GormStockRepository) Adjust(ctx context.Context, variantID uuid.UUID, delta int) (int, error) {
	db := conn(ctx, r.db)
	query := db.Model(&models.VariantModel{}).Where("id = ?", variantID)
	if delta < 0 {
		query = query.Where("stock >= ?", -delta)
	}
	result := query.Updates(map[string]any{
		"stock":      gorm.Expr("stock + ?", delta),
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, r.missOrShortage(db, variantID)
	}

	var stock int
	if err := db.Model(&models.VariantModel{}).Where("id = ?", variantID).Select("stock").Scan(&stock).Error; err != nil {
		return 0, err
	}
	return stock, nil
}

func (r *GormStockRepository) missOrShortage(db *gorm.DB, variantID uuid.UUID) error {
	var count int64
	if err := db.Model(&models.VariantModel{}).Where("id = ?", variantID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound.Withf("variant %s not found", variantID)
	}
	return shared.ErrInsufficientStock.Withf("not enough stock for variant %s", variantID)
}

var _ catalog.StockRepository = (*GormStockRepository)(nil)
