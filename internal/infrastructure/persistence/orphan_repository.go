package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrphanRepository implements payment.OrphanRepository using GORM
type GormOrphanRepository struct {
	db *gorm.DB
}

// NewGormOrphanRepository creates a new GormOrphanRepository
func NewGormOrphanRepository(db *gorm.DB) *GormOrphanRepository {
	return &GormOrphanRepository{db: db}
}

// FindByID finds an orphan payment by its ID
func (r *GormOrphanRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.OrphanPayment, error) {
	var m models.OrphanPaymentModel
	if err := conn(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByIntent finds the orphan recorded for a payment intent
func (r *GormOrphanRepository) FindByIntent(ctx context.Context, intentID string) (*payment.OrphanPayment, error) {
	var m models.OrphanPaymentModel
	if err := conn(ctx, r.db).First(&m, "payment_intent_id = ?", intentID).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// List returns a page of orphans, optionally restricted to one status
func (r *GormOrphanRepository) List(ctx context.Context, status *payment.OrphanStatus, filter shared.Filter) ([]payment.OrphanPayment, int64, error) {
	query := conn(ctx, r.db).Model(&models.OrphanPaymentModel{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.OrphanPaymentModel
	if err := paginate(query, filter, OrphanSortFields, "detected_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	orphans := make([]payment.OrphanPayment, 0, len(rows))
	for i := range rows {
		orphans = append(orphans, *rows[i].ToDomain())
	}
	return orphans, total, nil
}

// Upsert inserts the orphan unless the intent is already recorded, in which
// case the stored row is returned untouched
func (r *GormOrphanRepository) Upsert(ctx context.Context, orphan *payment.OrphanPayment) (*payment.OrphanPayment, bool, error) {
	db := conn(ctx, r.db)
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "payment_intent_id"}},
		DoNothing: true,
	}).Create(models.OrphanPaymentModelFromDomain(orphan))
	if result.Error != nil {
		return nil, false, translateError(result.Error)
	}
	if result.RowsAffected == 1 {
		return orphan, true, nil
	}

	existing, err := r.FindByIntent(ctx, orphan.PaymentIntentID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Save updates an orphan payment
func (r *GormOrphanRepository) Save(ctx context.Context, orphan *payment.OrphanPayment) error {
	return translateError(conn(ctx, r.db).Save(models.OrphanPaymentModelFromDomain(orphan)).Error)
}

// FindDue returns DETECTED orphans detected before cutoff, oldest first
func (r *GormOrphanRepository) FindDue(ctx context.Context, cutoff time.Time, limit int) ([]payment.OrphanPayment, error) {
	var rows []models.OrphanPaymentModel
	if err := conn(ctx, r.db).
		Where("status = ? AND detected_at <= ?", payment.OrphanStatusDetected, cutoff).
		Order("detected_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	orphans := make([]payment.OrphanPayment, 0, len(rows))
	for i := range rows {
		orphans = append(orphans, *rows[i].ToDomain())
	}
	return orphans, nil
}

var _ payment.OrphanRepository = (*GormOrphanRepository)(nil)
