package persistence

import (
	"context"
	"time"

	"github.com/storefront/backend/internal/domain/webhook"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWebhookRepository implements webhook.Repository using GORM
type GormWebhookRepository struct {
	db *gorm.DB
}

// NewGormWebhookRepository creates a new GormWebhookRepository
func NewGormWebhookRepository(db *gorm.DB) *GormWebhookRepository {
	return &GormWebhookRepository{db: db}
}

// Begin inserts the event or claims an existing row for another attempt.
// The unique (provider, event_id) index decides between racing first
// deliveries, the attempts counter between racing redeliveries.
func (r *GormWebhookRepository) Begin(ctx context.Context, event *webhook.Event) (*webhook.Event, bool, error) {
	db := conn(ctx, r.db)
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "event_id"}},
		DoNothing: true,
	}).Create(models.WebhookEventModelFromDomain(event))
	if result.Error != nil {
		return nil, false, translateError(result.Error)
	}
	if result.RowsAffected == 1 {
		return event, false, nil
	}

	stored, err := r.FindByEventID(ctx, event.Provider, event.EventID)
	if err != nil {
		return nil, false, err
	}
	if stored.IsDuplicate(time.Now()) {
		return stored, true, nil
	}

	claimedAttempts := stored.Attempts
	stored.Reopen()
	stored.EventType = event.EventType
	stored.Payload = event.Payload
	claim := db.Model(&models.WebhookEventModel{}).
		Where("id = ? AND attempts = ?", stored.ID, claimedAttempts).
		Updates(map[string]any{
			"status":     stored.Status,
			"attempts":   stored.Attempts,
			"event_type": stored.EventType,
			"payload":    stored.Payload,
			"updated_at": stored.UpdatedAt,
		})
	if claim.Error != nil {
		return nil, false, claim.Error
	}
	if claim.RowsAffected == 0 {
		// another delivery claimed it first
		return stored, true, nil
	}
	return stored, false, nil
}

// Save persists the outcome of processing
func (r *GormWebhookRepository) Save(ctx context.Context, event *webhook.Event) error {
	return translateError(conn(ctx, r.db).Save(models.WebhookEventModelFromDomain(event)).Error)
}

// FindByEventID finds an event by provider and provider event id
func (r *GormWebhookRepository) FindByEventID(ctx context.Context, provider, eventID string) (*webhook.Event, error) {
	var m models.WebhookEventModel
	if err := conn(ctx, r.db).First(&m, "provider = ? AND event_id = ?", provider, eventID).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

var _ webhook.Repository = (*GormWebhookRepository)(nil)
