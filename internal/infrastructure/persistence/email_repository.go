package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/notification"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormEmailRepository implements notification.Repository on the email_messages outbox
type GormEmailRepository struct {
	db *gorm.DB
}

// NewGormEmailRepository creates a new GormEmailRepository
func NewGormEmailRepository(db *gorm.DB) *GormEmailRepository {
	return &GormEmailRepository{db: db}
}

// FindByID finds a message by its ID
func (r *GormEmailRepository) FindByID(ctx context.Context, id uuid.UUID) (*notification.Message, error) {
	var m models.EmailMessageModel
	if err := conn(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// List returns a page of messages, optionally restricted to one status
func (r *GormEmailRepository) List(ctx context.Context, status *notification.Status, filter shared.Filter) ([]notification.Message, int64, error) {
	query := conn(ctx, r.db).Model(&models.EmailMessageModel{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.EmailMessageModel
	if err := paginate(query, filter, EmailSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toMessages(rows), total, nil
}

// Save creates or updates a message
func (r *GormEmailRepository) Save(ctx context.Context, msg *notification.Message) error {
	return translateError(conn(ctx, r.db).Save(models.EmailMessageModelFromDomain(msg)).Error)
}

// FindDue returns PENDING or FAILED messages whose next attempt is due, oldest first
func (r *GormEmailRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]notification.Message, error) {
	var rows []models.EmailMessageModel
	if err := conn(ctx, r.db).
		Where("status IN ? AND next_attempt_at <= ?",
			[]notification.Status{notification.StatusPending, notification.StatusFailed}, now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toMessages(rows), nil
}

func toMessages(rows []models.EmailMessageModel) []notification.Message {
	messages := make([]notification.Message, 0, len(rows))
	for i := range rows {
		messages = append(messages, *rows[i].ToDomain())
	}
	return messages
}

var _ notification.Repository = (*GormEmailRepository)(nil)
