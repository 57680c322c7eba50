package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sku ASC")
	})
}

func (r *GormOrderRepository) findOne(ctx context.Context, query string, args ...any) (*order.Order, error) {
	var m models.OrderModel
	if err := preloadItems(conn(ctx, r.db)).Where(query, args...).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByNumber finds an order by its public number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, number string) (*order.Order, error) {
	return r.findOne(ctx, "number = ?", strings.ToUpper(strings.TrimSpace(number)))
}

// FindByPaymentIntent finds the order a payment intent was created for
func (r *GormOrderRepository) FindByPaymentIntent(ctx context.Context, intentID string) (*order.Order, error) {
	if intentID == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, "payment_intent_id = ?", intentID)
}

// List returns a page of orders matching the filter
func (r *GormOrderRepository) List(ctx context.Context, filter order.Filter) ([]order.Order, int64, error) {
	query := conn(ctx, r.db).Model(&models.OrderModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Email != "" {
		query = query.Where("email = ?", strings.ToLower(strings.TrimSpace(filter.Email)))
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	if strings.TrimSpace(filter.Search) != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(number) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.OrderModel
	if err := preloadItems(paginate(query, filter.Filter, OrderSortFields, "created_at")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]order.Order, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].ToDomain())
	}
	return orders, total, nil
}

// Save creates or fully rewrites an order and its lines
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	m := models.OrderModelFromDomain(o)
	err := inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(m).Error; err != nil {
			return err
		}
		return saveOrderItems(tx, o.ID, m.Items)
	})
	return translateError(err)
}

func saveOrderItems(tx *gorm.DB, orderID uuid.UUID, items []models.OrderItemModel) error {
	keep := make([]uuid.UUID, 0, len(items))
	for i := range items {
		if err := tx.Save(&items[i]).Error; err != nil {
			return err
		}
		keep = append(keep, items[i].ID)
	}
	stale := tx.Where("order_id = ?", orderID)
	if len(keep) > 0 {
		stale = stale.Where("id NOT IN ?", keep)
	}
	return stale.Delete(&models.OrderItemModel{}).Error
}

// SaveWithLock updates the order only if nobody changed it since it was
// loaded. Returns shared.ErrConcurrentModification otherwise.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	m := models.OrderModelFromDomain(o)
	now := time.Now()
	result := conn(ctx, r.db).Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", o.ID, o.Version).
		Updates(map[string]any{
			"customer_id":        m.CustomerID,
			"email":              m.Email,
			"subtotal":           m.Subtotal,
			"shipping_fee":       m.ShippingFee,
			"total":              m.Total,
			"status":             m.Status,
			"payment_status":     m.PaymentStatus,
			"payment_intent_id":  m.PaymentIntentID,
			"delivery_option_id": m.DeliveryOptionID,
			"paid_at":            m.PaidAt,
			"shipped_at":         m.ShippedAt,
			"delivered_at":       m.DeliveredAt,
			"cancelled_at":       m.CancelledAt,
			"refunded_at":        m.RefundedAt,
			"cancel_reason":      m.CancelReason,
			"refund_id":          m.RefundID,
			"version":            gorm.Expr("version + 1"),
			"updated_at":         now,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification.Withf("order %s was modified concurrently", o.Number)
	}
	o.IncrementVersion()
	o.UpdatedAt = now
	return nil
}

// FindStalePending returns unpaid pending orders created before cutoff
func (r *GormOrderRepository) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]order.Order, error) {
	var rows []models.OrderModel
	if err := preloadItems(conn(ctx, r.db)).
		Where("status = ? AND payment_status <> ? AND created_at < ?", order.StatusPending, order.PaymentStatusPaid, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	orders := make([]order.Order, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].ToDomain())
	}
	return orders, nil
}

// FindPaidIntentsSince maps the payment intents of orders paid since the given
// time to their order IDs
func (r *GormOrderRepository) FindPaidIntentsSince(ctx context.Context, since time.Time) (map[string]uuid.UUID, error) {
	type row struct {
		ID              uuid.UUID
		PaymentIntentID string
	}
	var rows []row
	if err := conn(ctx, r.db).Model(&models.OrderModel{}).
		Select("id, payment_intent_id").
		Where("payment_intent_id IS NOT NULL AND paid_at >= ?", since).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[string]uuid.UUID, len(rows))
	for _, r := range rows {
		result[r.PaymentIntentID] = r.ID
	}
	return result, nil
}

var _ order.Repository = (*GormOrderRepository)(nil)
