package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormShipmentRepository implements shipping.Repository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// FindByID finds a shipment by its ID
func (r *GormShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.Shipment, error) {
	var m models.ShipmentModel
	if err := conn(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByTracking finds a shipment by carrier and tracking number. Tracking
// numbers are only unique per carrier.
func (r *GormShipmentRepository) FindByTracking(ctx context.Context, carrier, trackingNumber string) (*shipping.Shipment, error) {
	var m models.ShipmentModel
	err := conn(ctx, r.db).
		Where("carrier = ? AND tracking_number = ?", strings.ToLower(strings.TrimSpace(carrier)), trackingNumber).
		First(&m).Error
	if err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByOrder returns every shipment of an order, oldest first
func (r *GormShipmentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]shipping.Shipment, error) {
	var rows []models.ShipmentModel
	if err := conn(ctx, r.db).Where("order_id = ?", orderID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toShipments(rows), nil
}

// Save creates or updates a shipment
func (r *GormShipmentRepository) Save(ctx context.Context, shipment *shipping.Shipment) error {
	return translateError(conn(ctx, r.db).Save(models.ShipmentModelFromDomain(shipment)).Error)
}

// SaveWithLock updates the shipment guarded by its version
func (r *GormShipmentRepository) SaveWithLock(ctx context.Context, shipment *shipping.Shipment) error {
	now := time.Now()
	result := conn(ctx, r.db).Model(&models.ShipmentModel{}).
		Where("id = ? AND version = ?", shipment.ID, shipment.Version).
		Updates(map[string]any{
			"status":         shipment.Status,
			"status_detail":  shipment.StatusDetail,
			"label_url":      shipment.LabelURL,
			"last_event_at":  shipment.LastEventAt,
			"last_synced_at": shipment.LastSyncedAt,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification.Withf("shipment %s was modified concurrently", shipment.TrackingNumber)
	}
	shipment.IncrementVersion()
	shipment.UpdatedAt = now
	return nil
}

// FindDueForSync returns open shipments not polled since cutoff, least recently synced first
func (r *GormShipmentRepository) FindDueForSync(ctx context.Context, cutoff time.Time, limit int) ([]shipping.Shipment, error) {
	closed := []shipping.Status{shipping.StatusDelivered, shipping.StatusReturned, shipping.StatusCancelled}
	var rows []models.ShipmentModel
	if err := conn(ctx, r.db).
		Where("status NOT IN ?", closed).
		Where("last_synced_at IS NULL OR last_synced_at < ?", cutoff).
		Order("last_synced_at ASC NULLS FIRST").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toShipments(rows), nil
}

func toShipments(rows []models.ShipmentModel) []shipping.Shipment {
	shipments := make([]shipping.Shipment, 0, len(rows))
	for i := range rows {
		shipments = append(shipments, *rows[i].ToDomain())
	}
	return shipments
}

// GormDeliveryOptionRepository implements shipping.DeliveryOptionRepository using GORM
type GormDeliveryOptionRepository struct {
	db *gorm.DB
}

// NewGormDeliveryOptionRepository creates a new GormDeliveryOptionRepository
func NewGormDeliveryOptionRepository(db *gorm.DB) *GormDeliveryOptionRepository {
	return &GormDeliveryOptionRepository{db: db}
}

// FindByID finds a delivery option by its ID
func (r *GormDeliveryOptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.DeliveryOption, error) {
	var m models.DeliveryOptionModel
	if err := conn(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// List returns delivery options in display order
func (r *GormDeliveryOptionRepository) List(ctx context.Context, activeOnly bool) ([]shipping.DeliveryOption, error) {
	query := conn(ctx, r.db).Order("sort_order ASC, price ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rows []models.DeliveryOptionModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	options := make([]shipping.DeliveryOption, 0, len(rows))
	for i := range rows {
		options = append(options, *rows[i].ToDomain())
	}
	return options, nil
}

// Save creates or updates a delivery option
func (r *GormDeliveryOptionRepository) Save(ctx context.Context, option *shipping.DeliveryOption) error {
	return translateError(conn(ctx, r.db).Save(models.DeliveryOptionModelFromDomain(option)).Error)
}

// Delete removes a delivery option and detaches it from past orders
func (r *GormDeliveryOptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Model(&models.OrderModel{}).
			Where("delivery_option_id = ?", id).
			Update("delivery_option_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.DeliveryOptionModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

var (
	_ shipping.Repository               = (*GormShipmentRepository)(nil)
	_ shipping.DeliveryOptionRepository = (*GormDeliveryOptionRepository)(nil)
)
