package shipping

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Shipment is a parcel sent for an order
type Shipment struct {
	shared.BaseAggregateRoot
	OrderID            uuid.UUID
	Carrier            string
	Service            string
	TrackingNumber     string
	ProviderShipmentID string
	LabelURL           string
	Status             Status
	StatusDetail       string
	LastEventAt        *time.Time
	LastSyncedAt       *time.Time
}

// NewShipment creates a shipment from a purchased label
func NewShipment(orderID uuid.UUID, label Label) (*Shipment, error) {
	if strings.TrimSpace(label.TrackingNumber) == "" {
		return nil, shared.ErrInvalidInput.Withf("tracking number is required")
	}
	status := StatusLabelCreated
	if mapped, ok := MapProviderStatus(label.Status); ok {
		status = mapped
	}
	return &Shipment{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		OrderID:            orderID,
		Carrier:            strings.ToLower(label.Carrier),
		Service:            label.Service,
		TrackingNumber:     label.TrackingNumber,
		ProviderShipmentID: label.ProviderShipmentID,
		LabelURL:           label.LabelURL,
		Status:             status,
	}, nil
}

// Apply records a tracking update. It returns true when the status changed.
// Out of order updates and updates to a closed shipment are ignored.
func (s *Shipment) Apply(update TrackingUpdate) bool {
	target, ok := MapProviderStatus(update.Status)
	if !ok {
		return false
	}
	if s.LastEventAt != nil && !update.OccurredAt.IsZero() && update.OccurredAt.Before(*s.LastEventAt) {
		return false
	}
	if !s.Status.CanAdvanceTo(target) {
		return false
	}
	s.Status = target
	s.StatusDetail = update.Detail
	if !update.OccurredAt.IsZero() {
		at := update.OccurredAt
		s.LastEventAt = &at
	}
	s.Touch()
	return true
}

// MarkSynced records a poll of the provider
func (s *Shipment) MarkSynced(at time.Time) {
	s.LastSyncedAt = &at
}

// Repository defines the interface for shipment persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Shipment, error)
	// FindByTracking matches the carrier case-insensitively
	FindByTracking(ctx context.Context, carrier, trackingNumber string) (*Shipment, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Shipment, error)
	Save(ctx context.Context, shipment *Shipment) error
	// SaveWithLock updates the shipment guarded by its version
	SaveWithLock(ctx context.Context, shipment *Shipment) error
	// FindDueForSync returns live shipments not synced since before cutoff
	FindDueForSync(ctx context.Context, cutoff time.Time, limit int) ([]Shipment, error)
}
