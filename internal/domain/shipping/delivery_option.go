package shipping

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// DeliveryOption is a shipping method offered at checkout
type DeliveryOption struct {
	shared.BaseEntity
	Name          string
	Carrier       string
	Service       string
	Price         decimal.Decimal
	EstimatedDays int
	Active        bool
	SortOrder     int
}

// NewDeliveryOption creates an active delivery option
func NewDeliveryOption(name, carrier, service string, price decimal.Decimal, estimatedDays int) (*DeliveryOption, error) {
	d := &DeliveryOption{BaseEntity: shared.NewBaseEntity(), Active: true}
	if err := d.Update(name, carrier, service, price, estimatedDays); err != nil {
		return nil, err
	}
	return d, nil
}

// Update replaces the option's details
func (d *DeliveryOption) Update(name, carrier, service string, price decimal.Decimal, estimatedDays int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.ErrInvalidInput.Withf("delivery option name cannot be empty")
	}
	if strings.TrimSpace(carrier) == "" {
		return shared.ErrInvalidInput.Withf("carrier is required")
	}
	if price.IsNegative() {
		return shared.ErrInvalidInput.Withf("price cannot be negative")
	}
	if estimatedDays < 0 {
		return shared.ErrInvalidInput.Withf("estimated days cannot be negative")
	}
	d.Name = name
	d.Carrier = strings.ToLower(strings.TrimSpace(carrier))
	d.Service = strings.TrimSpace(service)
	d.Price = price.Round(2)
	d.EstimatedDays = estimatedDays
	d.Touch()
	return nil
}

// SetActive toggles availability at checkout
func (d *DeliveryOption) SetActive(active bool) {
	d.Active = active
	d.Touch()
}

// DeliveryOptionRepository defines the interface for delivery option persistence
type DeliveryOptionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*DeliveryOption, error)
	// List returns options ordered by sort order, only active ones when activeOnly is set
	List(ctx context.Context, activeOnly bool) ([]DeliveryOption, error)
	Save(ctx context.Context, option *DeliveryOption) error
	Delete(ctx context.Context, id uuid.UUID) error
}
