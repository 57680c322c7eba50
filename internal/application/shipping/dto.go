package shipping

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shipping"
)

// CreateShipmentRequest buys a label for an order. Carrier and service fall
// back to the order's delivery option, then to the provider defaults.
type CreateShipmentRequest struct {
	Carrier string `json:"carrier" binding:"max=50"`
	Service string `json:"service" binding:"max=50"`
}

// ShipmentResponse represents a shipment in API responses
type ShipmentResponse struct {
	ID                 uuid.UUID  `json:"id"`
	OrderID            uuid.UUID  `json:"order_id"`
	Carrier            string     `json:"carrier"`
	Service            string     `json:"service,omitempty"`
	TrackingNumber     string     `json:"tracking_number"`
	ProviderShipmentID string     `json:"provider_shipment_id,omitempty"`
	LabelURL           string     `json:"label_url,omitempty"`
	Status             string     `json:"status"`
	StatusDetail       string     `json:"status_detail,omitempty"`
	LastEventAt        *time.Time `json:"last_event_at,omitempty"`
	LastSyncedAt       *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	Version            int        `json:"version"`
}

// ToShipmentResponse converts a domain Shipment to ShipmentResponse
func ToShipmentResponse(s *shipping.Shipment) ShipmentResponse {
	return ShipmentResponse{
		ID:                 s.ID,
		OrderID:            s.OrderID,
		Carrier:            s.Carrier,
		Service:            s.Service,
		TrackingNumber:     s.TrackingNumber,
		ProviderShipmentID: s.ProviderShipmentID,
		LabelURL:           s.LabelURL,
		Status:             string(s.Status),
		StatusDetail:       s.StatusDetail,
		LastEventAt:        s.LastEventAt,
		LastSyncedAt:       s.LastSyncedAt,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
		Version:            s.GetVersion(),
	}
}

// WebhookResult describes how a shipping webhook was handled
type WebhookResult struct {
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
	Applied   bool   `json:"applied"`
}

// SyncResult summarizes one tracking sync run
type SyncResult struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// CreateDeliveryOptionRequest represents a request to create a delivery option
type CreateDeliveryOptionRequest struct {
	Name          string          `json:"name" binding:"required,min=1,max=100"`
	Carrier       string          `json:"carrier" binding:"required,min=1,max=50"`
	Service       string          `json:"service" binding:"max=50"`
	Price         decimal.Decimal `json:"price" binding:"required"`
	EstimatedDays int             `json:"estimated_days" binding:"min=0,max=365"`
	SortOrder     int             `json:"sort_order"`
	Active        *bool           `json:"active"`
}

// UpdateDeliveryOptionRequest represents a request to update a delivery option.
// Omitted fields keep their value.
type UpdateDeliveryOptionRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=100"`
	Carrier       *string          `json:"carrier" binding:"omitempty,min=1,max=50"`
	Service       *string          `json:"service" binding:"omitempty,max=50"`
	Price         *decimal.Decimal `json:"price"`
	EstimatedDays *int             `json:"estimated_days" binding:"omitempty,min=0,max=365"`
	SortOrder     *int             `json:"sort_order"`
	Active        *bool            `json:"active"`
}

// DeliveryOptionResponse represents a delivery option in API responses
type DeliveryOptionResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Carrier       string          `json:"carrier"`
	Service       string          `json:"service,omitempty"`
	Price         decimal.Decimal `json:"price"`
	EstimatedDays int             `json:"estimated_days"`
	Active        bool            `json:"active"`
	SortOrder     int             `json:"sort_order"`
}

// ToDeliveryOptionResponse converts a domain DeliveryOption to DeliveryOptionResponse
func ToDeliveryOptionResponse(d *shipping.DeliveryOption) DeliveryOptionResponse {
	return DeliveryOptionResponse{
		ID:            d.ID,
		Name:          d.Name,
		Carrier:       d.Carrier,
		Service:       d.Service,
		Price:         d.Price,
		EstimatedDays: d.EstimatedDays,
		Active:        d.Active,
		SortOrder:     d.SortOrder,
	}
}
