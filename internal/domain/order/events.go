package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// AggregateTypeOrder is the aggregate type of order events
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypePlaced        = "order.placed"
	EventTypePaid          = "order.paid"
	EventTypePaymentFailed = "order.payment_failed"
	EventTypeProcessing    = "order.processing"
	EventTypeShipped       = "order.shipped"
	EventTypeDelivered     = "order.delivered"
	EventTypeCancelled     = "order.cancelled"
	EventTypeRefunded      = "order.refunded"
)

// Event is raised on every order lifecycle change. It carries enough of the
// order to render customer notifications without reloading it.
type Event struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID       `json:"order_id"`
	Number         string          `json:"number"`
	CustomerID     *uuid.UUID      `json:"customer_id,omitempty"`
	Email          string          `json:"email"`
	Status         Status          `json:"status"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	Reason         string          `json:"reason,omitempty"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
}

// NewEvent snapshots o into an event of the given type
func NewEvent(eventType string, o *Order) *Event {
	return &Event{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Number:          o.Number,
		CustomerID:      o.CustomerID,
		Email:           o.Email,
		Status:          o.Status,
		Total:           o.Total,
		Currency:        o.Currency,
	}
}
