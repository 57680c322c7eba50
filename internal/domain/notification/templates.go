package notification

import (
	"time"

	"github.com/storefront/backend/internal/domain/order"
)

// Template names
const (
	TemplateOrderConfirmation = "order_confirmation"
	TemplateOrderShipped      = "order_shipped"
	TemplateOrderDelivered    = "order_delivered"
	TemplateOrderCancelled    = "order_cancelled"
	TemplateOrderRefunded     = "order_refunded"
)

// TemplateForEvent returns the template an order event sends, if any
func TemplateForEvent(eventType string) (string, bool) {
	switch eventType {
	case order.EventTypePaid:
		return TemplateOrderConfirmation, true
	case order.EventTypeShipped:
		return TemplateOrderShipped, true
	case order.EventTypeDelivered:
		return TemplateOrderDelivered, true
	case order.EventTypeCancelled:
		return TemplateOrderCancelled, true
	case order.EventTypeRefunded:
		return TemplateOrderRefunded, true
	}
	return "", false
}

// OrderEmailData is the data every order template is rendered with
type OrderEmailData struct {
	StoreName      string
	Order          *order.Order
	TrackingNumber string
	Reason         string
	SentAt         time.Time
}
