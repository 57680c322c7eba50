package notification

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/notification"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// OrderEmailHandler queues a customer email for order lifecycle events
type OrderEmailHandler struct {
	emails    *EmailService
	orders    order.Repository
	storeName string
	logger    *zap.Logger
}

var _ shared.EventHandler = (*OrderEmailHandler)(nil)

// NewOrderEmailHandler creates a new OrderEmailHandler
func NewOrderEmailHandler(emails *EmailService, orders order.Repository, storeName string, logger *zap.Logger) *OrderEmailHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderEmailHandler{emails: emails, orders: orders, storeName: storeName, logger: logger}
}

// EventTypes returns the order events that send an email
func (h *OrderEmailHandler) EventTypes() []string {
	return []string{
		order.EventTypePaid,
		order.EventTypeShipped,
		order.EventTypeDelivered,
		order.EventTypeCancelled,
		order.EventTypeRefunded,
	}
}

// Handle renders the event's template against the current order and queues it
func (h *OrderEmailHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	evt, ok := event.(*order.Event)
	if !ok {
		return nil
	}
	template, ok := notification.TemplateForEvent(evt.EventType())
	if !ok {
		return nil
	}

	o, err := h.orders.FindByID(ctx, evt.OrderID)
	if errors.Is(err, shared.ErrNotFound) {
		h.logger.Warn("Order gone, email skipped",
			zap.String("order_id", evt.OrderID.String()),
			zap.String("event_type", evt.EventType()))
		return nil
	}
	if err != nil {
		return err
	}

	data := notification.OrderEmailData{
		StoreName:      h.storeName,
		Order:          o,
		TrackingNumber: evt.TrackingNumber,
		Reason:         evt.Reason,
		SentAt:         evt.OccurredAt(),
	}
	orderID := o.ID
	if _, err := h.emails.Enqueue(ctx, template, evt.Email, data, &orderID); err != nil {
		h.logger.Error("Failed to queue order email",
			zap.String("order_id", o.ID.String()),
			zap.String("template", template),
			zap.Error(err))
		return err
	}
	return nil
}
