package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// Refund sources reported to metrics
const (
	RefundSourceCancel = "order_cancel"
	RefundSourceAdmin  = "order_refund"
)

// ExpiryReason is the cancel reason of orders that were never paid
const ExpiryReason = "payment not received in time"

// OrderService handles admin order management, cancellation and refunds
type OrderService struct {
	orderRepo order.Repository
	stockRepo catalog.StockRepository
	gateway   payment.Gateway
	txManager shared.TxManager
	publisher shared.EventPublisher
	logger    *zap.Logger
	metrics   *telemetry.ShopMetrics
	now       func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo order.Repository,
	stockRepo catalog.StockRepository,
	gateway payment.Gateway,
	txManager shared.TxManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo: orderRepo,
		stockRepo: stockRepo,
		gateway:   gateway,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// SetMetrics sets the business metrics recorder
func (s *OrderService) SetMetrics(m *telemetry.ShopMetrics) {
	s.metrics = m
}

// List retrieves a page of orders
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	base := shared.DefaultFilter()
	base.Page = filter.Page
	base.PageSize = filter.PageSize
	base.Search = strings.TrimSpace(filter.Search)
	if filter.OrderBy != "" {
		base.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		base.OrderDir = filter.OrderDir
	}

	of := order.Filter{
		Filter:     base.Normalize(),
		CustomerID: filter.CustomerID,
		Email:      strings.ToLower(strings.TrimSpace(filter.Email)),
		From:       filter.From,
		To:         filter.To,
	}
	if filter.Status != "" {
		status := order.Status(strings.ToUpper(filter.Status))
		if !status.IsValid() {
			return nil, 0, shared.ErrInvalidInput.Withf("invalid order status %q", filter.Status)
		}
		of.Status = &status
	}

	orders, total, err := s.orderRepo.List(ctx, of)
	if err != nil {
		return nil, 0, err
	}
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out, total, nil
}

// GetByID retrieves an order by ID
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// LookupGuest finds an order by number for a shopper who proves ownership
// with the order email. A wrong email is reported as not found.
func (s *OrderService) LookupGuest(ctx context.Context, number, email string) (*GuestOrderResponse, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	email = strings.ToLower(strings.TrimSpace(email))
	if number == "" || email == "" {
		return nil, shared.ErrInvalidInput.Withf("order number and email are required")
	}

	o, err := s.orderRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if o.Email != email {
		return nil, shared.ErrNotFound.Withf("order %s not found", number)
	}
	response := ToGuestOrderResponse(o)
	return &response, nil
}

// UpdateStatus moves an order to PROCESSING, SHIPPED or DELIVERED
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error) {
	target := order.Status(strings.ToUpper(req.Status))
	if !target.IsValid() {
		return nil, shared.ErrInvalidInput.Withf("invalid order status %q", req.Status)
	}

	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := o.TransitionTo(target, req.TrackingNumber); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	s.publish(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// Cancel cancels an order and restores its stock. A paid order is refunded
// through the gateway before anything is written, so a failed refund leaves
// the order untouched.
func (s *OrderService) Cancel(ctx context.Context, id uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cancel(ctx, o, req.Reason); err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// CancelUnpaid cancels a pending order whose payment could not be set up.
// It is used by checkout to undo an order when intent creation fails.
func (s *OrderService) CancelUnpaid(ctx context.Context, id uuid.UUID, reason string) error {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if o.RequiresRefundOnCancel() {
		return shared.ErrInvalidState.Withf("order %s is already paid", o.Number)
	}
	return s.cancel(ctx, o, reason)
}

func (s *OrderService) cancel(ctx context.Context, o *order.Order, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return shared.ErrInvalidInput.Withf("cancel reason is required")
	}
	if !o.Status.CanTransitionTo(order.StatusCancelled) {
		return shared.ErrInvalidState.Withf("order %s cannot be cancelled in %s status", o.Number, o.Status)
	}

	var refund *payment.Refund
	if o.RequiresRefundOnCancel() {
		var err error
		refund, err = s.refundPayment(ctx, o, "requested_by_customer")
		if err != nil {
			return err
		}
		s.metrics.RecordRefund(ctx, RefundSourceCancel)
	}

	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		items, err := o.Cancel(reason)
		if err != nil {
			return err
		}
		if err := RestoreStock(ctx, s.stockRepo, items, s.logger); err != nil {
			return err
		}
		if refund != nil {
			if _, err := o.MarkRefunded(refund.ID); err != nil {
				return err
			}
		}
		return s.orderRepo.SaveWithLock(ctx, o)
	})
	if err != nil {
		if refund != nil {
			s.logger.Error("Order refunded at gateway but cancel failed",
				zap.String("order_id", o.ID.String()),
				zap.String("refund_id", refund.ID),
				zap.Error(err))
		}
		return err
	}

	s.logger.Info("Order cancelled",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.Number),
		zap.Bool("refunded", refund != nil))
	s.publish(ctx, o)
	return nil
}

// Refund refunds a paid order in full. Items still held in the warehouse
// return to stock.
func (s *OrderService) Refund(ctx context.Context, id uuid.UUID, req RefundOrderRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus != order.PaymentStatusPaid {
		return nil, shared.ErrInvalidState.Withf("order %s has no captured payment", o.Number)
	}
	if o.Status != order.StatusCancelled && !o.Status.CanTransitionTo(order.StatusRefunded) {
		return nil, shared.ErrInvalidState.Withf("order %s cannot be refunded in %s status", o.Number, o.Status)
	}

	reason := req.Reason
	if reason == "" {
		reason = "requested_by_customer"
	}
	refund, err := s.refundPayment(ctx, o, reason)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRefund(ctx, RefundSourceAdmin)

	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		items, err := o.MarkRefunded(refund.ID)
		if err != nil {
			return err
		}
		if err := RestoreStock(ctx, s.stockRepo, items, s.logger); err != nil {
			return err
		}
		return s.orderRepo.SaveWithLock(ctx, o)
	})
	if err != nil {
		s.logger.Error("Order refunded at gateway but save failed",
			zap.String("order_id", o.ID.String()),
			zap.String("refund_id", refund.ID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Order refunded",
		zap.String("order_id", o.ID.String()),
		zap.String("refund_id", refund.ID))
	s.publish(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// ExpirePending cancels pending orders older than ttl and restores their
// stock. Orders whose intent already succeeded at the gateway are skipped
// and left to the webhook or the payment scan.
func (s *OrderService) ExpirePending(ctx context.Context, ttl time.Duration, limit int) (int, error) {
	if ttl <= 0 {
		return 0, shared.ErrInvalidInput.Withf("pending order ttl must be positive")
	}
	if limit <= 0 {
		limit = 100
	}

	stale, err := s.orderRepo.FindStalePending(ctx, s.now().Add(-ttl), limit)
	if err != nil {
		return 0, fmt.Errorf("find stale orders: %w", err)
	}

	expired := 0
	var errs []error
	for i := range stale {
		o := &stale[i]
		if o.PaymentIntentID != "" && s.gateway != nil {
			intent, err := s.gateway.GetIntent(ctx, o.PaymentIntentID)
			if err != nil {
				errs = append(errs, fmt.Errorf("order %s: %w", o.Number, err))
				continue
			}
			if intent.Status == payment.IntentStatusSucceeded || intent.Status == payment.IntentStatusProcessing {
				s.logger.Warn("Skipping expiry of order with captured payment",
					zap.String("order_id", o.ID.String()),
					zap.String("intent_id", o.PaymentIntentID))
				continue
			}
		}
		if err := s.cancel(ctx, o, ExpiryReason); err != nil {
			if errors.Is(err, shared.ErrConcurrentModification) || errors.Is(err, shared.ErrInvalidState) {
				continue
			}
			errs = append(errs, fmt.Errorf("order %s: %w", o.Number, err))
			continue
		}
		expired++
	}

	if expired > 0 {
		s.logger.Info("Expired pending orders", zap.Int("count", expired))
	}
	return expired, errors.Join(errs...)
}

func (s *OrderService) refundPayment(ctx context.Context, o *order.Order, reason string) (*payment.Refund, error) {
	if o.PaymentIntentID == "" {
		return nil, shared.ErrInvalidState.Withf("order %s has no payment intent", o.Number)
	}
	refund, err := s.gateway.Refund(ctx, payment.RefundRequest{
		IntentID:       o.PaymentIntentID,
		Currency:       o.Currency,
		Reason:         reason,
		IdempotencyKey: RefundKey(o.ID),
	})
	if err != nil {
		s.logger.Error("Gateway refund failed",
			zap.String("order_id", o.ID.String()),
			zap.String("intent_id", o.PaymentIntentID),
			zap.Error(err))
		return nil, err
	}
	return refund, nil
}

func (s *OrderService) publish(ctx context.Context, o *order.Order) {
	if err := shared.PublishAndClear(ctx, s.publisher, o); err != nil {
		s.logger.Warn("Failed to publish order events",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
	}
}

// RefundKey is the gateway idempotency key of a full order refund
func RefundKey(orderID uuid.UUID) string {
	return "order-refund:" + orderID.String()
}

// RestoreStock returns the quantity of each item to its variant. Lines whose
// variant was deleted are skipped.
func RestoreStock(ctx context.Context, stockRepo catalog.StockRepository, items []order.Item, logger *zap.Logger) error {
	for _, item := range items {
		if item.VariantID == nil {
			continue
		}
		err := stockRepo.Restore(ctx, *item.VariantID, item.Quantity)
		if errors.Is(err, shared.ErrNotFound) {
			logger.Warn("Variant gone, stock not restored",
				zap.String("variant_id", item.VariantID.String()),
				zap.String("sku", item.SKU),
				zap.Int("quantity", item.Quantity))
			continue
		}
		if err != nil {
			return fmt.Errorf("restore stock of %s: %w", item.SKU, err)
		}
	}
	return nil
}
