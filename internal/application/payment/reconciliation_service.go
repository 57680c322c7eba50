package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	orderapp "github.com/storefront/backend/internal/application/order"
	webhookapp "github.com/storefront/backend/internal/application/webhook"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/webhook"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// Refund sources reported to metrics
const (
	RefundSourceOrphan  = "orphan_sweep"
	RefundSourceGateway = "gateway"
)

type captureOutcome int

const (
	capturePaid captureOutcome = iota
	captureAlreadyPaid
	captureOrphaned
)

// Config holds the reconciliation tuning knobs
type Config struct {
	GracePeriod       time.Duration
	MaxRefundAttempts int
	ScanWindow        time.Duration
	BatchSize         int
}

func (c Config) withDefaults() Config {
	if c.GracePeriod <= 0 {
		c.GracePeriod = 15 * time.Minute
	}
	if c.MaxRefundAttempts <= 0 {
		c.MaxRefundAttempts = 5
	}
	if c.ScanWindow <= 0 {
		c.ScanWindow = 24 * time.Hour
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	return c
}

// Deps groups the collaborators of ReconciliationService
type Deps struct {
	Orders    order.Repository
	Orphans   payment.OrphanRepository
	Stock     catalog.StockRepository
	Gateway   payment.Gateway
	Webhooks  *webhookapp.Processor
	TxManager shared.TxManager
	Publisher shared.EventPublisher
	Logger    *zap.Logger
}

// ReconciliationService keeps orders in line with what the payment gateway
// actually captured. Payment webhooks are applied here, captured money that
// no order accounts for is recorded as an orphan, and orphans are refunded
// by the sweep once their grace period ends.
type ReconciliationService struct {
	orders    order.Repository
	orphans   payment.OrphanRepository
	stock     catalog.StockRepository
	gateway   payment.Gateway
	webhooks  *webhookapp.Processor
	txManager shared.TxManager
	publisher shared.EventPublisher
	logger    *zap.Logger
	metrics   *telemetry.ShopMetrics
	cfg       Config
	now       func() time.Time
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(deps Deps, cfg Config) *ReconciliationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{
		orders:    deps.Orders,
		orphans:   deps.Orphans,
		stock:     deps.Stock,
		gateway:   deps.Gateway,
		webhooks:  deps.Webhooks,
		txManager: deps.TxManager,
		publisher: deps.Publisher,
		logger:    logger,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
	}
}

// SetMetrics sets the business metrics recorder
func (s *ReconciliationService) SetMetrics(m *telemetry.ShopMetrics) {
	s.metrics = m
}

// HandleWebhook verifies and applies a payment gateway notification.
// Signature failures return payment.ErrInvalidSignature. Any other error
// means the event was recorded as FAILED and should be redelivered.
func (s *ReconciliationService) HandleWebhook(ctx context.Context, payload []byte, signature string) (result *WebhookResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "HandleWebhook")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	evt, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			s.metrics.RecordWebhook(ctx, webhook.ProviderStripe, "invalid_signature")
			s.logger.Warn("Rejected payment webhook with invalid signature")
		}
		return nil, err
	}
	telemetry.SetAttributes(span,
		"webhook.event_id", evt.ID,
		"webhook.event_type", evt.Type,
		"payment.intent_id", evt.IntentID)

	duplicate, err := s.webhooks.Process(ctx, webhook.ProviderStripe, evt.ID, evt.Type, payload,
		func(ctx context.Context) error {
			return s.dispatch(ctx, evt)
		})
	if err != nil {
		return nil, err
	}
	return &WebhookResult{EventID: evt.ID, EventType: evt.Type, Duplicate: duplicate}, nil
}

func (s *ReconciliationService) dispatch(ctx context.Context, evt *payment.GatewayEvent) error {
	if evt.IntentID == "" {
		s.logger.Warn("Payment webhook without intent ignored",
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type))
		return nil
	}

	switch evt.Type {
	case payment.EventIntentSucceeded:
		_, err := s.applyCapture(ctx, evt.IntentID, evt.OrderID, evt.Amount, evt.Currency)
		return err
	case payment.EventIntentFailed:
		reason := evt.FailureMessage
		if reason == "" {
			reason = "payment failed"
		}
		return s.failPayment(ctx, evt, reason)
	case payment.EventIntentCanceled:
		return s.failPayment(ctx, evt, "payment canceled")
	case payment.EventChargeRefunded:
		return s.applyRefund(ctx, evt)
	default:
		s.logger.Debug("Unhandled payment webhook type",
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type))
		return nil
	}
}

// applyCapture marks the order paid when the captured amount belongs to it,
// and records an orphan otherwise
func (s *ReconciliationService) applyCapture(ctx context.Context, intentID string, orderID *uuid.UUID, amount decimal.Decimal, currency string) (captureOutcome, error) {
	o, err := s.findOrder(ctx, orderID, intentID)
	if errors.Is(err, shared.ErrNotFound) {
		return s.recordOrphan(ctx, intentID, nil, amount, currency, payment.ReasonOrderNotFound)
	}
	if err != nil {
		return 0, err
	}

	if o.IsPaidBy(intentID) {
		return captureAlreadyPaid, nil
	}
	if reason := mismatch(o, amount, currency); reason != "" {
		return s.recordOrphan(ctx, intentID, &o.ID, amount, currency, reason)
	}

	if err := o.MarkPaid(intentID, amount); err != nil {
		return 0, err
	}
	if err := s.orders.SaveWithLock(ctx, o); err != nil {
		return 0, err
	}

	s.logger.Info("Order paid",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.Number),
		zap.String("intent_id", intentID))
	s.publish(ctx, o)
	return capturePaid, nil
}

// mismatch returns why a capture cannot be applied to the order, or "" if it can
func mismatch(o *order.Order, amount decimal.Decimal, currency string) payment.OrphanReason {
	switch {
	case o.Status == order.StatusCancelled:
		return payment.ReasonOrderCancelled
	case o.Status != order.StatusPending || o.PaymentStatus == order.PaymentStatusPaid || o.PaymentStatus == order.PaymentStatusRefunded:
		return payment.ReasonDuplicatePayment
	case !strings.EqualFold(o.Currency, currency) || !amount.Equal(o.Total):
		return payment.ReasonAmountMismatch
	}
	return ""
}

func (s *ReconciliationService) recordOrphan(ctx context.Context, intentID string, orderID *uuid.UUID, amount decimal.Decimal, currency string, reason payment.OrphanReason) (captureOutcome, error) {
	orphan, err := payment.NewOrphanPayment(intentID, orderID, amount, currency, reason)
	if err != nil {
		return 0, err
	}
	stored, created, err := s.orphans.Upsert(ctx, orphan)
	if err != nil {
		return 0, fmt.Errorf("record orphan payment %s: %w", intentID, err)
	}
	if created {
		s.metrics.RecordOrphan(ctx, string(reason))
		s.logger.Warn("Orphan payment detected",
			zap.String("intent_id", intentID),
			zap.String("reason", string(reason)),
			zap.String("amount", amount.String()),
			zap.String("currency", stored.Currency))
	}
	return captureOrphaned, nil
}

// failPayment records a failed or abandoned attempt on a pending order
func (s *ReconciliationService) failPayment(ctx context.Context, evt *payment.GatewayEvent, reason string) error {
	o, err := s.findOrder(ctx, evt.OrderID, evt.IntentID)
	if errors.Is(err, shared.ErrNotFound) {
		s.logger.Info("Payment failure for unknown order ignored", zap.String("intent_id", evt.IntentID))
		return nil
	}
	if err != nil {
		return err
	}
	if o.Status != order.StatusPending || o.PaymentStatus == order.PaymentStatusPaid {
		return nil
	}

	if err := o.MarkPaymentFailed(reason); err != nil {
		return err
	}
	if err := s.orders.SaveWithLock(ctx, o); err != nil {
		return err
	}
	s.logger.Info("Order payment failed",
		zap.String("order_id", o.ID.String()),
		zap.String("intent_id", evt.IntentID),
		zap.String("reason", reason))
	s.publish(ctx, o)
	return nil
}

// applyRefund mirrors a full refund made at the gateway. Refunds this
// service issued itself have already been recorded and are no-ops here.
func (s *ReconciliationService) applyRefund(ctx context.Context, evt *payment.GatewayEvent) error {
	if !evt.FullyRefunded() {
		s.logger.Info("Partial refund ignored",
			zap.String("intent_id", evt.IntentID),
			zap.String("amount_refunded", evt.AmountRefunded.String()))
		return nil
	}

	orphan, err := s.orphans.FindByIntent(ctx, evt.IntentID)
	switch {
	case err == nil:
		if orphan.Status == payment.OrphanStatusDetected || orphan.Status == payment.OrphanStatusFailed {
			if err := orphan.MarkRefunded(evt.RefundID); err != nil {
				return err
			}
			if err := s.orphans.Save(ctx, orphan); err != nil {
				return err
			}
			s.logger.Info("Orphan payment refunded at gateway", zap.String("intent_id", evt.IntentID))
		}
	case !errors.Is(err, shared.ErrNotFound):
		return err
	}

	o, err := s.findOrder(ctx, evt.OrderID, evt.IntentID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !o.IsPaidBy(evt.IntentID) {
		return nil
	}

	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		items, err := o.MarkRefunded(evt.RefundID)
		if err != nil {
			return err
		}
		if err := orderapp.RestoreStock(ctx, s.stock, items, s.logger); err != nil {
			return err
		}
		return s.orders.SaveWithLock(ctx, o)
	})
	if err != nil {
		return err
	}

	s.metrics.RecordRefund(ctx, RefundSourceGateway)
	s.logger.Info("Order refunded at gateway",
		zap.String("order_id", o.ID.String()),
		zap.String("refund_id", evt.RefundID))
	s.publish(ctx, o)
	return nil
}

// SweepOrphans resolves orphans whose grace period has passed. An orphan
// whose order has since turned up pending with the right amount is matched
// to it. Everything else is refunded.
func (s *ReconciliationService) SweepOrphans(ctx context.Context) (result *SweepResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "SweepOrphans")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	due, err := s.orphans.FindDue(ctx, s.now().Add(-s.cfg.GracePeriod), s.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("find due orphans: %w", err)
	}

	result = &SweepResult{}
	var errs []error
	for i := range due {
		orphan := &due[i]
		result.Checked++

		matched, err := s.tryMatch(ctx, orphan)
		if err != nil {
			errs = append(errs, fmt.Errorf("match %s: %w", orphan.PaymentIntentID, err))
			continue
		}
		if matched {
			result.Matched++
			continue
		}

		if err := s.refundOrphan(ctx, orphan); err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("refund %s: %w", orphan.PaymentIntentID, err))
			continue
		}
		result.Refunded++
	}

	telemetry.SetAttributes(span,
		"sweep.checked", result.Checked,
		"sweep.matched", result.Matched,
		"sweep.refunded", result.Refunded)
	if result.Checked > 0 {
		s.logger.Info("Orphan sweep finished",
			zap.Int("checked", result.Checked),
			zap.Int("matched", result.Matched),
			zap.Int("refunded", result.Refunded),
			zap.Int("failed", result.Failed))
	}
	return result, errors.Join(errs...)
}

func (s *ReconciliationService) tryMatch(ctx context.Context, orphan *payment.OrphanPayment) (bool, error) {
	if orphan.Reason == payment.ReasonDuplicatePayment {
		return false, nil
	}
	o, err := s.findOrder(ctx, orphan.OrderID, orphan.PaymentIntentID)
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if mismatch(o, orphan.Amount, orphan.Currency) != "" {
		return false, nil
	}

	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := o.MarkPaid(orphan.PaymentIntentID, orphan.Amount); err != nil {
			return err
		}
		if err := s.orders.SaveWithLock(ctx, o); err != nil {
			return err
		}
		if err := orphan.MarkMatched(o.ID); err != nil {
			return err
		}
		return s.orphans.Save(ctx, orphan)
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("Orphan payment matched to order",
		zap.String("intent_id", orphan.PaymentIntentID),
		zap.String("order_id", o.ID.String()))
	s.publish(ctx, o)
	return true, nil
}

func (s *ReconciliationService) refundOrphan(ctx context.Context, orphan *payment.OrphanPayment) error {
	refund, err := s.gateway.Refund(ctx, payment.RefundRequest{
		IntentID:       orphan.PaymentIntentID,
		Currency:       orphan.Currency,
		Reason:         "orphan payment: " + string(orphan.Reason),
		IdempotencyKey: orphan.RefundKey(),
	})
	if err != nil {
		orphan.RecordFailure(err, s.cfg.MaxRefundAttempts)
		if saveErr := s.orphans.Save(ctx, orphan); saveErr != nil {
			return errors.Join(err, saveErr)
		}
		if orphan.Status == payment.OrphanStatusFailed {
			s.logger.Error("Orphan refund gave up, manual review needed",
				zap.String("intent_id", orphan.PaymentIntentID),
				zap.Int("attempts", orphan.Attempts),
				zap.Error(err))
		}
		return err
	}

	if err := orphan.MarkRefunded(refund.ID); err != nil {
		return err
	}
	if err := s.orphans.Save(ctx, orphan); err != nil {
		return err
	}
	s.metrics.RecordRefund(ctx, RefundSourceOrphan)
	s.logger.Info("Orphan payment refunded",
		zap.String("intent_id", orphan.PaymentIntentID),
		zap.String("refund_id", refund.ID),
		zap.String("reason", string(orphan.Reason)))
	return nil
}

// ScanPayments checks succeeded intents created within window against the
// orders. It recovers payments whose webhook never arrived. A zero window
// uses the configured default.
func (s *ReconciliationService) ScanPayments(ctx context.Context, window time.Duration) (result *ScanResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "ScanPayments")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if window <= 0 {
		window = s.cfg.ScanWindow
	}
	since := s.now().Add(-window)

	intents, err := s.gateway.ListSucceededIntents(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list succeeded intents: %w", err)
	}
	paid, err := s.orders.FindPaidIntentsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("find paid intents: %w", err)
	}

	result = &ScanResult{}
	var errs []error
	for _, intent := range intents {
		result.Checked++
		if _, ok := paid[intent.ID]; ok {
			result.AlreadyPaid++
			continue
		}

		outcome, err := s.applyCapture(ctx, intent.ID, intent.OrderID, intent.Amount, intent.Currency)
		if err != nil {
			errs = append(errs, fmt.Errorf("intent %s: %w", intent.ID, err))
			continue
		}
		switch outcome {
		case capturePaid:
			result.Paid++
			s.logger.Warn("Recovered payment without webhook", zap.String("intent_id", intent.ID))
		case captureAlreadyPaid:
			result.AlreadyPaid++
		case captureOrphaned:
			result.Orphaned++
		}
	}

	telemetry.SetAttributes(span,
		"scan.checked", result.Checked,
		"scan.paid", result.Paid,
		"scan.orphaned", result.Orphaned)
	return result, errors.Join(errs...)
}

// ListOrphans retrieves a page of orphan payments, optionally by status
func (s *ReconciliationService) ListOrphans(ctx context.Context, filter OrphanListFilter) ([]OrphanResponse, int64, error) {
	base := shared.DefaultFilter()
	base.Page = filter.Page
	base.PageSize = filter.PageSize

	var status *payment.OrphanStatus
	if filter.Status != "" {
		st := payment.OrphanStatus(strings.ToUpper(filter.Status))
		if !st.IsValid() {
			return nil, 0, shared.ErrInvalidInput.Withf("invalid orphan status %q", filter.Status)
		}
		status = &st
	}

	orphans, total, err := s.orphans.List(ctx, status, base.Normalize())
	if err != nil {
		return nil, 0, err
	}
	out := make([]OrphanResponse, len(orphans))
	for i := range orphans {
		out[i] = ToOrphanResponse(&orphans[i])
	}
	return out, total, nil
}

// RetryOrphan puts a FAILED orphan back into the sweep
func (s *ReconciliationService) RetryOrphan(ctx context.Context, id uuid.UUID) (*OrphanResponse, error) {
	orphan, err := s.orphans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := orphan.Retry(); err != nil {
		return nil, err
	}
	if err := s.orphans.Save(ctx, orphan); err != nil {
		return nil, err
	}
	s.logger.Info("Orphan payment queued for retry", zap.String("intent_id", orphan.PaymentIntentID))
	response := ToOrphanResponse(orphan)
	return &response, nil
}

// findOrder looks the order up by the ID carried in the intent metadata,
// falling back to the intent ID recorded on the order
func (s *ReconciliationService) findOrder(ctx context.Context, orderID *uuid.UUID, intentID string) (*order.Order, error) {
	if orderID != nil {
		o, err := s.orders.FindByID(ctx, *orderID)
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	return s.orders.FindByPaymentIntent(ctx, intentID)
}

func (s *ReconciliationService) publish(ctx context.Context, o *order.Order) {
	if err := shared.PublishAndClear(ctx, s.publisher, o); err != nil {
		s.logger.Warn("Failed to publish order events",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
	}
}
