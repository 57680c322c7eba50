package shipping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	webhookapp "github.com/storefront/backend/internal/application/webhook"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/domain/webhook"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// webhookEventType is recorded on shipping dedup rows
const webhookEventType = "tracking.updated"

// Config holds tracking sync settings
type Config struct {
	// SyncMinAge is how long a shipment may go without a poll
	SyncMinAge time.Duration
	BatchSize  int
}

// Deps groups the collaborators of ShippingService
type Deps struct {
	Shipments shipping.Repository
	Options   shipping.DeliveryOptionRepository
	Orders    order.Repository
	Provider  shipping.Provider
	Webhooks  *webhookapp.Processor
	TxManager shared.TxManager
	Publisher shared.EventPublisher
	Logger    *zap.Logger
}

// ShippingService buys labels and keeps shipments and their orders in step
// with carrier tracking, whether it arrives by webhook or by polling.
type ShippingService struct {
	shipments shipping.Repository
	options   shipping.DeliveryOptionRepository
	orders    order.Repository
	provider  shipping.Provider
	webhooks  *webhookapp.Processor
	txManager shared.TxManager
	publisher shared.EventPublisher
	logger    *zap.Logger
	cfg       Config
	now       func() time.Time
}

// NewShippingService creates a new ShippingService
func NewShippingService(deps Deps, cfg Config) *ShippingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SyncMinAge <= 0 {
		cfg.SyncMinAge = 30 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &ShippingService{
		shipments: deps.Shipments,
		options:   deps.Options,
		orders:    deps.Orders,
		provider:  deps.Provider,
		webhooks:  deps.Webhooks,
		txManager: deps.TxManager,
		publisher: deps.Publisher,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CreateShipment buys a label for a paid order and moves it to PROCESSING
func (s *ShippingService) CreateShipment(ctx context.Context, orderID uuid.UUID, req CreateShipmentRequest) (resp *ShipmentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shipping", "CreateShipment", "order.id", orderID.String())
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusPaid && o.Status != order.StatusProcessing {
		return nil, shared.ErrInvalidState.Withf("order %s cannot be shipped in %s status", o.Number, o.Status)
	}

	carrier, service := req.Carrier, req.Service
	if carrier == "" && o.DeliveryOptionID != nil {
		opt, err := s.options.FindByID(ctx, *o.DeliveryOptionID)
		switch {
		case err == nil:
			carrier, service = opt.Carrier, firstNonEmpty(service, opt.Service)
		case !errors.Is(err, shared.ErrNotFound):
			return nil, err
		}
	}

	label, err := s.provider.CreateShipment(ctx, shipping.Parcel{
		Reference: o.Number,
		Carrier:   carrier,
		Service:   service,
		Recipient: o.ShippingAddress,
		Email:     o.Email,
		Items:     o.ItemCount(),
	})
	if err != nil {
		return nil, err
	}

	shipment, err := shipping.NewShipment(o.ID, *label)
	if err != nil {
		return nil, shared.ErrExternalService.Wrap(err)
	}

	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.shipments.Save(ctx, shipment); err != nil {
			return err
		}
		if o.Status == order.StatusPaid {
			if err := o.StartProcessing(); err != nil {
				return err
			}
			return s.orders.SaveWithLock(ctx, o)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Label bought but shipment not saved",
			zap.String("order_id", o.ID.String()),
			zap.String("tracking_number", label.TrackingNumber),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Shipment created",
		zap.String("order_id", o.ID.String()),
		zap.String("shipment_id", shipment.ID.String()),
		zap.String("carrier", shipment.Carrier),
		zap.String("tracking_number", shipment.TrackingNumber))
	s.publish(ctx, o)

	response := ToShipmentResponse(shipment)
	return &response, nil
}

// GetShipment retrieves a shipment by ID
func (s *ShippingService) GetShipment(ctx context.Context, id uuid.UUID) (*ShipmentResponse, error) {
	shipment, err := s.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToShipmentResponse(shipment)
	return &response, nil
}

// ListByOrder retrieves the shipments of an order
func (s *ShippingService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]ShipmentResponse, error) {
	shipments, err := s.shipments.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]ShipmentResponse, len(shipments))
	for i := range shipments {
		out[i] = ToShipmentResponse(&shipments[i])
	}
	return out, nil
}

// HandleWebhook verifies and applies a carrier tracking notification.
// Updates for tracking numbers the store does not know are acknowledged.
func (s *ShippingService) HandleWebhook(ctx context.Context, payload []byte, signature string) (result *WebhookResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shipping", "HandleWebhook")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	update, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, shipping.ErrInvalidSignature) {
			s.logger.Warn("Rejected shipping webhook with invalid signature")
		}
		return nil, err
	}
	telemetry.SetAttributes(span,
		"webhook.event_id", update.EventID,
		"shipment.tracking_number", update.TrackingNumber)

	result = &WebhookResult{EventID: update.EventID}
	result.Duplicate, err = s.webhooks.Process(ctx, webhook.ProviderShipping, update.EventID, webhookEventType, payload,
		func(ctx context.Context) error {
			shipment, err := s.shipments.FindByTracking(ctx, update.Carrier, update.TrackingNumber)
			if errors.Is(err, shared.ErrNotFound) {
				s.logger.Info("Tracking update for unknown shipment ignored",
					zap.String("tracking_number", update.TrackingNumber),
					zap.String("carrier", update.Carrier))
				return nil
			}
			if err != nil {
				return err
			}
			result.Applied, err = s.apply(ctx, shipment, *update, false)
			return err
		})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SyncShipments polls the provider for live shipments that have not been
// synced recently. A zero limit uses the configured batch size.
func (s *ShippingService) SyncShipments(ctx context.Context, limit int) (result *SyncResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shipping", "SyncShipments")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if limit <= 0 {
		limit = s.cfg.BatchSize
	}
	due, err := s.shipments.FindDueForSync(ctx, s.now().Add(-s.cfg.SyncMinAge), limit)
	if err != nil {
		return nil, fmt.Errorf("find shipments due for sync: %w", err)
	}

	result = &SyncResult{}
	var errs []error
	for i := range due {
		result.Checked++
		changed, err := s.sync(ctx, &due[i])
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("shipment %s: %w", due[i].TrackingNumber, err))
			continue
		}
		if changed {
			result.Updated++
		}
	}

	telemetry.SetAttributes(span, "sync.checked", result.Checked, "sync.updated", result.Updated)
	if result.Checked > 0 {
		s.logger.Info("Shipment sync finished",
			zap.Int("checked", result.Checked),
			zap.Int("updated", result.Updated),
			zap.Int("failed", result.Failed))
	}
	return result, errors.Join(errs...)
}

// SyncShipment polls the provider for one shipment right away
func (s *ShippingService) SyncShipment(ctx context.Context, id uuid.UUID) (*ShipmentResponse, error) {
	shipment, err := s.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.sync(ctx, shipment); err != nil {
		return nil, err
	}
	response := ToShipmentResponse(shipment)
	return &response, nil
}

func (s *ShippingService) sync(ctx context.Context, shipment *shipping.Shipment) (bool, error) {
	update, err := s.provider.Track(ctx, shipment.Carrier, shipment.TrackingNumber)
	if err != nil {
		return false, err
	}
	return s.apply(ctx, shipment, *update, true)
}

// apply records the update on the shipment and carries the implied status
// over to the order. Both are written in one transaction.
func (s *ShippingService) apply(ctx context.Context, shipment *shipping.Shipment, update shipping.TrackingUpdate, polled bool) (bool, error) {
	changed := shipment.Apply(update)
	if polled {
		shipment.MarkSynced(s.now())
	}
	if !changed && !polled {
		return false, nil
	}

	var o *order.Order
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.shipments.SaveWithLock(ctx, shipment); err != nil {
			return err
		}
		if !changed {
			return nil
		}
		target, ok := shipment.Status.OrderStatus()
		if !ok {
			return nil
		}
		var err error
		o, err = s.orders.FindByID(ctx, shipment.OrderID)
		if err != nil {
			return err
		}
		moved, err := advanceOrder(o, target, shipment.TrackingNumber)
		if err != nil || !moved {
			return err
		}
		return s.orders.SaveWithLock(ctx, o)
	})
	if err != nil {
		return false, err
	}

	if changed {
		s.logger.Info("Shipment status changed",
			zap.String("shipment_id", shipment.ID.String()),
			zap.String("tracking_number", shipment.TrackingNumber),
			zap.String("status", string(shipment.Status)))
	}
	if o != nil {
		s.publish(ctx, o)
	}
	return changed, nil
}

// advanceOrder moves the order towards target when its state machine allows.
// A paid order that skipped the in-transit scans is shipped on the way to
// delivered. Orders already further along are left alone.
func advanceOrder(o *order.Order, target order.Status, trackingNumber string) (bool, error) {
	if o.Status == target {
		return false, nil
	}
	if !o.Status.CanTransitionTo(target) {
		if target != order.StatusDelivered || !o.Status.CanTransitionTo(order.StatusShipped) {
			return false, nil
		}
		if err := o.MarkShipped(trackingNumber); err != nil {
			return false, err
		}
	}
	if err := o.TransitionTo(target, trackingNumber); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ShippingService) publish(ctx context.Context, o *order.Order) {
	if err := shared.PublishAndClear(ctx, s.publisher, o); err != nil {
		s.logger.Warn("Failed to publish order events",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
