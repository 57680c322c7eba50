package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	cartapp "github.com/storefront/backend/internal/application/cart"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/customer"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

const (
	idempotencyKeyPrefix = "checkout:"
	maxIdempotencyKeyLen = 255
	// DefaultIdempotencyTTL is how long a checkout key maps to its order
	DefaultIdempotencyTTL = 24 * time.Hour
)

// OrderCanceller undoes an order whose payment could not be set up
type OrderCanceller interface {
	CancelUnpaid(ctx context.Context, id uuid.UUID, reason string) error
}

// Config holds checkout settings
type Config struct {
	Currency       string
	IdempotencyTTL time.Duration
}

// Deps groups the collaborators of the checkout service
type Deps struct {
	Orders          order.Repository
	Stock           catalog.StockRepository
	Customers       customer.Repository
	DeliveryOptions shipping.DeliveryOptionRepository
	Carts           cart.Store
	Pricer          *cartapp.Pricer
	Gateway         payment.Gateway
	Idempotency     shared.IdempotencyStore
	Canceller       OrderCanceller
	TxManager       shared.TxManager
	Publisher       shared.EventPublisher
	Logger          *zap.Logger
}

// CheckoutService turns a cart into a pending order with a payment intent
type CheckoutService struct {
	Deps
	cfg Config
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(deps Deps, cfg Config) *CheckoutService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = DefaultIdempotencyTTL
	}
	return &CheckoutService{Deps: deps, cfg: cfg}
}

// Checkout places an order. Stock is taken in the same transaction that
// creates the order, so a shortage on any line places nothing. With an
// idempotency key, a repeated request returns the order of the first one.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest, idempotencyKey string) (resp *CheckoutResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "Checkout")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if len(idempotencyKey) > maxIdempotencyKeyLen {
		return nil, shared.ErrInvalidInput.Withf("idempotency key cannot exceed %d characters", maxIdempotencyKeyLen)
	}

	items, err := s.resolveItems(ctx, req)
	if err != nil {
		return nil, err
	}
	o, err := s.buildOrder(ctx, req, items)
	if err != nil {
		return nil, err
	}

	if idempotencyKey != "" {
		existing, reserved, err := s.Idempotency.Reserve(ctx, idempotencyKeyPrefix+idempotencyKey, o.ID.String(), s.cfg.IdempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if !reserved {
			return s.replay(ctx, existing)
		}
	}

	resp, err = s.place(ctx, req, o)
	if err != nil && idempotencyKey != "" {
		if rerr := s.Idempotency.Release(ctx, idempotencyKeyPrefix+idempotencyKey); rerr != nil {
			s.Logger.Warn("Failed to release idempotency key", zap.Error(rerr))
		}
	}
	return resp, err
}

func (s *CheckoutService) place(ctx context.Context, req CheckoutRequest, o *order.Order) (*CheckoutResponse, error) {
	err := s.TxManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Orders.Save(ctx, o); err != nil {
			return err
		}
		for _, item := range o.Items {
			if err := s.Stock.Decrease(ctx, *item.VariantID, item.Quantity); err != nil {
				if errors.Is(err, shared.ErrInsufficientStock) {
					return shared.ErrInsufficientStock.Withf("insufficient stock for %s", item.SKU)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(trace.SpanFromContext(ctx), "order.id", o.ID.String(), "order.number", o.Number)

	intent, err := s.Gateway.CreateIntent(ctx, payment.CreateIntentRequest{
		OrderID:        o.ID,
		OrderNumber:    o.Number,
		Amount:         o.Total,
		Currency:       o.Currency,
		Email:          o.Email,
		IdempotencyKey: o.ID.String(),
	})
	if err != nil {
		s.Logger.Error("Payment intent creation failed, cancelling order",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
		if cerr := s.Canceller.CancelUnpaid(ctx, o.ID, "payment setup failed"); cerr != nil {
			s.Logger.Error("Failed to cancel order after intent failure",
				zap.String("order_id", o.ID.String()),
				zap.Error(cerr))
		}
		return nil, shared.ErrExternalService.Wrap(err)
	}

	o.AttachPaymentIntent(intent.ID)
	if err := s.Orders.SaveWithLock(ctx, o); err != nil {
		return nil, fmt.Errorf("attach payment intent: %w", err)
	}

	if req.CartID != nil {
		if err := s.Carts.Delete(ctx, *req.CartID); err != nil {
			s.Logger.Warn("Failed to clear cart after checkout",
				zap.String("cart_id", req.CartID.String()),
				zap.Error(err))
		}
	}
	if err := shared.PublishAndClear(ctx, s.Publisher, o); err != nil {
		s.Logger.Warn("Failed to publish order events", zap.String("order_id", o.ID.String()), zap.Error(err))
	}

	s.Logger.Info("Order placed",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.Number),
		zap.String("total", o.Total.String()),
		zap.String("intent_id", intent.ID))

	return &CheckoutResponse{
		Order:        orderapp.ToOrderResponse(o),
		ClientSecret: intent.ClientSecret,
	}, nil
}

// replay answers a repeated request with the order created by the first one
func (s *CheckoutService) replay(ctx context.Context, orderID string) (*CheckoutResponse, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, fmt.Errorf("corrupt idempotency entry: %w", err)
	}
	o, err := s.Orders.FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrConcurrentModification.Withf("a checkout with this idempotency key is in progress")
	}
	if err != nil {
		return nil, err
	}

	resp := &CheckoutResponse{Order: orderapp.ToOrderResponse(o), Replayed: true}
	if o.Status == order.StatusPending && o.PaymentIntentID != "" {
		intent, err := s.Gateway.GetIntent(ctx, o.PaymentIntentID)
		if err != nil {
			return nil, err
		}
		resp.ClientSecret = intent.ClientSecret
	}
	return resp, nil
}

func (s *CheckoutService) resolveItems(ctx context.Context, req CheckoutRequest) ([]cart.Item, error) {
	switch {
	case req.CartID != nil && len(req.Items) > 0:
		return nil, shared.ErrInvalidInput.Withf("provide either cart_id or items, not both")
	case req.CartID != nil:
		c, err := s.Carts.Get(ctx, *req.CartID)
		if err != nil {
			return nil, err
		}
		if c.IsEmpty() {
			return nil, shared.ErrInvalidInput.Withf("cart is empty")
		}
		return c.Items, nil
	case len(req.Items) > 0:
		c := cart.New()
		for _, line := range req.Items {
			if err := c.SetItem(line.VariantID, line.Quantity); err != nil {
				return nil, err
			}
		}
		return c.Items, nil
	default:
		return nil, shared.ErrInvalidInput.Withf("checkout requires a cart or items")
	}
}

// buildOrder prices the lines and assembles the order in memory
func (s *CheckoutService) buildOrder(ctx context.Context, req CheckoutRequest, items []cart.Item) (*order.Order, error) {
	lines, _, err := s.Pricer.Price(ctx, items)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		switch line.Reason {
		case "":
		case cartapp.ReasonNotFound:
			return nil, shared.ErrNotFound.Withf("variant %s not found", line.VariantID)
		case cartapp.ReasonOutOfStock, cartapp.ReasonNotEnoughLeft:
			return nil, shared.ErrInsufficientStock.Withf("insufficient stock for %s", line.SKU)
		default:
			return nil, shared.ErrInvalidState.Withf("%s is not for sale", line.SKU)
		}
	}

	customerID, err := s.resolveCustomer(ctx, req)
	if err != nil {
		return nil, err
	}

	o, err := order.NewOrder(req.Email, customerID, req.ShippingAddress, s.cfg.Currency)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		name := line.ProductName
		if line.VariantName != "" {
			name += " - " + line.VariantName
		}
		if err := o.AddItem(line.VariantID, line.SKU, name, line.UnitPrice, line.Quantity); err != nil {
			return nil, err
		}
	}

	if req.DeliveryOptionID != nil {
		option, err := s.DeliveryOptions.FindByID(ctx, *req.DeliveryOptionID)
		if err != nil {
			return nil, err
		}
		if !option.Active {
			return nil, shared.ErrInvalidInput.Withf("delivery option %s is not available", option.Name)
		}
		if err := o.SetShipping(&option.ID, option.Price); err != nil {
			return nil, err
		}
	}

	if err := o.Place(); err != nil {
		return nil, err
	}
	return o, nil
}

// resolveCustomer links the order to an account: the given customer, or the
// customer whose email matches the guest email.
func (s *CheckoutService) resolveCustomer(ctx context.Context, req CheckoutRequest) (*uuid.UUID, error) {
	if req.CustomerID != nil {
		c, err := s.Customers.FindByID(ctx, *req.CustomerID)
		if err != nil {
			return nil, err
		}
		return &c.ID, nil
	}

	email, err := shared.NormalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	c, err := s.Customers.FindByEmail(ctx, email)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c.ID, nil
}
