package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/refund"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
)

const (
	metadataOrderID     = "order_id"
	metadataOrderNumber = "order_number"

	defaultWebhookTolerance = 5 * time.Minute
)

// StripeGateway implements payment.Gateway on top of the Stripe API
type StripeGateway struct {
	intents       *paymentintent.Client
	refunds       *refund.Client
	webhookSecret string
	tolerance     time.Duration
	logger        *zap.Logger
}

var _ payment.Gateway = (*StripeGateway)(nil)

// NewStripeGateway creates a gateway bound to its own backend, so several
// gateways (or tests) never share the package level stripe.Key.
func NewStripeGateway(cfg config.StripeConfig, logger *zap.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe: secret key is required")
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("stripe: webhook secret is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: 30 * time.Second},
		LeveledLogger:     logger.Named("stripe").Sugar(),
		MaxNetworkRetries: stripe.Int64(2),
	}
	if cfg.BackendURL != "" {
		backendCfg.URL = stripe.String(strings.TrimRight(cfg.BackendURL, "/"))
		backendCfg.MaxNetworkRetries = stripe.Int64(0)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)

	tolerance := cfg.Tolerance
	if tolerance <= 0 {
		tolerance = defaultWebhookTolerance
	}

	return &StripeGateway{
		intents:       &paymentintent.Client{B: backend, Key: cfg.SecretKey},
		refunds:       &refund.Client{B: backend, Key: cfg.SecretKey},
		webhookSecret: cfg.WebhookSecret,
		tolerance:     tolerance,
		logger:        logger,
	}, nil
}

// CreateIntent creates a payment intent carrying the order reference in its metadata
func (g *StripeGateway) CreateIntent(ctx context.Context, req payment.CreateIntentRequest) (*payment.Intent, error) {
	if !req.Amount.IsPositive() {
		return nil, shared.ErrInvalidInput.Withf("payment amount must be positive")
	}

	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(shared.ToMinorUnits(req.Amount, req.Currency)),
		Currency:     stripe.String(strings.ToLower(req.Currency)),
		ReceiptEmail: stripe.String(req.Email),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataOrderID, req.OrderID.String())
	params.AddMetadata(metadataOrderNumber, req.OrderNumber)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	g.logger.Debug("Creating payment intent",
		zap.String("order_number", req.OrderNumber),
		zap.String("amount", req.Amount.String()),
		zap.String("currency", req.Currency))

	pi, err := g.intents.New(params)
	if err != nil {
		g.logger.Error("Failed to create payment intent",
			zap.String("order_number", req.OrderNumber),
			zap.Error(err))
		return nil, mapStripeError("create payment intent", err)
	}

	g.logger.Info("Payment intent created",
		zap.String("intent_id", pi.ID),
		zap.String("order_number", req.OrderNumber))
	return toIntent(pi), nil
}

// GetIntent fetches the current state of an intent
func (g *StripeGateway) GetIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	if intentID == "" {
		return nil, shared.ErrInvalidInput.Withf("intent id is required")
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.intents.Get(intentID, params)
	if err != nil {
		return nil, mapStripeError("get payment intent", err)
	}
	return toIntent(pi), nil
}

// Refund returns money for an intent. A nil amount refunds the full charge.
func (g *StripeGateway) Refund(ctx context.Context, req payment.RefundRequest) (*payment.Refund, error) {
	if req.IntentID == "" {
		return nil, shared.ErrInvalidInput.Withf("intent id is required")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.IntentID),
	}
	params.Context = ctx
	if req.Amount != nil {
		if req.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, shared.ErrInvalidInput.Withf("refund amount must be positive")
		}
		params.Amount = stripe.Int64(shared.ToMinorUnits(*req.Amount, req.Currency))
	}
	if reason := refundReason(req.Reason); reason != "" {
		params.Reason = stripe.String(reason)
	}
	if req.Reason != "" {
		params.AddMetadata("reason", req.Reason)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	r, err := g.refunds.New(params)
	if err != nil {
		g.logger.Error("Failed to refund payment intent",
			zap.String("intent_id", req.IntentID),
			zap.Error(err))
		return nil, mapStripeError("refund payment intent", err)
	}

	g.logger.Info("Refund created",
		zap.String("intent_id", req.IntentID),
		zap.String("refund_id", r.ID),
		zap.String("status", string(r.Status)))
	return &payment.Refund{
		ID:     r.ID,
		Amount: shared.FromMinorUnits(r.Amount, string(r.Currency)),
		Status: string(r.Status),
	}, nil
}

// ListSucceededIntents pages through intents created since the given time
// and keeps the succeeded ones.
func (g *StripeGateway) ListSucceededIntents(ctx context.Context, since time.Time) ([]payment.Intent, error) {
	params := &stripe.PaymentIntentListParams{
		CreatedRange: &stripe.RangeQueryParams{GreaterThanOrEqual: since.Unix()},
	}
	params.Context = ctx
	params.Limit = stripe.Int64(100)

	var result []payment.Intent
	iter := g.intents.List(params)
	for iter.Next() {
		pi := iter.PaymentIntent()
		if pi.Status != stripe.PaymentIntentStatusSucceeded {
			continue
		}
		result = append(result, *toIntent(pi))
	}
	if err := iter.Err(); err != nil {
		return nil, mapStripeError("list payment intents", err)
	}
	return result, nil
}

// ParseWebhook verifies the Stripe-Signature header and normalizes the event
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*payment.GatewayEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                g.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, payment.ErrInvalidSignature.Wrap(err)
	}

	evt := &payment.GatewayEvent{
		ID:      event.ID,
		Type:    string(event.Type),
		Payload: payload,
	}

	switch evt.Type {
	case payment.EventIntentSucceeded, payment.EventIntentFailed, payment.EventIntentCanceled:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, shared.ErrInvalidInput.Withf("malformed payment intent in event %s", event.ID)
		}
		evt.IntentID = pi.ID
		evt.OrderID = orderIDFromMetadata(pi.Metadata)
		evt.Currency = strings.ToUpper(string(pi.Currency))
		evt.Amount = shared.FromMinorUnits(intentReceived(&pi), evt.Currency)
		evt.Status = string(pi.Status)
		if pi.LastPaymentError != nil {
			evt.FailureMessage = pi.LastPaymentError.Msg
		}
	case payment.EventChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, shared.ErrInvalidInput.Withf("malformed charge in event %s", event.ID)
		}
		if ch.PaymentIntent != nil {
			evt.IntentID = ch.PaymentIntent.ID
		}
		evt.OrderID = orderIDFromMetadata(ch.Metadata)
		evt.Currency = strings.ToUpper(string(ch.Currency))
		evt.Amount = shared.FromMinorUnits(ch.Amount, evt.Currency)
		evt.AmountRefunded = shared.FromMinorUnits(ch.AmountRefunded, evt.Currency)
		evt.Status = string(ch.Status)
		evt.RefundID = ch.ID
		if ch.Refunds != nil && len(ch.Refunds.Data) > 0 && ch.Refunds.Data[0] != nil {
			evt.RefundID = ch.Refunds.Data[0].ID
		}
	}

	return evt, nil
}

func toIntent(pi *stripe.PaymentIntent) *payment.Intent {
	currency := strings.ToUpper(string(pi.Currency))
	return &payment.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       shared.FromMinorUnits(intentReceived(pi), currency),
		Currency:     currency,
		Status:       payment.IntentStatus(pi.Status),
		OrderID:      orderIDFromMetadata(pi.Metadata),
		CreatedAt:    time.Unix(pi.Created, 0).UTC(),
	}
}

// intentReceived prefers the captured amount once the intent succeeded
func intentReceived(pi *stripe.PaymentIntent) int64 {
	if pi.Status == stripe.PaymentIntentStatusSucceeded && pi.AmountReceived > 0 {
		return pi.AmountReceived
	}
	return pi.Amount
}

func orderIDFromMetadata(md map[string]string) *uuid.UUID {
	raw, ok := md[metadataOrderID]
	if !ok {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// refundReason maps free text onto the reasons Stripe accepts
func refundReason(reason string) string {
	r := strings.ToLower(reason)
	switch {
	case strings.Contains(r, "duplicate"):
		return string(stripe.RefundReasonDuplicate)
	case strings.Contains(r, "fraud"):
		return string(stripe.RefundReasonFraudulent)
	case r != "":
		return string(stripe.RefundReasonRequestedByCustomer)
	}
	return ""
}

// mapStripeError classifies API errors: 404 becomes not found, 4xx invalid
// input, everything else is reported as the gateway being unavailable.
func mapStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.HTTPStatusCode == http.StatusNotFound:
			return shared.ErrNotFound.Wrap(fmt.Errorf("stripe: %s: %w", op, err))
		case stripeErr.Type == stripe.ErrorTypeCard:
			return shared.ErrPaymentFailed.Wrap(fmt.Errorf("stripe: %s: %w", op, err))
		case stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500 &&
			stripeErr.HTTPStatusCode != http.StatusTooManyRequests:
			return shared.ErrInvalidInput.Wrap(fmt.Errorf("stripe: %s: %w", op, err))
		}
	}
	return payment.ErrGatewayUnavailable.Wrap(fmt.Errorf("stripe: %s: %w", op, err))
}
