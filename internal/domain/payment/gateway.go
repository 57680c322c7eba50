package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gateway event types
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
	EventIntentCanceled  = "payment_intent.canceled"
	EventChargeRefunded  = "charge.refunded"
)

// IntentStatus mirrors the gateway status of a payment intent
type IntentStatus string

const (
	IntentStatusRequiresPayment IntentStatus = "requires_payment_method"
	IntentStatusProcessing      IntentStatus = "processing"
	IntentStatusSucceeded       IntentStatus = "succeeded"
	IntentStatusCanceled        IntentStatus = "canceled"
)

// CreateIntentRequest describes a payment intent for an order
type CreateIntentRequest struct {
	OrderID        uuid.UUID
	OrderNumber    string
	Amount         decimal.Decimal
	Currency       string
	Email          string
	IdempotencyKey string
}

// Intent is the gateway's view of a payment
type Intent struct {
	ID           string
	ClientSecret string
	Amount       decimal.Decimal
	Currency     string
	Status       IntentStatus
	OrderID      *uuid.UUID
	CreatedAt    time.Time
}

// RefundRequest asks the gateway to return money. A nil amount refunds in full.
type RefundRequest struct {
	IntentID       string
	Amount         *decimal.Decimal
	Currency       string
	Reason         string
	IdempotencyKey string
}

// Refund is the result of a refund call
type Refund struct {
	ID     string
	Amount decimal.Decimal
	Status string
}

// GatewayEvent is a verified, normalized webhook notification
type GatewayEvent struct {
	ID             string
	Type           string
	IntentID       string
	OrderID        *uuid.UUID
	Amount         decimal.Decimal
	AmountRefunded decimal.Decimal
	RefundID       string
	Currency       string
	Status         string
	FailureMessage string
	Payload        []byte
}

// FullyRefunded reports whether a charge.refunded event covers the whole charge
func (e *GatewayEvent) FullyRefunded() bool {
	return e.AmountRefunded.IsPositive() && e.AmountRefunded.GreaterThanOrEqual(e.Amount)
}

// Gateway is the port to the external payment provider
type Gateway interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
	Refund(ctx context.Context, req RefundRequest) (*Refund, error)
	// ListSucceededIntents returns succeeded intents created after since
	ListSucceededIntents(ctx context.Context, since time.Time) ([]Intent, error)
	// ParseWebhook verifies the signature and decodes the event.
	// Returns ErrInvalidSignature when verification fails.
	ParseWebhook(payload []byte, signature string) (*GatewayEvent, error)
}
