package payment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// OrphanReason explains why a captured payment could not be applied to an order
type OrphanReason string

const (
	ReasonOrderNotFound    OrphanReason = "ORDER_NOT_FOUND"
	ReasonOrderCancelled   OrphanReason = "ORDER_CANCELLED"
	ReasonAmountMismatch   OrphanReason = "AMOUNT_MISMATCH"
	ReasonDuplicatePayment OrphanReason = "DUPLICATE_PAYMENT"
)

// OrphanStatus is the resolution status of an orphan payment
type OrphanStatus string

const (
	OrphanStatusDetected OrphanStatus = "DETECTED"
	OrphanStatusRefunded OrphanStatus = "REFUNDED"
	OrphanStatusMatched  OrphanStatus = "MATCHED"
	OrphanStatusFailed   OrphanStatus = "FAILED"
)

// IsValid checks if the status is a valid OrphanStatus
func (s OrphanStatus) IsValid() bool {
	switch s {
	case OrphanStatusDetected, OrphanStatusRefunded, OrphanStatusMatched, OrphanStatusFailed:
		return true
	}
	return false
}

// OrphanPayment is money captured by the gateway that no live order accounts for
type OrphanPayment struct {
	shared.BaseEntity
	PaymentIntentID string
	OrderID         *uuid.UUID
	Amount          decimal.Decimal
	Currency        string
	Reason          OrphanReason
	Status          OrphanStatus
	RefundID        string
	Attempts        int
	LastError       string
	DetectedAt      time.Time
	ResolvedAt      *time.Time
}

// NewOrphanPayment records a freshly detected orphan
func NewOrphanPayment(intentID string, orderID *uuid.UUID, amount decimal.Decimal, currency string, reason OrphanReason) (*OrphanPayment, error) {
	if strings.TrimSpace(intentID) == "" {
		return nil, shared.ErrInvalidInput.Withf("payment intent id is required")
	}
	base := shared.NewBaseEntity()
	return &OrphanPayment{
		BaseEntity:      base,
		PaymentIntentID: intentID,
		OrderID:         orderID,
		Amount:          amount,
		Currency:        strings.ToUpper(currency),
		Reason:          reason,
		Status:          OrphanStatusDetected,
		DetectedAt:      base.CreatedAt,
	}, nil
}

// RefundKey is the gateway idempotency key for refunding this orphan
func (p *OrphanPayment) RefundKey() string {
	return "orphan-refund:" + p.PaymentIntentID
}

// DueForSweep reports whether the orphan waited out the grace period
func (p *OrphanPayment) DueForSweep(now time.Time, grace time.Duration) bool {
	return p.Status == OrphanStatusDetected && !p.DetectedAt.After(now.Add(-grace))
}

// MarkRefunded resolves the orphan by returning the money
func (p *OrphanPayment) MarkRefunded(refundID string) error {
	if p.Status == OrphanStatusRefunded || p.Status == OrphanStatusMatched {
		return shared.ErrInvalidState.Withf("orphan payment %s already resolved", p.PaymentIntentID)
	}
	now := time.Now()
	p.Status = OrphanStatusRefunded
	p.RefundID = refundID
	p.LastError = ""
	p.ResolvedAt = &now
	p.UpdatedAt = now
	return nil
}

// MarkMatched resolves the orphan by attaching it to an order that turned up later
func (p *OrphanPayment) MarkMatched(orderID uuid.UUID) error {
	if p.Status != OrphanStatusDetected {
		return shared.ErrInvalidState.Withf("orphan payment %s is %s", p.PaymentIntentID, p.Status)
	}
	now := time.Now()
	p.Status = OrphanStatusMatched
	p.OrderID = &orderID
	p.ResolvedAt = &now
	p.UpdatedAt = now
	return nil
}

// RecordFailure counts a failed refund attempt. The orphan is parked as FAILED
// for manual review once maxAttempts is reached.
func (p *OrphanPayment) RecordFailure(err error, maxAttempts int) {
	p.Attempts++
	p.LastError = err.Error()
	if p.Attempts >= maxAttempts {
		p.Status = OrphanStatusFailed
	}
	p.Touch()
}

// Retry puts a FAILED orphan back into the sweep
func (p *OrphanPayment) Retry() error {
	if p.Status != OrphanStatusFailed {
		return shared.ErrInvalidState.Withf("only failed orphan payments can be retried")
	}
	p.Status = OrphanStatusDetected
	p.Attempts = 0
	p.Touch()
	return nil
}

// OrphanRepository defines the interface for orphan payment persistence
type OrphanRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*OrphanPayment, error)
	FindByIntent(ctx context.Context, intentID string) (*OrphanPayment, error)
	List(ctx context.Context, status *OrphanStatus, filter shared.Filter) ([]OrphanPayment, int64, error)
	// Upsert inserts the orphan unless one already exists for the intent.
	// Returns the stored row and whether it was created.
	Upsert(ctx context.Context, orphan *OrphanPayment) (*OrphanPayment, bool, error)
	Save(ctx context.Context, orphan *OrphanPayment) error
	// FindDue returns DETECTED orphans detected before cutoff, oldest first
	FindDue(ctx context.Context, cutoff time.Time, limit int) ([]OrphanPayment, error)
}
