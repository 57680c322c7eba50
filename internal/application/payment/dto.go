package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/payment"
)

// OrphanListFilter represents query parameters of the orphan payment listing
type OrphanListFilter struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// OrphanResponse represents an orphan payment in API responses
type OrphanResponse struct {
	ID              uuid.UUID       `json:"id"`
	PaymentIntentID string          `json:"payment_intent_id"`
	OrderID         *uuid.UUID      `json:"order_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Reason          string          `json:"reason"`
	Status          string          `json:"status"`
	RefundID        string          `json:"refund_id,omitempty"`
	Attempts        int             `json:"attempts"`
	LastError       string          `json:"last_error,omitempty"`
	DetectedAt      time.Time       `json:"detected_at"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty"`
}

// ToOrphanResponse converts a domain OrphanPayment to OrphanResponse
func ToOrphanResponse(p *payment.OrphanPayment) OrphanResponse {
	return OrphanResponse{
		ID:              p.ID,
		PaymentIntentID: p.PaymentIntentID,
		OrderID:         p.OrderID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Reason:          string(p.Reason),
		Status:          string(p.Status),
		RefundID:        p.RefundID,
		Attempts:        p.Attempts,
		LastError:       p.LastError,
		DetectedAt:      p.DetectedAt,
		ResolvedAt:      p.ResolvedAt,
	}
}

// WebhookResult describes how a payment webhook was handled
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Duplicate bool   `json:"duplicate"`
}

// SweepResult summarizes one orphan sweep
type SweepResult struct {
	Checked  int `json:"checked"`
	Matched  int `json:"matched"`
	Refunded int `json:"refunded"`
	Failed   int `json:"failed"`
}

// ScanResult summarizes one payment scan
type ScanResult struct {
	Checked     int `json:"checked"`
	Paid        int `json:"paid"`
	AlreadyPaid int `json:"already_paid"`
	Orphaned    int `json:"orphaned"`
}
