package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/payment"
)

// OrphanPaymentModel is the persistence model for an orphan payment.
// payment_intent_id is unique so concurrent detections collapse to one row.
type OrphanPaymentModel struct {
	BaseModel
	PaymentIntentID string               `gorm:"type:varchar(255);not null;uniqueIndex:idx_orphan_payments_intent"`
	OrderID         *uuid.UUID           `gorm:"type:uuid;index"`
	Amount          decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency        string               `gorm:"type:char(3);not null"`
	Reason          payment.OrphanReason `gorm:"type:varchar(30);not null"`
	Status          payment.OrphanStatus `gorm:"type:varchar(20);not null;index"`
	RefundID        string               `gorm:"type:varchar(255)"`
	Attempts        int                  `gorm:"not null;default:0"`
	LastError       string               `gorm:"type:text"`
	DetectedAt      time.Time            `gorm:"not null;index"`
	ResolvedAt      *time.Time
}

// TableName returns the table name for GORM
func (OrphanPaymentModel) TableName() string {
	return "orphan_payments"
}

// ToDomain converts the persistence model to a domain OrphanPayment
func (m *OrphanPaymentModel) ToDomain() *payment.OrphanPayment {
	return &payment.OrphanPayment{
		BaseEntity:      m.BaseModel.ToDomain(),
		PaymentIntentID: m.PaymentIntentID,
		OrderID:         m.OrderID,
		Amount:          m.Amount,
		Currency:        m.Currency,
		Reason:          m.Reason,
		Status:          m.Status,
		RefundID:        m.RefundID,
		Attempts:        m.Attempts,
		LastError:       m.LastError,
		DetectedAt:      m.DetectedAt,
		ResolvedAt:      m.ResolvedAt,
	}
}

// OrphanPaymentModelFromDomain creates a persistence model from a domain OrphanPayment
func OrphanPaymentModelFromDomain(p *payment.OrphanPayment) *OrphanPaymentModel {
	m := &OrphanPaymentModel{
		PaymentIntentID: p.PaymentIntentID,
		OrderID:         p.OrderID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Reason:          p.Reason,
		Status:          p.Status,
		RefundID:        p.RefundID,
		Attempts:        p.Attempts,
		LastError:       p.LastError,
		DetectedAt:      p.DetectedAt,
		ResolvedAt:      p.ResolvedAt,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
