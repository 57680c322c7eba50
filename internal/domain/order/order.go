package order

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// MaxItemQuantity caps a single order line
const MaxItemQuantity = 99

// ErrAmountMismatch is returned when a payment does not cover the order total exactly
var ErrAmountMismatch = shared.NewDomainError("AMOUNT_MISMATCH", "Paid amount does not match order total")

// Item is a line of an order. Product data is snapshotted at checkout
// so the line survives later catalog changes.
type Item struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	VariantID *uuid.UUID
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
}

// Order is the aggregate root of the order context
type Order struct {
	shared.BaseAggregateRoot
	Number           string
	CustomerID       *uuid.UUID
	Email            string
	ShippingAddress  shared.Address
	Items            []Item
	Subtotal         decimal.Decimal
	ShippingFee      decimal.Decimal
	Total            decimal.Decimal
	Currency         string
	Status           Status
	PaymentStatus    PaymentStatus
	PaymentIntentID  string
	DeliveryOptionID *uuid.UUID
	PaidAt           *time.Time
	ShippedAt        *time.Time
	DeliveredAt      *time.Time
	CancelledAt      *time.Time
	RefundedAt       *time.Time
	CancelReason     string
	RefundID         string
}

// NewNumber generates a human readable order number such as SF-20261018-4F9A2C
func NewNumber(now time.Time) string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("SF-%s-%s", now.UTC().Format("20060102"), strings.ToUpper(hex.EncodeToString(buf)))
}

// NewOrder creates an empty pending order
func NewOrder(email string, customerID *uuid.UUID, addr shared.Address, currency string) (*Order, error) {
	normalized, err := shared.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	addr = addr.Normalize()
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return nil, shared.ErrInvalidInput.Withf("currency must be an ISO 4217 code")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Email:             normalized,
		ShippingAddress:   addr,
		Items:             []Item{},
		Subtotal:          decimal.Zero,
		ShippingFee:       decimal.Zero,
		Total:             decimal.Zero,
		Currency:          currency,
		Status:            StatusPending,
		PaymentStatus:     PaymentStatusUnpaid,
	}
	o.Number = NewNumber(o.CreatedAt)
	return o, nil
}

// AddItem appends a line. Lines for the same variant are merged.
func (o *Order) AddItem(variantID uuid.UUID, sku, name string, unitPrice decimal.Decimal, qty int) error {
	if o.Status != StatusPending || o.PaymentIntentID != "" {
		return shared.ErrInvalidState.Withf("cannot modify order %s", o.Number)
	}
	if qty <= 0 || qty > MaxItemQuantity {
		return shared.ErrInvalidInput.Withf("quantity must be between 1 and %d", MaxItemQuantity)
	}
	if unitPrice.IsNegative() {
		return shared.ErrInvalidInput.Withf("unit price cannot be negative")
	}
	if err := shared.CheckPrecision(unitPrice, o.Currency); err != nil {
		return err
	}

	for i := range o.Items {
		if o.Items[i].VariantID != nil && *o.Items[i].VariantID == variantID {
			merged := o.Items[i].Quantity + qty
			if merged > MaxItemQuantity {
				return shared.ErrInvalidInput.Withf("quantity must be between 1 and %d", MaxItemQuantity)
			}
			o.Items[i].Quantity = merged
			o.Items[i].LineTotal = o.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(merged)))
			o.recalculate()
			return nil
		}
	}

	vid := variantID
	o.Items = append(o.Items, Item{
		ID:        uuid.New(),
		OrderID:   o.ID,
		VariantID: &vid,
		SKU:       sku,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  qty,
		LineTotal: unitPrice.Mul(decimal.NewFromInt(int64(qty))),
	})
	o.recalculate()
	return nil
}

// SetShipping sets the delivery option and its fee
func (o *Order) SetShipping(deliveryOptionID *uuid.UUID, fee decimal.Decimal) error {
	if fee.IsNegative() {
		return shared.ErrInvalidInput.Withf("shipping fee cannot be negative")
	}
	if err := shared.CheckPrecision(fee, o.Currency); err != nil {
		return err
	}
	o.DeliveryOptionID = deliveryOptionID
	o.ShippingFee = fee
	o.recalculate()
	return nil
}

// Place finalizes a new order and raises order.placed
func (o *Order) Place() error {
	if len(o.Items) == 0 {
		return shared.ErrInvalidInput.Withf("order has no items")
	}
	if !o.Total.IsPositive() {
		return shared.ErrInvalidInput.Withf("order total must be positive")
	}
	o.AddDomainEvent(NewEvent(EventTypePlaced, o))
	return nil
}

// AttachPaymentIntent records the gateway intent created for this order
func (o *Order) AttachPaymentIntent(intentID string) {
	o.PaymentIntentID = intentID
	o.Touch()
}

// MarkPaid records a successful payment of exactly the order total
func (o *Order) MarkPaid(intentID string, amount decimal.Decimal) error {
	if o.Status != StatusPending {
		return shared.ErrInvalidState.Withf("cannot mark order %s paid in %s status", o.Number, o.Status)
	}
	if !amount.Equal(o.Total) {
		return ErrAmountMismatch.Withf("order %s total %s, paid %s", o.Number, o.Total, amount)
	}

	now := time.Now()
	o.Status = StatusPaid
	o.PaymentStatus = PaymentStatusPaid
	o.PaymentIntentID = intentID
	o.PaidAt = &now
	o.UpdatedAt = now
	o.AddDomainEvent(NewEvent(EventTypePaid, o))
	return nil
}

// IsPaidBy reports whether the order was paid with the given intent
func (o *Order) IsPaidBy(intentID string) bool {
	return o.PaymentStatus == PaymentStatusPaid && o.PaymentIntentID == intentID
}

// MarkPaymentFailed records a failed attempt. The order stays pending so the customer can retry.
func (o *Order) MarkPaymentFailed(reason string) error {
	if o.Status != StatusPending {
		return shared.ErrInvalidState.Withf("cannot fail payment of order %s in %s status", o.Number, o.Status)
	}
	o.PaymentStatus = PaymentStatusFailed
	o.Touch()
	evt := NewEvent(EventTypePaymentFailed, o)
	evt.Reason = reason
	o.AddDomainEvent(evt)
	return nil
}

// StartProcessing marks the order as being picked and packed
func (o *Order) StartProcessing() error {
	if err := o.transition(StatusProcessing); err != nil {
		return err
	}
	o.AddDomainEvent(NewEvent(EventTypeProcessing, o))
	return nil
}

// MarkShipped marks the order as handed to the carrier
func (o *Order) MarkShipped(trackingNumber string) error {
	if err := o.transition(StatusShipped); err != nil {
		return err
	}
	now := time.Now()
	o.ShippedAt = &now
	evt := NewEvent(EventTypeShipped, o)
	evt.TrackingNumber = trackingNumber
	o.AddDomainEvent(evt)
	return nil
}

// MarkDelivered marks the order as delivered
func (o *Order) MarkDelivered() error {
	if err := o.transition(StatusDelivered); err != nil {
		return err
	}
	now := time.Now()
	o.DeliveredAt = &now
	o.AddDomainEvent(NewEvent(EventTypeDelivered, o))
	return nil
}

// Cancel cancels the order and returns the lines whose stock must be restored
func (o *Order) Cancel(reason string) ([]Item, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.ErrInvalidInput.Withf("cancel reason is required")
	}
	restock := o.Status.HoldsStock()
	if err := o.transition(StatusCancelled); err != nil {
		return nil, err
	}
	now := time.Now()
	o.CancelledAt = &now
	o.CancelReason = reason
	evt := NewEvent(EventTypeCancelled, o)
	evt.Reason = reason
	o.AddDomainEvent(evt)

	if !restock {
		return nil, nil
	}
	return o.Items, nil
}

// RequiresRefundOnCancel reports whether cancelling must give money back
func (o *Order) RequiresRefundOnCancel() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// MarkRefunded records a full refund. Lines that never left the warehouse
// are returned for restocking.
func (o *Order) MarkRefunded(refundID string) ([]Item, error) {
	if o.PaymentStatus != PaymentStatusPaid {
		return nil, shared.ErrInvalidState.Withf("order %s has no captured payment", o.Number)
	}
	restock := o.Status.HoldsStock()
	if o.Status == StatusCancelled {
		// Cancelled orders already returned their stock and stay cancelled.
		restock = false
	} else if err := o.transition(StatusRefunded); err != nil {
		return nil, err
	}

	now := time.Now()
	o.PaymentStatus = PaymentStatusRefunded
	o.RefundID = refundID
	o.RefundedAt = &now
	o.UpdatedAt = now
	o.AddDomainEvent(NewEvent(EventTypeRefunded, o))

	if !restock {
		return nil, nil
	}
	return o.Items, nil
}

// TransitionTo moves the order along the fulfilment path on behalf of staff.
// Payment driven states (PAID, CANCELLED, REFUNDED) have their own operations.
func (o *Order) TransitionTo(target Status, trackingNumber string) error {
	switch target {
	case StatusProcessing:
		return o.StartProcessing()
	case StatusShipped:
		return o.MarkShipped(trackingNumber)
	case StatusDelivered:
		return o.MarkDelivered()
	default:
		return shared.ErrInvalidInput.Withf("status %s cannot be set directly", target)
	}
}

// IsExpired reports whether an unpaid order outlived ttl
func (o *Order) IsExpired(now time.Time, ttl time.Duration) bool {
	return o.Status == StatusPending && o.PaymentStatus != PaymentStatusPaid && now.Sub(o.CreatedAt) > ttl
}

// ItemCount returns the total number of units in the order
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

func (o *Order) transition(target Status) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.ErrInvalidState.Withf("order %s cannot move from %s to %s", o.Number, o.Status, target)
	}
	o.Status = target
	o.Touch()
	return nil
}

func (o *Order) recalculate() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	o.Subtotal = subtotal
	o.Total = subtotal.Add(o.ShippingFee)
	o.Touch()
}
