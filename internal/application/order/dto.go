package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// OrderListFilter represents query parameters of the admin order listing
type OrderListFilter struct {
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
	Search     string     `form:"q"`
	Status     string     `form:"status"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Email      string     `form:"email"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir"`
}

// UpdateStatusRequest moves an order along the fulfilment path
type UpdateStatusRequest struct {
	Status         string `json:"status" binding:"required,oneof=PROCESSING SHIPPED DELIVERED"`
	TrackingNumber string `json:"tracking_number" binding:"max=100"`
}

// CancelOrderRequest cancels an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// RefundOrderRequest refunds an order in full
type RefundOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ItemResponse represents an order line in API responses
type ItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	VariantID *uuid.UUID      `json:"variant_id,omitempty"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID               uuid.UUID       `json:"id"`
	Number           string          `json:"number"`
	CustomerID       *uuid.UUID      `json:"customer_id,omitempty"`
	Email            string          `json:"email"`
	ShippingAddress  shared.Address  `json:"shipping_address"`
	Items            []ItemResponse  `json:"items"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	ShippingFee      decimal.Decimal `json:"shipping_fee"`
	Total            decimal.Decimal `json:"total"`
	Currency         string          `json:"currency"`
	Status           string          `json:"status"`
	PaymentStatus    string          `json:"payment_status"`
	PaymentIntentID  string          `json:"payment_intent_id,omitempty"`
	DeliveryOptionID *uuid.UUID      `json:"delivery_option_id,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	ShippedAt        *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt      *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt      *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason     string          `json:"cancel_reason,omitempty"`
	RefundedAt       *time.Time      `json:"refunded_at,omitempty"`
	RefundID         string          `json:"refund_id,omitempty"`
	Version          int             `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ToOrderResponse converts a domain Order to OrderResponse
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]ItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = ItemResponse{
			ID:        item.ID,
			VariantID: item.VariantID,
			SKU:       item.SKU,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		}
	}
	return OrderResponse{
		ID:               o.ID,
		Number:           o.Number,
		CustomerID:       o.CustomerID,
		Email:            o.Email,
		ShippingAddress:  o.ShippingAddress,
		Items:            items,
		Subtotal:         o.Subtotal,
		ShippingFee:      o.ShippingFee,
		Total:            o.Total,
		Currency:         o.Currency,
		Status:           o.Status.String(),
		PaymentStatus:    o.PaymentStatus.String(),
		PaymentIntentID:  o.PaymentIntentID,
		DeliveryOptionID: o.DeliveryOptionID,
		PaidAt:           o.PaidAt,
		ShippedAt:        o.ShippedAt,
		DeliveredAt:      o.DeliveredAt,
		CancelledAt:      o.CancelledAt,
		CancelReason:     o.CancelReason,
		RefundedAt:       o.RefundedAt,
		RefundID:         o.RefundID,
		Version:          o.GetVersion(),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// GuestOrderResponse is the order view shown to an unauthenticated shopper.
// Internal payment references are left out.
type GuestOrderResponse struct {
	Number          string          `json:"number"`
	Email           string          `json:"email"`
	ShippingAddress shared.Address  `json:"shipping_address"`
	Items           []ItemResponse  `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingFee     decimal.Decimal `json:"shipping_fee"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ToGuestOrderResponse converts a domain Order to GuestOrderResponse
func ToGuestOrderResponse(o *order.Order) GuestOrderResponse {
	full := ToOrderResponse(o)
	return GuestOrderResponse{
		Number:          full.Number,
		Email:           full.Email,
		ShippingAddress: full.ShippingAddress,
		Items:           full.Items,
		Subtotal:        full.Subtotal,
		ShippingFee:     full.ShippingFee,
		Total:           full.Total,
		Currency:        full.Currency,
		Status:          full.Status,
		PaymentStatus:   full.PaymentStatus,
		PaidAt:          full.PaidAt,
		ShippedAt:       full.ShippedAt,
		DeliveredAt:     full.DeliveredAt,
		CancelledAt:     full.CancelledAt,
		CreatedAt:       full.CreatedAt,
	}
}
