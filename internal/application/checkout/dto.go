package checkout

import (
	"github.com/google/uuid"

	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// LineRequest is an explicit checkout line, used instead of a cart
type LineRequest struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=99"`
}

// CheckoutRequest places an order from a cart or from explicit lines
type CheckoutRequest struct {
	CartID           *uuid.UUID     `json:"cart_id"`
	Items            []LineRequest  `json:"items" binding:"omitempty,max=50,dive"`
	Email            string         `json:"email" binding:"required,email,max=200"`
	CustomerID       *uuid.UUID     `json:"customer_id"`
	ShippingAddress  shared.Address `json:"shipping_address" binding:"required"`
	DeliveryOptionID *uuid.UUID     `json:"delivery_option_id"`
}

// CheckoutResponse is the placed order and the secret the browser needs to
// confirm the payment
type CheckoutResponse struct {
	Order        orderapp.OrderResponse `json:"order"`
	ClientSecret string                 `json:"client_secret,omitempty"`
	Replayed     bool                   `json:"replayed"`
}
