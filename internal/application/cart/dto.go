package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SetItemRequest sets the quantity of a variant in a cart. Zero removes it.
type SetItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"min=0,max=99"`
}

// LineResponse is a cart line priced against the current catalog
type LineResponse struct {
	VariantID   uuid.UUID       `json:"variant_id"`
	ProductID   uuid.UUID       `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	ProductSlug string          `json:"product_slug,omitempty"`
	SKU         string          `json:"sku"`
	VariantName string          `json:"variant_name,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Available   bool            `json:"available"`
	Reason      string          `json:"unavailable_reason,omitempty"`
}

// CartResponse is a priced cart
type CartResponse struct {
	ID          uuid.UUID       `json:"id"`
	Items       []LineResponse  `json:"items"`
	ItemCount   int             `json:"item_count"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Currency    string          `json:"currency"`
	CanCheckout bool            `json:"can_checkout"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
