package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// MaxQuantity caps a single cart line
const MaxQuantity = 99

// Item is a variant and quantity in a cart
type Item struct {
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int       `json:"quantity"`
}

// Cart is an anonymous shopping cart. It lives in the cache, not the database.
type Cart struct {
	ID        uuid.UUID `json:"id"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates an empty cart
func New() *Cart {
	now := time.Now()
	return &Cart{ID: uuid.New(), Items: []Item{}, CreatedAt: now, UpdatedAt: now}
}

// SetItem sets the quantity of a variant. Zero removes the line.
func (c *Cart) SetItem(variantID uuid.UUID, qty int) error {
	if qty < 0 || qty > MaxQuantity {
		return shared.ErrInvalidInput.Withf("quantity must be between 0 and %d", MaxQuantity)
	}
	if qty == 0 {
		c.RemoveItem(variantID)
		return nil
	}
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			c.Items[i].Quantity = qty
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	c.Items = append(c.Items, Item{VariantID: variantID, Quantity: qty})
	c.UpdatedAt = time.Now()
	return nil
}

// RemoveItem drops a variant from the cart. Removing a missing variant is a no-op.
func (c *Cart) RemoveItem(variantID uuid.UUID) {
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.UpdatedAt = time.Now()
			return
		}
	}
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = []Item{}
	c.UpdatedAt = time.Now()
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// VariantIDs returns the variants in the cart
func (c *Cart) VariantIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.VariantID
	}
	return ids
}

// Store persists carts with an expiry
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*Cart, error)
	Save(ctx context.Context, cart *Cart, ttl time.Duration) error
	Delete(ctx context.Context, id uuid.UUID) error
}
