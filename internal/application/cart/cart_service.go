package cart

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

// DefaultTTL is how long an untouched cart is kept
const DefaultTTL = 7 * 24 * time.Hour

// CartService manages anonymous carts
type CartService struct {
	store    cart.Store
	pricer   *Pricer
	currency string
	ttl      time.Duration
}

// NewCartService creates a new CartService. A non-positive ttl uses DefaultTTL.
func NewCartService(store cart.Store, pricer *Pricer, currency string, ttl time.Duration) *CartService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CartService{store: store, pricer: pricer, currency: currency, ttl: ttl}
}

// Create creates an empty cart
func (s *CartService) Create(ctx context.Context) (*CartResponse, error) {
	c := cart.New()
	if err := s.store.Save(ctx, c, s.ttl); err != nil {
		return nil, err
	}
	return s.priced(ctx, c)
}

// Get returns the cart priced against the current catalog
func (s *CartService) Get(ctx context.Context, id uuid.UUID) (*CartResponse, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.priced(ctx, c)
}

// SetItem sets the quantity of a variant. Quantity zero removes the line.
// Adding a variant that does not exist is rejected; adding one that is out
// of stock is allowed and shows up as unavailable.
func (s *CartService) SetItem(ctx context.Context, id uuid.UUID, req SetItemRequest) (*CartResponse, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Quantity > 0 {
		lines, _, err := s.pricer.Price(ctx, []cart.Item{{VariantID: req.VariantID, Quantity: req.Quantity}})
		if err != nil {
			return nil, err
		}
		if lines[0].Reason == ReasonNotFound {
			return nil, shared.ErrNotFound.Withf("variant %s not found", req.VariantID)
		}
	}
	if err := c.SetItem(req.VariantID, req.Quantity); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

// RemoveItem drops a variant from the cart
func (s *CartService) RemoveItem(ctx context.Context, id, variantID uuid.UUID) (*CartResponse, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.RemoveItem(variantID)
	return s.save(ctx, c)
}

// Clear empties the cart. An expired cart is not an error.
func (s *CartService) Clear(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

// Items returns the raw lines of a cart, used by checkout
func (s *CartService) Items(ctx context.Context, id uuid.UUID) ([]cart.Item, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.Items, nil
}

func (s *CartService) save(ctx context.Context, c *cart.Cart) (*CartResponse, error) {
	if err := s.store.Save(ctx, c, s.ttl); err != nil {
		return nil, err
	}
	return s.priced(ctx, c)
}

func (s *CartService) priced(ctx context.Context, c *cart.Cart) (*CartResponse, error) {
	lines, subtotal, err := s.pricer.Price(ctx, c.Items)
	if err != nil {
		return nil, err
	}

	resp := &CartResponse{
		ID:          c.ID,
		Items:       make([]LineResponse, len(lines)),
		Subtotal:    subtotal,
		Currency:    s.currency,
		CanCheckout: len(lines) > 0,
		UpdatedAt:   c.UpdatedAt,
	}
	for i, line := range lines {
		resp.Items[i] = line.LineResponse
		resp.ItemCount += line.Quantity
		if !line.Available {
			resp.CanCheckout = false
		}
	}
	return resp, nil
}
