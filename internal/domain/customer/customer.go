package customer

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Customer is a registered shopper
type Customer struct {
	shared.BaseAggregateRoot
	Email          string
	Name           string
	Phone          string
	DefaultAddress *shared.Address
}

// NewCustomer creates a customer with a normalized email
func NewCustomer(email, name string) (*Customer, error) {
	normalized, err := shared.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	c := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             normalized,
	}
	if err := c.Update(name, ""); err != nil {
		return nil, err
	}
	return c, nil
}

var phoneRegex = regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)

// Update changes name and phone
func (c *Customer) Update(name, phone string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.ErrInvalidInput.Withf("customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.ErrInvalidInput.Withf("customer name cannot exceed 200 characters")
	}
	phone = strings.TrimSpace(phone)
	if phone != "" && (len(phone) > 50 || !phoneRegex.MatchString(phone)) {
		return shared.ErrInvalidInput.Withf("invalid phone number format")
	}
	c.Name = name
	c.Phone = phone
	c.Touch()
	return nil
}

// ChangeEmail replaces the login email
func (c *Customer) ChangeEmail(email string) error {
	normalized, err := shared.NormalizeEmail(email)
	if err != nil {
		return err
	}
	c.Email = normalized
	c.Touch()
	return nil
}

// SetDefaultAddress stores the address used to prefill checkout. Nil clears it.
func (c *Customer) SetDefaultAddress(addr *shared.Address) error {
	if addr != nil {
		normalized := addr.Normalize()
		if err := normalized.Validate(); err != nil {
			return err
		}
		addr = &normalized
	}
	c.DefaultAddress = addr
	c.Touch()
	return nil
}

// WishlistItem is a product a customer saved for later
type WishlistItem struct {
	CustomerID uuid.UUID
	ProductID  uuid.UUID
	AddedAt    time.Time
}

// Repository defines the interface for customer persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	List(ctx context.Context, filter shared.Filter) ([]Customer, int64, error)
	Save(ctx context.Context, customer *Customer) error
	// Delete removes the customer and its wishlist and sets customer_id to NULL
	// on every order that referenced it, all in a single transaction.
	Delete(ctx context.Context, id uuid.UUID) error
}

// WishlistRepository defines the interface for wishlist persistence
type WishlistRepository interface {
	// Add is idempotent, adding an existing pair is a no-op
	Add(ctx context.Context, item WishlistItem) error
	Remove(ctx context.Context, customerID, productID uuid.UUID) error
	List(ctx context.Context, customerID uuid.UUID) ([]WishlistItem, error)
}
