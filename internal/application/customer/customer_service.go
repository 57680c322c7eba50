package customer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/customer"
	"github.com/storefront/backend/internal/domain/shared"
)

// CustomerService handles customers and their wishlists
type CustomerService struct {
	customerRepo customer.Repository
	wishlistRepo customer.WishlistRepository
	productRepo  catalog.ProductRepository
	logger       *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customerRepo customer.Repository,
	wishlistRepo customer.WishlistRepository,
	productRepo catalog.ProductRepository,
	logger *zap.Logger,
) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		customerRepo: customerRepo,
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
		logger:       logger,
	}
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	c, err := customer.NewCustomer(req.Email, req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, c.Email, uuid.Nil); err != nil {
		return nil, err
	}
	if req.Phone != "" {
		if err := c.Update(c.Name, req.Phone); err != nil {
			return nil, err
		}
	}
	if req.DefaultAddress != nil {
		if err := c.SetDefaultAddress(req.DefaultAddress); err != nil {
			return nil, err
		}
	}

	if err := s.customerRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	response := ToCustomerResponse(c)
	return &response, nil
}

// GetByID retrieves a customer by ID
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	c, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToCustomerResponse(c)
	return &response, nil
}

// List retrieves a page of customers
func (s *CustomerService) List(ctx context.Context, filter CustomerListFilter) ([]CustomerResponse, int64, error) {
	base := shared.DefaultFilter()
	base.Page = filter.Page
	base.PageSize = filter.PageSize
	base.Search = strings.TrimSpace(filter.Search)
	if filter.OrderBy != "" {
		base.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		base.OrderDir = filter.OrderDir
	}

	customers, total, err := s.customerRepo.List(ctx, base.Normalize())
	if err != nil {
		return nil, 0, err
	}
	out := make([]CustomerResponse, len(customers))
	for i := range customers {
		out[i] = ToCustomerResponse(&customers[i])
	}
	return out, total, nil
}

// Update applies a partial update to a customer
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	c, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email, err := shared.NormalizeEmail(*req.Email)
		if err != nil {
			return nil, err
		}
		if email != c.Email {
			if err := s.ensureEmailFree(ctx, email, c.ID); err != nil {
				return nil, err
			}
			if err := c.ChangeEmail(email); err != nil {
				return nil, err
			}
		}
	}

	name, phone := c.Name, c.Phone
	if req.Name != nil {
		name = *req.Name
	}
	if req.Phone != nil {
		phone = *req.Phone
	}
	if err := c.Update(name, phone); err != nil {
		return nil, err
	}

	switch {
	case req.ClearAddress:
		if err := c.SetDefaultAddress(nil); err != nil {
			return nil, err
		}
	case req.DefaultAddress != nil:
		if err := c.SetDefaultAddress(req.DefaultAddress); err != nil {
			return nil, err
		}
	}

	if err := s.customerRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	response := ToCustomerResponse(c)
	return &response, nil
}

// Delete removes a customer. Their orders are kept and detached from the
// customer; the snapshot email and address on each order remain.
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Customer deleted", zap.String("customer_id", id.String()))
	return nil
}

// AddToWishlist saves a product to the customer's wishlist. Adding a product
// twice is a no-op.
func (s *CustomerService) AddToWishlist(ctx context.Context, customerID, productID uuid.UUID) ([]WishlistItemResponse, error) {
	if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
		return nil, err
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	item := customer.WishlistItem{CustomerID: customerID, ProductID: productID, AddedAt: time.Now().UTC()}
	if err := s.wishlistRepo.Add(ctx, item); err != nil {
		return nil, err
	}
	return s.Wishlist(ctx, customerID)
}

// RemoveFromWishlist drops a product from the wishlist. Removing an absent
// product is not an error.
func (s *CustomerService) RemoveFromWishlist(ctx context.Context, customerID, productID uuid.UUID) error {
	if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
		return err
	}
	err := s.wishlistRepo.Remove(ctx, customerID, productID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	return nil
}

// Wishlist lists the customer's wishlist, newest first
func (s *CustomerService) Wishlist(ctx context.Context, customerID uuid.UUID) ([]WishlistItemResponse, error) {
	if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
		return nil, err
	}
	items, err := s.wishlistRepo.List(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return ToWishlistResponses(items), nil
}

func (s *CustomerService) ensureEmailFree(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := s.customerRepo.FindByEmail(ctx, email)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return shared.ErrAlreadyExists.Withf("customer with email %s already exists", email)
	}
	return nil
}
