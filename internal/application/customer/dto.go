package customer

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/customer"
	"github.com/storefront/backend/internal/domain/shared"
)

// CreateCustomerRequest represents a request to create a customer
type CreateCustomerRequest struct {
	Email          string          `json:"email" binding:"required,email,max=200"`
	Name           string          `json:"name" binding:"required,min=1,max=200"`
	Phone          string          `json:"phone" binding:"omitempty,max=50"`
	DefaultAddress *shared.Address `json:"default_address"`
}

// UpdateCustomerRequest represents a partial update of a customer
type UpdateCustomerRequest struct {
	Email          *string         `json:"email" binding:"omitempty,email,max=200"`
	Name           *string         `json:"name" binding:"omitempty,min=1,max=200"`
	Phone          *string         `json:"phone" binding:"omitempty,max=50"`
	DefaultAddress *shared.Address `json:"default_address"`
	ClearAddress   bool            `json:"clear_address"`
}

// CustomerListFilter represents query parameters of the customer listing
type CustomerListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"q"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID             uuid.UUID       `json:"id"`
	Email          string          `json:"email"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone,omitempty"`
	DefaultAddress *shared.Address `json:"default_address,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// WishlistItemResponse represents a wishlist entry in API responses
type WishlistItemResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	AddedAt   time.Time `json:"added_at"`
}

// ToCustomerResponse converts a domain Customer to CustomerResponse
func ToCustomerResponse(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		ID:             c.ID,
		Email:          c.Email,
		Name:           c.Name,
		Phone:          c.Phone,
		DefaultAddress: c.DefaultAddress,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// ToWishlistResponses converts wishlist items to responses
func ToWishlistResponses(items []customer.WishlistItem) []WishlistItemResponse {
	out := make([]WishlistItemResponse, len(items))
	for i, item := range items {
		out[i] = WishlistItemResponse{ProductID: item.ProductID, AddedAt: item.AddedAt}
	}
	return out
}
