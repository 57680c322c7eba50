package staff

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/staff"
)

// LoginRequest represents a back office login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
}

// LoginResponse carries the access token and the logged-in staff member
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresAt   time.Time     `json:"expires_at"`
	Staff       StaffResponse `json:"staff"`
}

// CreateStaffRequest represents a request to create a staff member
type CreateStaffRequest struct {
	Email    string `json:"email" binding:"required,email,max=200"`
	Name     string `json:"name" binding:"required,min=1,max=200"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role" binding:"required,oneof=ADMIN STAFF admin staff"`
}

// UpdateStaffRequest represents a partial update of a staff member
type UpdateStaffRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=200"`
	Role     *string `json:"role" binding:"omitempty,oneof=ADMIN STAFF admin staff"`
	Password *string `json:"password" binding:"omitempty,min=8,max=72"`
	Active   *bool   `json:"active"`
}

// StaffListFilter represents query parameters of the staff listing
type StaffListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"q"`
}

// StaffResponse represents a staff member in API responses
type StaffResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToStaffResponse converts a domain Staff to StaffResponse
func ToStaffResponse(s *staff.Staff) StaffResponse {
	return StaffResponse{
		ID:          s.ID,
		Email:       s.Email,
		Name:        s.Name,
		Role:        string(s.Role),
		Active:      s.Active,
		LastLoginAt: s.LastLoginAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
