package staff

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role is a back office permission level
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleStaff Role = "STAFF"
)

// IsValid checks if the role is a valid Role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// ParseRole parses a role case-insensitively
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.ErrInvalidInput.Withf("invalid role %q", s)
	}
	return r, nil
}

// ErrInvalidCredentials is returned for any failed login
var ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")

// bcrypt cost for password hashes
var passwordCost = 12

var (
	hasLetter = regexp.MustCompile(`[a-zA-Z]`)
	hasNumber = regexp.MustCompile(`[0-9]`)
)

// Staff is a back office user
type Staff struct {
	shared.BaseAggregateRoot
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	Active       bool
	LastLoginAt  *time.Time
}

// NewStaff creates an active staff member
func NewStaff(email, name, password string, role Role) (*Staff, error) {
	normalized, err := shared.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	s := &Staff{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             normalized,
		Active:            true,
	}
	if err := s.Update(name, role); err != nil {
		return nil, err
	}
	if err := s.SetPassword(password); err != nil {
		return nil, err
	}
	return s, nil
}

// Update changes name and role
func (s *Staff) Update(name string, role Role) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.ErrInvalidInput.Withf("staff name cannot be empty")
	}
	if !role.IsValid() {
		return shared.ErrInvalidInput.Withf("invalid role %q", role)
	}
	s.Name = name
	s.Role = role
	s.Touch()
	return nil
}

// SetPassword validates and hashes a new password
func (s *Staff) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password").Wrap(err)
	}
	s.PasswordHash = string(hash)
	s.Touch()
	return nil
}

// VerifyPassword checks password against the stored hash
func (s *Staff) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password)) == nil
}

// RecordLogin stamps a successful login
func (s *Staff) RecordLogin(at time.Time) {
	s.LastLoginAt = &at
	s.Touch()
}

// Deactivate blocks further logins
func (s *Staff) Deactivate() {
	s.Active = false
	s.Touch()
}

// Activate re-enables login
func (s *Staff) Activate() {
	s.Active = true
	s.Touch()
}

// IsAdmin reports whether the staff member can manage other staff
func (s *Staff) IsAdmin() bool {
	return s.Role == RoleAdmin
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.ErrInvalidInput.Withf("password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.ErrInvalidInput.Withf("password cannot exceed 72 characters")
	}
	if !hasLetter.MatchString(password) || !hasNumber.MatchString(password) {
		return shared.ErrInvalidInput.Withf("password must contain at least one letter and one number")
	}
	return nil
}

// Repository defines the interface for staff persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Staff, error)
	FindByEmail(ctx context.Context, email string) (*Staff, error)
	List(ctx context.Context, filter shared.Filter) ([]Staff, int64, error)
	Save(ctx context.Context, staff *Staff) error
	Delete(ctx context.Context, id uuid.UUID) error
}
