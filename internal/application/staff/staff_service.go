package staff

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/staff"
	"github.com/storefront/backend/internal/infrastructure/auth"
)

// TokenIssuer signs access tokens for staff members
type TokenIssuer interface {
	Issue(s *staff.Staff) (*auth.AccessToken, error)
	Expiration() time.Duration
}

// StaffService handles back office login and staff management
type StaffService struct {
	repo        staff.Repository
	tokens      TokenIssuer
	revocations auth.Revocations
	logger      *zap.Logger
	now         func() time.Time
}

// NewStaffService creates a new StaffService
func NewStaffService(repo staff.Repository, tokens TokenIssuer, revocations auth.Revocations, logger *zap.Logger) *StaffService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{
		repo:        repo,
		tokens:      tokens,
		revocations: revocations,
		logger:      logger,
		now:         time.Now,
	}
}

// Login checks the credentials and issues an access token. Unknown email,
// wrong password and inactive accounts all fail the same way.
func (s *StaffService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	member, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, shared.ErrNotFound) {
		s.logger.Warn("Login for unknown email")
		return nil, staff.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !member.VerifyPassword(req.Password) {
		s.logger.Warn("Login with wrong password", zap.String("staff_id", member.ID.String()))
		return nil, staff.ErrInvalidCredentials
	}
	if !member.Active {
		s.logger.Warn("Login for inactive account", zap.String("staff_id", member.ID.String()))
		return nil, staff.ErrInvalidCredentials
	}

	member.RecordLogin(s.now().UTC())
	if err := s.repo.Save(ctx, member); err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(member)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Staff logged in", zap.String("staff_id", member.ID.String()))
	return &LoginResponse{
		AccessToken: token.Token,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		Staff:       ToStaffResponse(member),
	}, nil
}

// Logout revokes the presented token for the rest of its lifetime
func (s *StaffService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return shared.ErrUnauthorized
	}
	if err := s.revocations.RevokeToken(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		return err
	}
	s.logger.Info("Staff logged out", zap.String("staff_id", claims.StaffID))
	return nil
}

// Create creates a new staff member
func (s *StaffService) Create(ctx context.Context, req CreateStaffRequest) (*StaffResponse, error) {
	role, err := staff.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	member, err := staff.NewStaff(req.Email, req.Name, req.Password, role)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, member.Email); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, member); err != nil {
		return nil, err
	}

	s.logger.Info("Staff created",
		zap.String("staff_id", member.ID.String()),
		zap.String("role", string(member.Role)))
	response := ToStaffResponse(member)
	return &response, nil
}

// GetByID retrieves a staff member by ID
func (s *StaffService) GetByID(ctx context.Context, id uuid.UUID) (*StaffResponse, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToStaffResponse(member)
	return &response, nil
}

// List retrieves a page of staff members
func (s *StaffService) List(ctx context.Context, filter StaffListFilter) ([]StaffResponse, int64, error) {
	base := shared.DefaultFilter()
	base.Page = filter.Page
	base.PageSize = filter.PageSize
	base.Search = strings.TrimSpace(filter.Search)

	members, total, err := s.repo.List(ctx, base.Normalize())
	if err != nil {
		return nil, 0, err
	}
	out := make([]StaffResponse, len(members))
	for i := range members {
		out[i] = ToStaffResponse(&members[i])
	}
	return out, total, nil
}

// Update applies a partial update. actorID is the staff member making the
// change; nobody can deactivate or demote themself.
func (s *StaffService) Update(ctx context.Context, actorID, id uuid.UUID, req UpdateStaffRequest) (*StaffResponse, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, role := member.Name, member.Role
	if req.Name != nil {
		name = *req.Name
	}
	if req.Role != nil {
		if role, err = staff.ParseRole(*req.Role); err != nil {
			return nil, err
		}
	}
	if actorID == id && role != staff.RoleAdmin && member.IsAdmin() {
		return nil, shared.ErrInvalidState.Withf("cannot remove your own admin role")
	}
	if err := member.Update(name, role); err != nil {
		return nil, err
	}
	if req.Password != nil {
		if err := member.SetPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	revoke := req.Password != nil
	if req.Active != nil && *req.Active != member.Active {
		if *req.Active {
			member.Activate()
		} else {
			if actorID == id {
				return nil, shared.ErrInvalidState.Withf("cannot deactivate yourself")
			}
			member.Deactivate()
			revoke = true
		}
	}

	if err := s.repo.Save(ctx, member); err != nil {
		return nil, err
	}
	if revoke {
		s.revokeSessions(ctx, member.ID)
	}
	response := ToStaffResponse(member)
	return &response, nil
}

// Deactivate blocks the staff member and revokes their outstanding tokens
func (s *StaffService) Deactivate(ctx context.Context, actorID, id uuid.UUID) (*StaffResponse, error) {
	active := false
	return s.Update(ctx, actorID, id, UpdateStaffRequest{Active: &active})
}

// Delete removes a staff member and revokes their outstanding tokens
func (s *StaffService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return shared.ErrInvalidState.Withf("cannot delete yourself")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.revokeSessions(ctx, id)
	s.logger.Info("Staff deleted",
		zap.String("staff_id", id.String()),
		zap.String("deleted_by", actorID.String()))
	return nil
}

// revokeSessions logs failures instead of returning them: the staff row
// change is already committed.
func (s *StaffService) revokeSessions(ctx context.Context, id uuid.UUID) {
	if err := s.revocations.RevokeStaff(ctx, id.String(), s.tokens.Expiration()); err != nil {
		s.logger.Error("Failed to revoke staff tokens",
			zap.String("staff_id", id.String()),
			zap.Error(err))
	}
}

func (s *StaffService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return shared.ErrAlreadyExists.Withf("staff with email %s already exists", email)
}
