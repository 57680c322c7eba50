package staff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/staff"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/tests/testutil"
)

type fixture struct {
	repo        *testutil.MockStaffRepository
	jwt         *auth.JWTService
	revocations *auth.MemoryRevocations
	svc         *StaffService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	jwtSvc, err := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-bytes-long",
		AccessTokenExpiration: time.Hour,
		Issuer:                "storefront",
	})
	require.NoError(t, err)
	f := &fixture{
		repo:        new(testutil.MockStaffRepository),
		jwt:         jwtSvc,
		revocations: auth.NewMemoryRevocations(),
	}
	f.svc = NewStaffService(f.repo, f.jwt, f.revocations, nil)
	return f
}

func newMember(t *testing.T, role staff.Role) *staff.Staff {
	t.Helper()
	m, err := staff.NewStaff("grace@shop.test", "Grace", "hunter22hunter", role)
	require.NoError(t, err)
	return m
}

func TestStaffService_Login(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	member := newMember(t, staff.RoleAdmin)
	f.repo.On("FindByEmail", ctx, "grace@shop.test").Return(member, nil)
	f.repo.On("Save", ctx, member).Return(nil)

	resp, err := f.svc.Login(ctx, LoginRequest{Email: " Grace@Shop.test ", Password: "hunter22hunter"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, member.ID, resp.Staff.ID)
	require.NotNil(t, member.LastLoginAt)

	claims, err := f.jwt.Validate(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, member.ID.String(), claims.StaffID)
	assert.True(t, claims.IsAdmin())
	assert.NotEmpty(t, claims.ID)
}

func TestStaffService_Login_InvalidCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("FindByEmail", ctx, "nobody@shop.test").Return(nil, shared.ErrNotFound)
		_, err := f.svc.Login(ctx, LoginRequest{Email: "nobody@shop.test", Password: "hunter22hunter"})
		assert.ErrorIs(t, err, staff.ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("FindByEmail", ctx, "grace@shop.test").Return(newMember(t, staff.RoleStaff), nil)
		_, err := f.svc.Login(ctx, LoginRequest{Email: "grace@shop.test", Password: "wrong-pass1"})
		assert.ErrorIs(t, err, staff.ErrInvalidCredentials)
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("inactive", func(t *testing.T) {
		f := newFixture(t)
		member := newMember(t, staff.RoleStaff)
		member.Deactivate()
		f.repo.On("FindByEmail", ctx, "grace@shop.test").Return(member, nil)
		_, err := f.svc.Login(ctx, LoginRequest{Email: "grace@shop.test", Password: "hunter22hunter"})
		assert.ErrorIs(t, err, staff.ErrInvalidCredentials)
	})

	t.Run("repository error", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("FindByEmail", ctx, "grace@shop.test").Return(nil, errors.New("db down"))
		_, err := f.svc.Login(ctx, LoginRequest{Email: "grace@shop.test", Password: "hunter22hunter"})
		assert.ErrorContains(t, err, "db down")
	})
}

func TestStaffService_Logout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	token, err := f.jwt.Issue(newMember(t, staff.RoleStaff))
	require.NoError(t, err)
	claims, err := f.jwt.Validate(token.Token)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, claims))
	revoked, err := f.revocations.IsTokenRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.ErrorIs(t, f.svc.Logout(ctx, nil), shared.ErrUnauthorized)
}

func TestStaffService_Create(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.repo.On("FindByEmail", ctx, "ops@shop.test").Return(nil, shared.ErrNotFound)
	f.repo.On("Save", ctx, mock.AnythingOfType("*staff.Staff")).Return(nil)

	resp, err := f.svc.Create(ctx, CreateStaffRequest{
		Email: "Ops@Shop.test", Name: "Ops", Password: "s3cretpass", Role: "staff",
	})
	require.NoError(t, err)
	assert.Equal(t, "ops@shop.test", resp.Email)
	assert.Equal(t, "STAFF", resp.Role)
	assert.True(t, resp.Active)
}

func TestStaffService_Create_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.repo.On("FindByEmail", ctx, "grace@shop.test").Return(newMember(t, staff.RoleStaff), nil)

	_, err := f.svc.Create(ctx, CreateStaffRequest{
		Email: "grace@shop.test", Name: "Grace", Password: "hunter22hunter", Role: "ADMIN",
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestStaffService_Create_InvalidRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), CreateStaffRequest{
		Email: "ops@shop.test", Name: "Ops", Password: "s3cretpass", Role: "owner",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestStaffService_Deactivate_RevokesTokens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := uuid.New()
	member := newMember(t, staff.RoleStaff)
	token, err := f.jwt.Issue(member)
	require.NoError(t, err)
	claims, err := f.jwt.Validate(token.Token)
	require.NoError(t, err)

	f.repo.On("FindByID", ctx, member.ID).Return(member, nil)
	f.repo.On("Save", ctx, member).Return(nil)

	resp, err := f.svc.Deactivate(ctx, admin, member.ID)
	require.NoError(t, err)
	assert.False(t, resp.Active)

	revoked, err := f.revocations.IsStaffRevoked(ctx, member.ID.String(), claims.IssuedAt.Time)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestStaffService_Update_SelfGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	member := newMember(t, staff.RoleAdmin)
	f.repo.On("FindByID", ctx, member.ID).Return(member, nil)

	_, err := f.svc.Deactivate(ctx, member.ID, member.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	role := "STAFF"
	_, err = f.svc.Update(ctx, member.ID, member.ID, UpdateStaffRequest{Role: &role})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestStaffService_Update_NameAndRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	member := newMember(t, staff.RoleStaff)
	f.repo.On("FindByID", ctx, member.ID).Return(member, nil)
	f.repo.On("Save", ctx, member).Return(nil)

	name, role := "Grace Hopper", "admin"
	resp, err := f.svc.Update(ctx, uuid.New(), member.ID, UpdateStaffRequest{Name: &name, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", resp.Name)
	assert.Equal(t, "ADMIN", resp.Role)

	revoked, err := f.revocations.IsStaffRevoked(ctx, member.ID.String(), time.Now())
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestStaffService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := uuid.New()
	member := newMember(t, staff.RoleStaff)
	f.repo.On("FindByID", ctx, member.ID).Return(member, nil)
	f.repo.On("Delete", ctx, member.ID).Return(nil)

	require.NoError(t, f.svc.Delete(ctx, admin, member.ID))
	revoked, err := f.revocations.IsStaffRevoked(ctx, member.ID.String(), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestStaffService_Delete_Self(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	err := f.svc.Delete(context.Background(), id, id)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
