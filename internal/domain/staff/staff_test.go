package staff

import (
	"testing"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	passwordCost = bcrypt.MinCost
}

func TestNewStaff(t *testing.T) {
	s, err := NewStaff("Ops@Shop.test", "Grace", "hunter22hunter", RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "ops@shop.test", s.Email)
	assert.True(t, s.Active)
	assert.True(t, s.IsAdmin())
	assert.NotEqual(t, "hunter22hunter", s.PasswordHash)
	assert.True(t, s.VerifyPassword("hunter22hunter"))
	assert.False(t, s.VerifyPassword("wrong"))
}

func TestNewStaff_Validation(t *testing.T) {
	tests := []struct {
		name, email, staffName, password string
		role                             Role
	}{
		{"bad email", "ops", "Grace", "hunter22hunter", RoleStaff},
		{"empty name", "ops@shop.test", " ", "hunter22hunter", RoleStaff},
		{"short password", "ops@shop.test", "Grace", "abc1", RoleStaff},
		{"no digit", "ops@shop.test", "Grace", "abcdefghij", RoleStaff},
		{"bad role", "ops@shop.test", "Grace", "hunter22hunter", Role("ROOT")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStaff(tt.email, tt.staffName, tt.password, tt.role)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
}

func TestStaff_Lifecycle(t *testing.T) {
	s, err := NewStaff("ops@shop.test", "Grace", "hunter22hunter", RoleStaff)
	require.NoError(t, err)
	assert.False(t, s.IsAdmin())

	require.NoError(t, s.Update("Grace H.", RoleAdmin))
	assert.True(t, s.IsAdmin())

	require.NoError(t, s.SetPassword("n3wpassword"))
	assert.True(t, s.VerifyPassword("n3wpassword"))

	now := time.Now()
	s.RecordLogin(now)
	assert.Equal(t, &now, s.LastLoginAt)

	s.Deactivate()
	assert.False(t, s.Active)
	s.Activate()
	assert.True(t, s.Active)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)
	_, err = ParseRole("owner")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
