package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevocations_Token(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRevocations()

	revoked, err := store.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.RevokeToken(ctx, "jti-1", time.Minute))
	revoked, err = store.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// an already expired token needs no entry
	require.NoError(t, store.RevokeToken(ctx, "jti-2", 0))
	revoked, err = store.IsTokenRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryRevocations_TokenEntryExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRevocations()
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.RevokeToken(ctx, "jti-1", time.Minute))
	store.now = func() time.Time { return now.Add(2 * time.Minute) }

	revoked, err := store.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Empty(t, store.tokens)
}

func TestMemoryRevocations_Staff(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRevocations()
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.RevokeStaff(ctx, "staff-1", time.Hour))

	revoked, err := store.IsStaffRevoked(ctx, "staff-1", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, revoked, "tokens issued before revocation are rejected")

	revoked, err = store.IsStaffRevoked(ctx, "staff-1", now.Add(2*time.Second))
	require.NoError(t, err)
	assert.False(t, revoked, "tokens issued after revocation are accepted")

	revoked, err = store.IsStaffRevoked(ctx, "staff-2", now)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocations_WithIssuedToken(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	member := newTestStaff(t, "STAFF")
	store := NewMemoryRevocations()

	token, err := svc.Issue(member)
	require.NoError(t, err)
	claims, err := svc.Validate(token.Token)
	require.NoError(t, err)

	require.NoError(t, store.RevokeToken(ctx, claims.ID, claims.RemainingTTL()))
	revoked, err := store.IsTokenRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}
