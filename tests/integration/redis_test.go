//go:build integration

package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

func TestRedis_Integration(t *testing.T) {
	client := NewTestRedis(t)
	ctx := context.Background()

	t.Run("cart store round trip and expiry", func(t *testing.T) {
		store := cache.NewRedisCartStore(client)
		c := cart.New()
		require.NoError(t, c.SetItem(uuid.New(), 3))
		require.NoError(t, store.Save(ctx, c, time.Hour))

		loaded, err := store.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Items, loaded.Items)

		ttl, err := client.TTL(ctx, "cart:"+c.ID.String()).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 59*time.Minute)

		require.NoError(t, store.Delete(ctx, c.ID))
		_, err = store.Get(ctx, c.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("idempotency key is reserved once under concurrency", func(t *testing.T) {
		store := cache.NewRedisIdempotencyStore(client, "")
		var reserved atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, ok, err := store.Reserve(ctx, "checkout:abc", uuid.NewString(), time.Minute)
				assert.NoError(t, err)
				if ok {
					reserved.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), reserved.Load())

		require.NoError(t, store.Release(ctx, "checkout:abc"))
		_, ok, err := store.Reserve(ctx, "checkout:abc", "again", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rate limiter shares one budget", func(t *testing.T) {
		a := middleware.NewRedisLimiter(client, "login", 3, time.Minute)
		b := middleware.NewRedisLimiter(client, "login", 3, time.Minute)

		for i := 0; i < 2; i++ {
			allowed, _, err := a.Allow(ctx, "10.0.0.1")
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		allowed, remaining, err := b.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Zero(t, remaining)

		allowed, _, err = a.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.False(t, allowed)

		allowed, _, err = a.Allow(ctx, "10.0.0.2")
		require.NoError(t, err)
		assert.True(t, allowed, "other clients keep their own budget")

		ttl, err := client.TTL(ctx, "ratelimit:login:10.0.0.1").Result()
		require.NoError(t, err)
		assert.Positive(t, ttl)
	})

	t.Run("revocations", func(t *testing.T) {
		rev := auth.NewRedisRevocations(client)
		jti := uuid.NewString()

		revoked, err := rev.IsTokenRevoked(ctx, jti)
		require.NoError(t, err)
		assert.False(t, revoked)

		require.NoError(t, rev.RevokeToken(ctx, jti, time.Hour))
		revoked, err = rev.IsTokenRevoked(ctx, jti)
		require.NoError(t, err)
		assert.True(t, revoked)

		staffID := uuid.NewString()
		issuedBefore := time.Now().Add(-time.Minute)
		require.NoError(t, rev.RevokeStaff(ctx, staffID, time.Hour))

		revoked, err = rev.IsStaffRevoked(ctx, staffID, issuedBefore)
		require.NoError(t, err)
		assert.True(t, revoked, "tokens issued before the revocation are rejected")

		revoked, err = rev.IsStaffRevoked(ctx, staffID, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, revoked, "tokens issued afterwards are accepted")
	})
}
