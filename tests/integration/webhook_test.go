//go:build integration

package integration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/webhook"
	"github.com/storefront/backend/internal/infrastructure/persistence"
)

func TestWebhookRepository_ConcurrentDeliveriesProcessOnce(t *testing.T) {
	tdb := NewSharedTestDB(t)
	repo := persistence.NewGormWebhookRepository(tdb.DB)
	ctx := context.Background()
	eventID := "evt_" + uuid.NewString()

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			event, err := webhook.NewEvent("stripe", eventID, "payment_intent.succeeded", []byte(`{}`))
			if !assert.NoError(t, err) {
				return
			}
			_, duplicate, err := repo.Begin(ctx, event)
			if !assert.NoError(t, err) {
				return
			}
			if !duplicate {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())

	stored, err := repo.FindByEventID(ctx, "stripe", eventID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Attempts)
}

func TestWebhookRepository_FailedEventIsRetried(t *testing.T) {
	tdb := NewSharedTestDB(t)
	repo := persistence.NewGormWebhookRepository(tdb.DB)
	ctx := context.Background()
	eventID := "evt_" + uuid.NewString()

	first, err := webhook.NewEvent("stripe", eventID, "payment_intent.succeeded", []byte(`{}`))
	require.NoError(t, err)
	stored, duplicate, err := repo.Begin(ctx, first)
	require.NoError(t, err)
	require.False(t, duplicate)

	stored.Fail(errors.New("order lookup timed out"))
	require.NoError(t, repo.Save(ctx, stored))

	again, err := webhook.NewEvent("stripe", eventID, "payment_intent.succeeded", []byte(`{"retry":true}`))
	require.NoError(t, err)
	retried, duplicate, err := repo.Begin(ctx, again)
	require.NoError(t, err)
	assert.False(t, duplicate, "a failed event is processed again")
	assert.Equal(t, 2, retried.Attempts)

	retried.Complete()
	require.NoError(t, repo.Save(ctx, retried))

	last, err := webhook.NewEvent("stripe", eventID, "payment_intent.succeeded", []byte(`{}`))
	require.NoError(t, err)
	_, duplicate, err = repo.Begin(ctx, last)
	require.NoError(t, err)
	assert.True(t, duplicate, "a processed event is never processed twice")
}
