package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormOrphanRepository_Upsert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrphanRepository(db)
	ctx := context.Background()

	first, err := payment.NewOrphanPayment("pi_orphan", nil, decimal.NewFromInt(25), "usd", payment.ReasonOrderNotFound)
	require.NoError(t, err)
	stored, created, err := repo.Upsert(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, first.ID, stored.ID)

	second, err := payment.NewOrphanPayment("pi_orphan", nil, decimal.NewFromInt(25), "usd", payment.ReasonAmountMismatch)
	require.NoError(t, err)
	stored, created, err = repo.Upsert(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, payment.ReasonOrderNotFound, stored.Reason)

	status := payment.OrphanStatusDetected
	_, total, err := repo.List(ctx, &status, shared.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestGormOrphanRepository_FindDue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrphanRepository(db)
	ctx := context.Background()

	due, err := payment.NewOrphanPayment("pi_due", nil, decimal.NewFromInt(5), "usd", payment.ReasonOrderNotFound)
	require.NoError(t, err)
	due.DetectedAt = time.Now().Add(-time.Hour)
	_, _, err = repo.Upsert(ctx, due)
	require.NoError(t, err)

	recent, err := payment.NewOrphanPayment("pi_recent", nil, decimal.NewFromInt(5), "usd", payment.ReasonOrderNotFound)
	require.NoError(t, err)
	_, _, err = repo.Upsert(ctx, recent)
	require.NoError(t, err)

	refunded, err := payment.NewOrphanPayment("pi_refunded", nil, decimal.NewFromInt(5), "usd", payment.ReasonOrderNotFound)
	require.NoError(t, err)
	refunded.DetectedAt = time.Now().Add(-time.Hour)
	require.NoError(t, refunded.MarkRefunded("re_1"))
	_, _, err = repo.Upsert(ctx, refunded)
	require.NoError(t, err)

	found, err := repo.FindDue(ctx, time.Now().Add(-15*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "pi_due", found[0].PaymentIntentID)

	found[0].RecordFailure(errors.New("gateway down"), 5)
	require.NoError(t, repo.Save(ctx, &found[0]))
	reloaded, err := repo.FindByIntent(ctx, "pi_due")
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Attempts)
	assert.Equal(t, "gateway down", reloaded.LastError)
}

func TestGormWebhookRepository_Begin(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormWebhookRepository(db)
	ctx := context.Background()

	newEvent := func(id string) *webhook.Event {
		evt, err := webhook.NewEvent(webhook.ProviderStripe, id, "payment_intent.succeeded", []byte(`{}`))
		require.NoError(t, err)
		return evt
	}

	t.Run("first delivery is claimed", func(t *testing.T) {
		stored, dup, err := repo.Begin(ctx, newEvent("evt_1"))
		require.NoError(t, err)
		assert.False(t, dup)
		assert.Equal(t, webhook.StatusReceived, stored.Status)
	})

	t.Run("redelivery while in flight is a duplicate", func(t *testing.T) {
		_, dup, err := repo.Begin(ctx, newEvent("evt_1"))
		require.NoError(t, err)
		assert.True(t, dup)
	})

	t.Run("processed event is a duplicate", func(t *testing.T) {
		stored, err := repo.FindByEventID(ctx, webhook.ProviderStripe, "evt_1")
		require.NoError(t, err)
		stored.Complete()
		require.NoError(t, repo.Save(ctx, stored))

		_, dup, err := repo.Begin(ctx, newEvent("evt_1"))
		require.NoError(t, err)
		assert.True(t, dup)
	})

	t.Run("failed event is reopened", func(t *testing.T) {
		stored, _, err := repo.Begin(ctx, newEvent("evt_2"))
		require.NoError(t, err)
		stored.Fail(errors.New("db down"))
		require.NoError(t, repo.Save(ctx, stored))

		again, dup, err := repo.Begin(ctx, newEvent("evt_2"))
		require.NoError(t, err)
		assert.False(t, dup)
		assert.Equal(t, 2, again.Attempts)
		assert.Equal(t, webhook.StatusReceived, again.Status)
	})

	t.Run("stale received event is taken over", func(t *testing.T) {
		_, _, err := repo.Begin(ctx, newEvent("evt_3"))
		require.NoError(t, err)
		require.NoError(t, db.Exec("UPDATE webhook_events SET updated_at = ? WHERE event_id = ?",
			time.Now().Add(-2*webhook.StaleAfter), "evt_3").Error)

		again, dup, err := repo.Begin(ctx, newEvent("evt_3"))
		require.NoError(t, err)
		assert.False(t, dup)
		assert.Equal(t, 2, again.Attempts)
	})

	t.Run("same event id from another provider is independent", func(t *testing.T) {
		evt, err := webhook.NewEvent(webhook.ProviderShipping, "evt_1", "tracking.updated", nil)
		require.NoError(t, err)
		_, dup, err := repo.Begin(ctx, evt)
		require.NoError(t, err)
		assert.False(t, dup)
	})
}
