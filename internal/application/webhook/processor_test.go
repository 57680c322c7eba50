package webhook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/webhook"
	"github.com/storefront/backend/tests/testutil"
)

func claimedEvent(t *testing.T) *webhook.Event {
	t.Helper()
	e, err := webhook.NewEvent(webhook.ProviderStripe, "evt_1", "payment_intent.succeeded", []byte(`{}`))
	require.NoError(t, err)
	return e
}

func TestProcessor_RunsHandlerAndCompletes(t *testing.T) {
	ctx := context.Background()
	repo := new(testutil.MockWebhookRepository)
	stored := claimedEvent(t)
	repo.On("Begin", ctx, mock.MatchedBy(func(e *webhook.Event) bool {
		return e.Provider == webhook.ProviderStripe && e.EventID == "evt_1"
	})).Return(stored, false, nil)
	repo.On("Save", ctx, stored).Return(nil)

	calls := 0
	dup, err := NewProcessor(repo, nil).Process(ctx, webhook.ProviderStripe, "evt_1", "payment_intent.succeeded", []byte(`{}`),
		func(context.Context) error {
			calls++
			return nil
		})
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, 1, calls)
	assert.Equal(t, webhook.StatusProcessed, stored.Status)
	assert.NotNil(t, stored.ProcessedAt)
	repo.AssertExpectations(t)
}

func TestProcessor_DuplicateSkipsHandler(t *testing.T) {
	ctx := context.Background()
	repo := new(testutil.MockWebhookRepository)
	stored := claimedEvent(t)
	stored.Complete()
	repo.On("Begin", ctx, mock.Anything).Return(stored, true, nil)

	dup, err := NewProcessor(repo, nil).Process(ctx, webhook.ProviderStripe, "evt_1", "x", nil,
		func(context.Context) error {
			t.Error("handler must not run for a duplicate")
			return nil
		})
	require.NoError(t, err)
	assert.True(t, dup)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProcessor_HandlerErrorMarksFailed(t *testing.T) {
	ctx := context.Background()
	repo := new(testutil.MockWebhookRepository)
	stored := claimedEvent(t)
	repo.On("Begin", ctx, mock.Anything).Return(stored, false, nil)
	repo.On("Save", ctx, stored).Return(nil)

	boom := errors.New("database is down")
	_, err := NewProcessor(repo, nil).Process(ctx, webhook.ProviderStripe, "evt_1", "x", nil,
		func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	var perr *ProcessingError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "evt_1", perr.EventID)
	assert.Equal(t, webhook.StatusFailed, stored.Status)
	assert.Equal(t, "database is down", stored.LastError)
}

func TestProcessor_BeginError(t *testing.T) {
	ctx := context.Background()
	repo := new(testutil.MockWebhookRepository)
	repo.On("Begin", ctx, mock.Anything).Return(nil, false, errors.New("conn refused"))

	_, err := NewProcessor(repo, nil).Process(ctx, webhook.ProviderShipping, "evt_2", "x", nil,
		func(context.Context) error { return nil })
	assert.ErrorContains(t, err, "conn refused")
	var perr *ProcessingError
	assert.ErrorAs(t, err, &perr)
}

func TestProcessor_RejectsMissingEventID(t *testing.T) {
	repo := new(testutil.MockWebhookRepository)
	_, err := NewProcessor(repo, nil).Process(context.Background(), webhook.ProviderStripe, "", "x", nil,
		func(context.Context) error { return nil })
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	var perr *ProcessingError
	assert.False(t, errors.As(err, &perr))
	repo.AssertNotCalled(t, "Begin", mock.Anything, mock.Anything)
}
