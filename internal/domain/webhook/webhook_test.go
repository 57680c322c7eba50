package webhook

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	e, err := NewEvent(ProviderStripe, "evt_1", "payment_intent.succeeded", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, e.Status)
	assert.Equal(t, 1, e.Attempts)

	_, err = NewEvent(ProviderStripe, "", "x", nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestEvent_IsDuplicate(t *testing.T) {
	e, err := NewEvent(ProviderShipping, "evt_1", "tracking.updated", nil)
	require.NoError(t, err)
	now := e.UpdatedAt

	assert.True(t, e.IsDuplicate(now.Add(time.Second)), "in-flight delivery")
	assert.False(t, e.IsDuplicate(now.Add(StaleAfter+time.Second)), "stale delivery")

	e.Fail(errors.New("db down"))
	assert.False(t, e.IsDuplicate(time.Now()))
	assert.Equal(t, "db down", e.LastError)

	e.Reopen()
	assert.Equal(t, 2, e.Attempts)
	assert.Equal(t, StatusReceived, e.Status)

	e.Complete()
	assert.True(t, e.IsDuplicate(time.Now().Add(time.Hour)))
	assert.NotNil(t, e.ProcessedAt)
	assert.Empty(t, e.LastError)
}

func TestEvent_FailTruncates(t *testing.T) {
	e, err := NewEvent(ProviderStripe, "evt_1", "x", nil)
	require.NoError(t, err)
	e.Fail(errors.New(strings.Repeat("x", 5000)))
	assert.Len(t, e.LastError, maxErrorLength)

	e.Fail(errors.New("x" + strings.Repeat("ü", 600)))
	assert.True(t, utf8.ValidString(e.LastError))
	assert.Len(t, e.LastError, maxErrorLength-1)
}
