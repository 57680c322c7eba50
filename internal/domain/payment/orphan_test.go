package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrphanPayment(t *testing.T) {
	p, err := NewOrphanPayment("pi_123", nil, decimal.NewFromInt(25), "usd", ReasonOrderNotFound)
	require.NoError(t, err)
	assert.Equal(t, OrphanStatusDetected, p.Status)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, "orphan-refund:pi_123", p.RefundKey())
	assert.False(t, p.DetectedAt.IsZero())

	_, err = NewOrphanPayment(" ", nil, decimal.Zero, "usd", ReasonOrderNotFound)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestOrphanPayment_DueForSweep(t *testing.T) {
	p, err := NewOrphanPayment("pi_1", nil, decimal.NewFromInt(1), "USD", ReasonOrderCancelled)
	require.NoError(t, err)

	assert.False(t, p.DueForSweep(p.DetectedAt.Add(time.Minute), 15*time.Minute))
	assert.True(t, p.DueForSweep(p.DetectedAt.Add(15*time.Minute), 15*time.Minute))

	require.NoError(t, p.MarkRefunded("re_1"))
	assert.False(t, p.DueForSweep(p.DetectedAt.Add(time.Hour), 15*time.Minute))
}

func TestOrphanPayment_RecordFailure(t *testing.T) {
	p, err := NewOrphanPayment("pi_1", nil, decimal.NewFromInt(1), "USD", ReasonAmountMismatch)
	require.NoError(t, err)

	p.RecordFailure(errors.New("gateway down"), 3)
	p.RecordFailure(errors.New("gateway down"), 3)
	assert.Equal(t, OrphanStatusDetected, p.Status)
	assert.Equal(t, 2, p.Attempts)

	p.RecordFailure(errors.New("still down"), 3)
	assert.Equal(t, OrphanStatusFailed, p.Status)
	assert.Equal(t, "still down", p.LastError)

	require.NoError(t, p.Retry())
	assert.Equal(t, OrphanStatusDetected, p.Status)
	assert.Zero(t, p.Attempts)
	assert.ErrorIs(t, p.Retry(), shared.ErrInvalidState)
}

func TestOrphanPayment_Resolve(t *testing.T) {
	p, err := NewOrphanPayment("pi_1", nil, decimal.NewFromInt(1), "USD", ReasonOrderNotFound)
	require.NoError(t, err)

	orderID := uuid.New()
	require.NoError(t, p.MarkMatched(orderID))
	assert.Equal(t, OrphanStatusMatched, p.Status)
	assert.Equal(t, &orderID, p.OrderID)
	assert.NotNil(t, p.ResolvedAt)

	assert.ErrorIs(t, p.MarkRefunded("re_1"), shared.ErrInvalidState)
	assert.ErrorIs(t, p.MarkMatched(orderID), shared.ErrInvalidState)
}

func TestGatewayEvent_FullyRefunded(t *testing.T) {
	e := GatewayEvent{Amount: decimal.NewFromInt(50), AmountRefunded: decimal.NewFromInt(20)}
	assert.False(t, e.FullyRefunded())
	e.AmountRefunded = decimal.NewFromInt(50)
	assert.True(t, e.FullyRefunded())
}
