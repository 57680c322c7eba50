package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_SetItem(t *testing.T) {
	c := New()
	assert.True(t, c.IsEmpty())

	a, b := uuid.New(), uuid.New()
	require.NoError(t, c.SetItem(a, 2))
	require.NoError(t, c.SetItem(b, 1))
	require.NoError(t, c.SetItem(a, 5))

	require.Len(t, c.Items, 2)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.Equal(t, []uuid.UUID{a, b}, c.VariantIDs())

	assert.ErrorIs(t, c.SetItem(a, MaxQuantity+1), shared.ErrInvalidInput)
	assert.ErrorIs(t, c.SetItem(a, -1), shared.ErrInvalidInput)

	require.NoError(t, c.SetItem(a, 0))
	assert.Equal(t, []uuid.UUID{b}, c.VariantIDs())
}

func TestCart_RemoveAndClear(t *testing.T) {
	c := New()
	a := uuid.New()
	require.NoError(t, c.SetItem(a, 1))

	c.RemoveItem(uuid.New())
	assert.Len(t, c.Items, 1)

	c.RemoveItem(a)
	assert.True(t, c.IsEmpty())

	require.NoError(t, c.SetItem(a, 3))
	c.Clear()
	assert.True(t, c.IsEmpty())
}
