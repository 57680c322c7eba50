package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/storefront/backend/internal/domain/notification"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/staff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormEmailRepository_FindDue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormEmailRepository(db)
	ctx := context.Background()
	now := time.Now()
	body := notification.Rendered{Subject: "Hi", HTML: "<p>Hi</p>", Text: "Hi"}

	pending, err := notification.NewMessage("a@example.com", "Hi", "order_confirmation", body, nil, 0)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, pending))

	backingOff, err := notification.NewMessage("b@example.com", "Hi", "order_confirmation", body, nil, 0)
	require.NoError(t, err)
	backingOff.MarkFailed(errors.New("timeout"), now, notification.DefaultRetryPolicy())
	require.NoError(t, repo.Save(ctx, backingOff))

	sent, err := notification.NewMessage("c@example.com", "Hi", "order_confirmation", body, nil, 0)
	require.NoError(t, err)
	sent.MarkSent(now)
	require.NoError(t, repo.Save(ctx, sent))

	due, err := repo.FindDue(ctx, now.Add(time.Second), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, pending.ID, due[0].ID)
	assert.Equal(t, "<p>Hi</p>", due[0].HTMLBody)

	later, err := repo.FindDue(ctx, now.Add(2*time.Hour), 10)
	require.NoError(t, err)
	assert.Len(t, later, 2)

	status := notification.StatusSent
	_, total, err := repo.List(ctx, &status, shared.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestGormStaffRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormStaffRepository(db)
	ctx := context.Background()

	s, err := staff.NewStaff("ops@shop.test", "Ops", "correct-horse-battery", staff.RoleStaff)
	require.NoError(t, err)
	s.Deactivate()
	require.NoError(t, repo.Save(ctx, s))

	found, err := repo.FindByEmail(ctx, "OPS@shop.test")
	require.NoError(t, err)
	assert.False(t, found.Active)
	assert.Equal(t, staff.RoleStaff, found.Role)
	assert.True(t, found.VerifyPassword("correct-horse-battery"))

	_, total, err := repo.List(ctx, shared.Filter{Search: "ops"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	require.NoError(t, repo.Delete(ctx, s.ID))
	assert.ErrorIs(t, repo.Delete(ctx, s.ID), shared.ErrNotFound)
}
