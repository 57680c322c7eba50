package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/storefront/backend/internal/domain/customer"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	return &Database{DB: gormDB, sql: mockDB}, mock
}

func TestDatabase_Ping(t *testing.T) {
	db, mock := newMockDatabase(t)
	ctx := context.Background()

	mock.ExpectPing()
	assert.NoError(t, db.Ping(ctx))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, db.Ping(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock := newMockDatabase(t)
	mock.ExpectClose()

	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

type countingPinger struct {
	failures int
	calls    int
}

func (p *countingPinger) PingContext(context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("the database system is starting up")
	}
	return nil
}

func TestWaitForDatabase(t *testing.T) {
	t.Run("retries until the database answers", func(t *testing.T) {
		p := &countingPinger{failures: 2}
		require.NoError(t, waitForDatabase(context.Background(), p, time.Millisecond))
		assert.Equal(t, 3, p.calls)
	})

	t.Run("gives up when the context ends", func(t *testing.T) {
		p := &countingPinger{failures: 1 << 30}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := waitForDatabase(ctx, p, time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "starting up")
		assert.Greater(t, p.calls, 1)
	})
}

func TestTranslateError(t *testing.T) {
	assert.Nil(t, translateError(nil))
	assert.ErrorIs(t, translateError(gorm.ErrRecordNotFound), shared.ErrNotFound)
	assert.ErrorIs(t, translateError(gorm.ErrDuplicatedKey), shared.ErrAlreadyExists)
	assert.ErrorIs(t, translateError(errors.New(`pq: duplicate key value violates unique constraint "idx_orders_number"`)), shared.ErrAlreadyExists)
	assert.ErrorIs(t, translateError(errors.New("UNIQUE constraint failed: customers.email")), shared.ErrAlreadyExists)

	other := errors.New("connection reset")
	assert.Equal(t, other, translateError(other))
}

func TestGormTxManager_WithinTx(t *testing.T) {
	db := setupTestDB(t)
	tm := NewGormTxManager(db)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		c, err := customer.NewCustomer("commit@example.com", "Commit")
		require.NoError(t, err)

		err = tm.WithinTx(ctx, func(ctx context.Context) error {
			return repo.Save(ctx, c)
		})
		require.NoError(t, err)

		_, err = repo.FindByID(ctx, c.ID)
		assert.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		c, err := customer.NewCustomer("rollback@example.com", "Rollback")
		require.NoError(t, err)
		boom := errors.New("boom")

		err = tm.WithinTx(ctx, func(ctx context.Context) error {
			if err := repo.Save(ctx, c); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = repo.FindByID(ctx, c.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("nested calls join the outer transaction", func(t *testing.T) {
		c, err := customer.NewCustomer("nested@example.com", "Nested")
		require.NoError(t, err)
		boom := errors.New("boom")

		err = tm.WithinTx(ctx, func(ctx context.Context) error {
			if err := tm.WithinTx(ctx, func(ctx context.Context) error {
				return repo.Save(ctx, c)
			}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = repo.FindByID(ctx, c.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
