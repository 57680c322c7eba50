//go:build integration

package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/migration"
	"github.com/storefront/backend/migrations"
)

func TestMigrations_RollbackAndReapply(t *testing.T) {
	tdb := NewTestDB(t)

	m, err := migration.NewFromFS(tdb.SqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)

	status, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), status.Version)
	assert.False(t, status.Dirty)

	require.NoError(t, m.Steps(-1))
	var tables int64
	require.NoError(t, tdb.DB.Raw(`SELECT COUNT(*) FROM pg_tables WHERE schemaname = 'public' AND tablename = 'orders'`).Scan(&tables).Error)
	assert.Zero(t, tables, "down migration drops the schema")

	require.NoError(t, m.Up())
	require.NoError(t, tdb.DB.Raw(`SELECT COUNT(*) FROM pg_tables WHERE schemaname = 'public' AND tablename = 'orders'`).Scan(&tables).Error)
	assert.Equal(t, int64(1), tables)

	// already current
	require.NoError(t, m.Up())
}
