// Package dbtest opens throwaway SQLite ledgers for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/betakeys/keybot/internal/gateways/database"
	"github.com/stretchr/testify/require"
)

// Open returns a migrated database in t's temp dir, closed on cleanup.
func Open(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.New(context.Background(), database.DBConfig{
		Driver:      database.DriverSQLite,
		Path:        filepath.Join(t.TempDir(), "keys.db"),
		PoolSize:    8,
		BusyTimeout: 10000,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.InitializeSchema(context.Background()))
	return db
}
