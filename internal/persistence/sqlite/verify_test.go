package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMigrateVerify(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "state.sqlite"), DefaultConfig())
	require.NoError(t, err)
	defer db.Close()

	ddl := `CREATE TABLE IF NOT EXISTS t (id INTEGER PRIMARY KEY, data TEXT);`
	require.NoError(t, Migrate(ctx, db, 1, ddl))
	// Re-applying the same version is a no-op.
	require.NoError(t, Migrate(ctx, db, 1, `THIS IS NOT SQL`))

	var version int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, 1, version)

	var mode string
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	assert.NoError(t, Check(ctx, db, false))
	assert.NoError(t, Check(ctx, db, true))
}

func TestCheck_ClosedDatabase(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "state.sqlite"), DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	err = Check(ctx, db, false)
	require.Error(t, err)
	var corrupt *CorruptionError
	assert.False(t, errors.As(err, &corrupt), "a query failure is not corruption")
}

func TestCorruptionError(t *testing.T) {
	err := &CorruptionError{Findings: []string{"row 3 missing from index idx_a", "wrong # of entries in index idx_a"}}
	assert.Equal(t, "sqlite: integrity check failed: row 3 missing from index idx_a; wrong # of entries in index idx_a", err.Error())
}

func TestMigrate_FailedSchemaLeavesVersion(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "state.sqlite"), DefaultConfig())
	require.NoError(t, err)
	defer db.Close()

	require.Error(t, Migrate(ctx, db, 1, `CREATE TABLE broken (`))

	var version int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, 0, version)
}
