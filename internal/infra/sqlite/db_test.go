package sqlite_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/boatsearch/internal/infra/sqlite"
)

func TestNewDB_WALMode(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestNewDB_BusyTimeout(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)

	var timeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	assert.Positive(t, timeout)
}

func TestNewDB_InMemory(t *testing.T) {
	t.Parallel()

	db, err := sqlite.NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Ping())
}

func TestNewDB_FileCreated(t *testing.T) {
	t.Parallel()

	path := tempDBPath(t)
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "file must not exist before NewDB")

	db, err := sqlite.NewDB(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

// The data directory is part of deployment; NewDB must not invent it.
func TestNewDB_InvalidDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nonexistent_dir", "db.sqlite")

	db, err := sqlite.NewDB(path)
	if db != nil {
		db.Close()
	}
	assert.Error(t, err)
}

func TestNewDB_ConnectionPool(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)
	assert.NotZero(t, db.Stats().MaxOpenConnections)
}

func TestOpenReadOnly_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := sqlite.OpenReadOnly(tempDBPath(t))
	require.ErrorIs(t, err, sqlite.ErrNotExist)
}

func TestOpenReadOnly_RejectsWrites(t *testing.T) {
	t.Parallel()

	path := tempDBPath(t)
	rw, err := sqlite.NewDB(path)
	require.NoError(t, err)
	_, err = rw.Exec("CREATE TABLE t (v)")
	require.NoError(t, err)
	_, err = rw.Exec("INSERT INTO t (v) VALUES (1)")
	require.NoError(t, err)
	require.NoError(t, rw.Close())

	ro, err := sqlite.OpenReadOnly(path)
	require.NoError(t, err)
	defer ro.Close()

	var n int
	require.NoError(t, ro.QueryRow("SELECT COUNT(*) FROM t").Scan(&n))
	assert.Equal(t, 1, n)

	_, err = ro.Exec("INSERT INTO t (v) VALUES (2)")
	assert.Error(t, err, "query_only connection must reject writes")
}

func TestSeal_LeavesSelfContainedFile(t *testing.T) {
	t.Parallel()

	path := tempDBPath(t)
	db, err := sqlite.NewDB(path)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = db.Exec("CREATE TABLE t (v)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO t (v) VALUES ('x')")
	require.NoError(t, err)

	require.NoError(t, sqlite.Seal(db))
	require.NoError(t, db.Close())

	_, err = os.Stat(path + "-wal")
	assert.True(t, os.IsNotExist(err), "WAL file must be gone after Seal")

	// The sealed file alone carries the data.
	moved := filepath.Join(t.TempDir(), "moved.sqlite")
	require.NoError(t, os.Rename(path, moved))
	ro, err := sqlite.OpenReadOnly(moved)
	require.NoError(t, err)
	defer ro.Close()

	var v string
	require.NoError(t, ro.QueryRowContext(context.Background(), "SELECT v FROM t").Scan(&v))
	assert.Equal(t, "x", v)
}

// --- helpers ---

func mustOpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.NewDB(tempDBPath(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.sqlite")
}
