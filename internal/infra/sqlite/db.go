// Package sqlite provides the SQLite connection factory for boatsearch.
// Uses modernc.org/sqlite, a pure-Go driver, so no CGO is required.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Register the modernc sqlite driver under the name "sqlite"
	_ "modernc.org/sqlite"
)

// ErrNotExist is returned by OpenReadOnly when the database file is missing.
var ErrNotExist = errors.New("sqlite: database file does not exist")

// NewDB opens (or creates) a SQLite database at path for writing:
//   - WAL journal mode (allows concurrent reads during writes)
//   - 5-second busy timeout (prevents SQLITE_BUSY errors under burst writes)
//   - Synchronous=NORMAL (safe + faster than FULL for WAL mode)
//
// Use ":memory:" as path for in-memory databases in tests.
// Returns an error if the parent directory does not exist (will not create it).
func NewDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return nil, fmt.Errorf("sqlite.NewDB: parent directory %q does not exist", dir)
		}
	}

	// PRAGMAs applied at connection time via query parameters.
	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=temp_store(MEMORY)"

	return open(path, dsn, 10)
}

// OpenReadOnly opens an existing database with query_only enforced on every
// connection. The journal mode is left as stored in the file.
func OpenReadOnly(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("sqlite.OpenReadOnly %q: %w", path, ErrNotExist)
		}
		return nil, fmt.Errorf("sqlite.OpenReadOnly: stat %q: %w", path, err)
	}

	dsn := path +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=query_only(1)" +
		"&_pragma=cache_size(-16000)" // 16MB page cache (negative = KB)

	return open(path, dsn, 10)
}

// Seal checkpoints the WAL back into the main file and switches to the
// rollback journal, so the file at its path is self-contained and can be
// linked or renamed without its -wal/-shm companions.
func Seal(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("sqlite.Seal: checkpoint: %w", err)
	}
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode=DELETE").Scan(&mode); err != nil {
		return fmt.Errorf("sqlite.Seal: journal_mode: %w", err)
	}
	if mode != "delete" {
		return fmt.Errorf("sqlite.Seal: journal_mode is %q, want \"delete\"", mode)
	}
	return nil
}

func open(path, dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// WAL allows concurrent readers but serializes writers.
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns / 2)

	// Verify the connection is alive and PRAGMAs were applied.
	if err := db.Ping(); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("sqlite: ping %q: %w", path, err)
	}

	return db, nil
}
