// Migration system for stores materialised by boatsearch.
// SQL files are bundled with embed.FS; applied versions are tracked in
// schema_migrations so MigrateUp can be re-run safely.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed migrations/*.up.sql
var migrations embed.FS

// migration is one parsed *.up.sql file.
type migration struct {
	version int
	name    string // e.g. "001_dataset_meta.up.sql"
	sql     string
}

// MigrateUp applies all pending migrations in version order, one transaction
// per migration. Already-applied versions are skipped.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return fmt.Errorf("migrate: ensure migrations table: %w", err)
	}

	pending, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("migrate: load files: %w", err)
	}

	current, err := MigrationVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range pending {
		if m.version <= current {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return fmt.Errorf("migrate: apply %s: %w", m.name, err)
		}
	}
	return nil
}

// MigrationVersion returns the highest applied version, or 0 when none.
// A database without a schema_migrations table (for example a store created
// by another tool) reports 0 without creating the table.
func MigrationVersion(ctx context.Context, db *sql.DB) (int, error) {
	exists, err := TableExists(ctx, db, "schema_migrations")
	if err != nil || !exists {
		return 0, err
	}

	var version int
	row := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("migrate: query version: %w", err)
	}
	return version, nil
}

// TableExists reports whether a table named name is present.
func TableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var n int
	row := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name)
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("sqlite: lookup table %q: %w", name, err)
	}
	return n > 0, nil
}

func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     INTEGER NOT NULL PRIMARY KEY,
			name        TEXT    NOT NULL,
			applied_at  TEXT    NOT NULL DEFAULT (datetime('now'))
		)
	`)
	return err
}

func loadMigrations() ([]migration, error) {
	entries, err := fs.Glob(migrations, "migrations/*.up.sql")
	if err != nil {
		return nil, err
	}

	out := make([]migration, 0, len(entries))
	for _, p := range entries {
		content, err := migrations.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		name := path.Base(p)
		v := versionFromFilename(name)
		if v == 0 {
			return nil, fmt.Errorf("migration %s: missing numeric prefix", name)
		}
		out = append(out, migration{version: v, name: name, sql: string(content)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// versionFromFilename extracts the numeric prefix: "001_dataset_meta.up.sql" → 1.
func versionFromFilename(name string) int {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0
	}
	var version int
	if _, err := fmt.Sscanf(prefix, "%d", &version); err != nil {
		return 0
	}
	return version
}

func apply(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("exec SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.version, m.name,
	); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}
