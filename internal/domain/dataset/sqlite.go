package dataset

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/matiasleandrokruk/boatsearch/internal/infra/sqlite"
)

// SQLiteOptions configures the persisted store.
type SQLiteOptions struct {
	CSVPath string // source file, read only when the store must be created
	DBPath  string // store file
	Table   string // default DefaultTable
	Logger  *slog.Logger
}

func (o SQLiteOptions) table() string {
	if o.Table == "" {
		return DefaultTable
	}
	return o.Table
}

func (o SQLiteOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// materializeMu serialises Materialize within the process. Across processes
// the atomic link in publish decides the winner.
var materializeMu sync.Mutex

// Materialize creates the store file from the CSV if, and only if, it does
// not exist yet. An existing file is never opened for writing, so repeated
// calls leave its contents untouched. created reports whether this call
// published the file.
func Materialize(ctx context.Context, opts SQLiteOptions) (created bool, err error) {
	materializeMu.Lock()
	defer materializeMu.Unlock()

	if _, err := os.Stat(opts.DBPath); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("dataset: stat %s: %w", opts.DBPath, err)
	}

	tbl, err := ReadCSV(opts.CSVPath)
	if err != nil {
		return false, err
	}

	tmp := fmt.Sprintf("%s.tmp-%d-%d", opts.DBPath, os.Getpid(), time.Now().UnixNano())
	defer removeDBFiles(tmp)

	if err := build(ctx, tmp, opts, tbl); err != nil {
		return false, err
	}
	return publish(tmp, opts.DBPath)
}

// build writes tbl into a fresh database at path.
func build(ctx context.Context, path string, opts SQLiteOptions, tbl *Table) error {
	db, err := sqlite.NewDB(path)
	if err != nil {
		return fmt.Errorf("dataset: create store: %w", err)
	}
	defer db.Close() //nolint:errcheck
	db.SetMaxOpenConns(1)

	if err := sqlite.MigrateUp(ctx, db); err != nil {
		return fmt.Errorf("dataset: create store: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dataset: begin load: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	table := quoteIdent(opts.table())
	cols := make([]string, len(tbl.Columns))
	marks := make([]string, len(tbl.Columns))
	for i, c := range tbl.Columns {
		cols[i] = quoteIdent(c) // no declared type: values keep their storage class
		marks[i] = "?"
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(cols, ", "))); err != nil {
		return fmt.Errorf("dataset: create table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("dataset: prepare insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	args := make([]any, len(tbl.Columns))
	for i, row := range tbl.Rows {
		for c, v := range row {
			args[c] = v.sqlArg()
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("dataset: insert row %d: %w", i+1, err)
		}
	}

	colsJSON, err := json.Marshal(tbl.Columns)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO dataset_meta (table_name, source_path, columns, row_count) VALUES (?, ?, ?, ?)",
		opts.table(), opts.CSVPath, string(colsJSON), len(tbl.Rows),
	); err != nil {
		return fmt.Errorf("dataset: record load: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dataset: commit load: %w", err)
	}
	return sqlite.Seal(db)
}

// publish links tmp to dst, failing if dst exists. Losing the race to another
// process is not an error: its store is used as is.
func publish(tmp, dst string) (bool, error) {
	if err := os.Link(tmp, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("dataset: publish store %s: %w", dst, err)
	}
	return true, nil
}

func removeDBFiles(path string) {
	for _, suffix := range []string{"", "-wal", "-shm", "-journal"} {
		_ = os.Remove(path + suffix)
	}
}

// quoteIdent quotes an SQL identifier.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// SQLiteStore is the persisted Store.
type SQLiteStore struct {
	db      *sql.DB
	opts    SQLiteOptions
	header  []string
	columns []string
}

// OpenSQLite materialises the store if needed and opens it read-only. The
// header is read from the CSV once here and cached for the process.
func OpenSQLite(ctx context.Context, opts SQLiteOptions) (*SQLiteStore, error) {
	logger := opts.logger().With("component", "dataset")

	created, err := Materialize(ctx, opts)
	if err != nil {
		return nil, err
	}

	db, err := sqlite.OpenReadOnly(opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}

	columns, err := tableColumns(ctx, db, opts.table())
	if err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}

	s := &SQLiteStore{
		db:      db,
		opts:    opts,
		header:  LoadHeader(opts.CSVPath),
		columns: columns,
	}
	if len(s.header) == 0 {
		logger.Warn("dataset header unavailable, prompts will carry an empty column list", "csv", opts.CSVPath)
	}
	logger.Info("dataset store ready", "path", opts.DBPath, "table", opts.table(), "created", created)
	return s, nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, fmt.Errorf("dataset: inspect table %q: %w", table, err)
	}
	defer rows.Close() //nolint:errcheck

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("dataset: table %q not found", table)
	}
	return cols, nil
}

// rowidAlias returns a name for the implicit rowid that no CSV column
// shadows, or "" when the header takes all three.
func rowidAlias(columns []string) string {
	for _, alias := range []string{"rowid", "_rowid_", "oid"} {
		shadowed := false
		for _, c := range columns {
			if strings.EqualFold(c, alias) {
				shadowed = true
				break
			}
		}
		if !shadowed {
			return alias
		}
	}
	return ""
}

// Header returns the CSV column names cached at open.
func (s *SQLiteStore) Header() []string { return s.header }

// RowCount counts the rows in the store table.
func (s *SQLiteStore) RowCount(ctx context.Context) (int, error) {
	var n int
	q := "SELECT COUNT(*) FROM " + quoteIdent(s.opts.table())
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("dataset: count rows: %w", err)
	}
	return n, nil
}

// FetchAll returns up to limit rows in insertion order.
func (s *SQLiteStore) FetchAll(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 {
		return []Row{}, nil
	}
	q := "SELECT * FROM " + quoteIdent(s.opts.table())
	if key := rowidAlias(s.columns); key != "" {
		q += " ORDER BY " + key
	}
	q += " LIMIT ?"
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("dataset: fetch rows: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0, min(limit, 256))
	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("dataset: scan row: %w", err)
		}
		vals := make([]Value, len(cols))
		for i, src := range raw {
			if vals[i], err = fromSQL(src); err != nil {
				return nil, err
			}
		}
		out = append(out, NewRow(cols, vals))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dataset: fetch rows: %w", err)
	}
	return out, nil
}

// Info reports the store table, its live row count and, when the store was
// created by this program, the load bookkeeping.
func (s *SQLiteStore) Info(ctx context.Context) (Info, error) {
	n, err := s.RowCount(ctx)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Backend:  "sqlite",
		Table:    s.opts.table(),
		Source:   s.opts.CSVPath,
		Columns:  s.columns,
		RowCount: n,
	}

	ok, err := sqlite.TableExists(ctx, s.db, "dataset_meta")
	if err != nil || !ok {
		return info, err
	}
	var source, loadedAt string
	err = s.db.QueryRowContext(ctx,
		"SELECT source_path, loaded_at FROM dataset_meta WHERE table_name = ?", s.opts.table(),
	).Scan(&source, &loadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return info, nil
	}
	if err != nil {
		return Info{}, fmt.Errorf("dataset: read load info: %w", err)
	}
	info.Source = source
	if t, perr := time.Parse(time.RFC3339, loadedAt); perr == nil {
		info.LoadedAt = &t
	}
	return info, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
