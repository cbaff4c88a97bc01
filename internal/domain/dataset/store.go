// Package dataset holds the boat dataset: a flat table loaded once from a
// CSV source and read-only afterwards.
//
// Two Store variants share one contract. SQLiteStore persists the table in
// a local SQLite file materialised on first start; MemoryStore keeps it in
// process memory and re-reads the CSV on every start.
package dataset

import (
	"context"
	"time"
)

// DefaultTable is the table name used by the persisted store.
const DefaultTable = "boats"

// Store is read access to the loaded dataset.
type Store interface {
	// Header returns the column names, cached once per process.
	Header() []string

	// RowCount returns the total number of rows.
	RowCount(ctx context.Context) (int, error)

	// FetchAll returns at most limit rows in storage order.
	FetchAll(ctx context.Context, limit int) ([]Row, error)

	// Info describes the loaded dataset.
	Info(ctx context.Context) (Info, error)

	Close() error
}

// Info describes a loaded dataset.
type Info struct {
	Backend  string     `json:"backend"`
	Table    string     `json:"table,omitempty"`
	Source   string     `json:"source"`
	Columns  []string   `json:"columns"`
	RowCount int        `json:"row_count"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}
