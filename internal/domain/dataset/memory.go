package dataset

import (
	"context"
	"time"
)

// MemoryStore is the in-process Store. The table is read once at open and
// never modified, so no locking is needed.
type MemoryStore struct {
	source   string
	table    *Table
	loadedAt time.Time
}

// OpenMemory reads the CSV at path into memory.
func OpenMemory(path string) (*MemoryStore, error) {
	tbl, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(path, tbl), nil
}

// NewMemoryStore wraps an already-read table.
func NewMemoryStore(source string, tbl *Table) *MemoryStore {
	return &MemoryStore{source: source, table: tbl, loadedAt: time.Now().UTC()}
}

// Header returns the table columns.
func (s *MemoryStore) Header() []string { return s.table.Columns }

// RowCount returns the number of rows.
func (s *MemoryStore) RowCount(context.Context) (int, error) { return len(s.table.Rows), nil }

// FetchAll returns up to limit rows in file order.
func (s *MemoryStore) FetchAll(_ context.Context, limit int) ([]Row, error) {
	n := min(max(limit, 0), len(s.table.Rows))
	out := make([]Row, n)
	for i := range n {
		out[i] = s.table.Row(i)
	}
	return out, nil
}

// Info describes the in-memory table.
func (s *MemoryStore) Info(context.Context) (Info, error) {
	at := s.loadedAt
	return Info{
		Backend:  "memory",
		Source:   s.source,
		Columns:  s.table.Columns,
		RowCount: len(s.table.Rows),
		LoadedAt: &at,
	}, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
