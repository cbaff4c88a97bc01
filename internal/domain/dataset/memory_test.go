package dataset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := OpenMemory(writeCSV(t, boatsCSV))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"Make", "Model", "Year", "Length", "Price", "Fuel"}, s.Header())

	n, err := s.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rows, err := s.FetchAll(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	v, _ := rows[1].Get("Model")
	assert.Equal(t, "Oceanis 46", v.Str())

	all, err := s.FetchAll(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := s.FetchAll(ctx, -1)
	require.NoError(t, err)
	assert.Empty(t, none)

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", info.Backend)
	assert.Equal(t, 3, info.RowCount)
}

func TestOpenMemory_MissingSource(t *testing.T) {
	t.Parallel()

	_, err := OpenMemory("/nonexistent/data.csv")
	assert.Error(t, err)
}

// Both variants must return the same rows for the same source.
func TestStores_Agree(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	opts := sqliteOpts(t, boatsCSV)
	persisted := mustOpenSQLite(t, opts)
	mem, err := OpenMemory(opts.CSVPath)
	require.NoError(t, err)

	for _, s := range []Store{persisted, mem} {
		rows, err := s.FetchAll(ctx, 3000)
		require.NoError(t, err)
		require.Len(t, rows, 3)
	}

	a, _ := persisted.FetchAll(ctx, 3000)
	b, _ := mem.FetchAll(ctx, 3000)
	for i := range a {
		assert.Equal(t, b[i], a[i])
	}
}
