package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// ErrEmptySource is returned when the source file has no header record.
var ErrEmptySource = errors.New("dataset: source file has no header")

// missingMarkers are cell spellings treated as missing, matching the
// defaults of the spreadsheet tooling the source files come from. Missing
// cells are stored as "".
var missingMarkers = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a fully read source file.
type Table struct {
	Columns []string
	Rows    [][]Value
}

// Row returns record i as a Row.
func (t *Table) Row(i int) Row { return NewRow(t.Columns, t.Rows[i]) }

// ReadHeader parses only the first record of the CSV at path and returns the
// normalised column names.
func ReadHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	r := newReader(f)
	rec, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptySource
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read header %s: %w", path, err)
	}
	return normalizeColumns(rec), nil
}

// LoadHeader is ReadHeader with the failure policy of the store: an
// unreadable source yields an empty header instead of an error.
func LoadHeader(path string) []string {
	h, err := ReadHeader(path)
	if err != nil {
		return []string{}
	}
	return h
}

// ReadCSV reads the whole file. Missing cells become "". A column whose
// present cells all parse as finite numbers is typed numeric.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck
	return readCSV(f, path)
}

func readCSV(src io.Reader, name string) (*Table, error) {
	r := newReader(src)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptySource
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read header %s: %w", name, err)
	}
	columns := normalizeColumns(header)

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read %s: %w", name, err)
		}
		if len(rec) > len(columns) {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("dataset: %s line %d: expected %d fields, saw %d",
				name, line, len(columns), len(rec))
		}
		records = append(records, rec)
	}

	numeric := make([]bool, len(columns))
	for c := range columns {
		numeric[c] = isNumericColumn(records, c)
	}

	rows := make([][]Value, len(records))
	for i, rec := range records {
		row := make([]Value, len(columns))
		for c := range columns {
			row[c] = cellValue(rec, c, numeric[c])
		}
		rows[i] = row
	}
	return &Table{Columns: columns, Rows: rows}, nil
}

func newReader(src io.Reader) *csv.Reader {
	r := csv.NewReader(&bomSkipper{r: src})
	r.FieldsPerRecord = -1 // short rows are padded with missing cells
	return r
}

func cellValue(rec []string, c int, numeric bool) Value {
	if c >= len(rec) || isMissing(rec[c]) {
		return String("")
	}
	if numeric {
		f, _ := parseFinite(rec[c])
		return Number(f)
	}
	return String(rec[c])
}

func isMissing(s string) bool {
	_, ok := missingMarkers[s]
	return ok
}

// isNumericColumn reports whether every present cell in column c is a
// finite number. A column with no present cells stays textual.
func isNumericColumn(records [][]string, c int) bool {
	seen := false
	for _, rec := range records {
		if c >= len(rec) || isMissing(rec[c]) {
			continue
		}
		if _, ok := parseFinite(rec[c]); !ok {
			return false
		}
		seen = true
	}
	return seen
}

func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// normalizeColumns names blank headers "Unnamed: <i>" and suffixes
// duplicates with ".1", ".2", ... so every column is addressable.
func normalizeColumns(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, name := range raw {
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		for n := seen[base]; ; n++ {
			if n > 0 {
				name = base + "." + strconv.Itoa(n)
			}
			if _, dup := seen[name]; !dup {
				seen[base] = n + 1
				break
			}
		}
		seen[name] = max(seen[name], 1)
		out[i] = name
	}
	return out
}

// bomSkipper drops a leading UTF-8 byte-order mark.
type bomSkipper struct {
	r       io.Reader
	checked bool
}

func (b *bomSkipper) Read(p []byte) (int, error) {
	if b.checked {
		return b.r.Read(p)
	}
	b.checked = true
	head := make([]byte, len(utf8BOM))
	n, err := io.ReadFull(b.r, head)
	head = head[:n]
	if bytes.Equal(head, utf8BOM) {
		head = nil
	}
	b.r = io.MultiReader(bytes.NewReader(head), b.r)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, err
	}
	return b.r.Read(p)
}
