package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return "null"
	}
}

// Value is a scalar cell: string, number or null. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
}

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Null returns the null Value.
func Null() Value { return Value{} }

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// Str returns the string payload; "" for non-strings.
func (v Value) Str() string { return v.str }

// Num returns the numeric payload; 0 for non-numbers.
func (v Value) Num() float64 { return v.num }

// Text renders the value the way it would appear in a CSV cell.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// MarshalJSON encodes strings and numbers natively and null as null.
// Non-finite numbers have no JSON form and encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	default:
		return []byte("null"), nil
	}
}

// fromSQL converts a value scanned from database/sql into a Value.
func fromSQL(src any) (Value, error) {
	switch x := src.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(x), nil
	case []byte:
		return String(string(x)), nil
	case int64:
		return Number(float64(x)), nil
	case float64:
		return Number(x), nil
	case bool:
		if x {
			return Number(1), nil
		}
		return Number(0), nil
	default:
		return Value{}, fmt.Errorf("dataset: unsupported column type %T", src)
	}
}

// sqlArg converts a Value into a database/sql argument.
func (v Value) sqlArg() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	default:
		return nil
	}
}

// Row is one record: values in header order. It encodes as a JSON object
// whose keys keep that order.
type Row struct {
	columns []string
	values  []Value
}

// NewRow pairs columns with values. Both slices must have equal length.
func NewRow(columns []string, values []Value) Row {
	if len(columns) != len(values) {
		panic(fmt.Sprintf("dataset.NewRow: %d columns, %d values", len(columns), len(values)))
	}
	return Row{columns: columns, values: values}
}

// Len returns the number of cells.
func (r Row) Len() int { return len(r.values) }

// Columns returns the column names in order.
func (r Row) Columns() []string { return r.columns }

// Get returns the value for column and whether it exists.
func (r Row) Get(column string) (Value, bool) {
	for i, c := range r.columns {
		if c == column {
			return r.values[i], true
		}
	}
	return Value{}, false
}

// MarshalJSON writes {"col": value, ...} in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := r.values[i].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
