package table

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type (
	// Row maps a column name to a scalar (or nil) value
	Row map[string]any

	// Result is a materialized table read. It is never mutated after NewResult returns,
	// so it is safe to share between readers.
	Result struct {
		// Column names in schema order
		Columns []string
		Rows    []Row

		colSet map[string]struct{}
	}
)

// NewResult builds a Result, filling in nil for any column a row is missing so every
// row carries the same column set.
func NewResult(columns []string, rows []Row) *Result {
	r := &Result{
		Columns: columns,
		Rows:    rows,
		colSet:  make(map[string]struct{}, len(columns)),
	}
	for _, col := range columns {
		r.colSet[col] = struct{}{}
	}
	for _, row := range rows {
		for _, col := range columns {
			if _, exists := row[col]; !exists {
				row[col] = nil
			}
		}
	}
	if r.Rows == nil {
		r.Rows = make([]Row, 0)
	}
	return r
}

// Clone copies the row map. Cell values are shared.
func (r Row) Clone() Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// CloneRows copies every row so callers can modify them without touching a cached Result
func CloneRows(rows []Row) []Row {
	c := make([]Row, len(rows))
	for i, row := range rows {
		c[i] = row.Clone()
	}
	return c
}

func (r *Result) HasColumn(name string) bool {
	_, exists := r.colSet[name]
	return exists
}

func (r *Result) Len() int {
	return len(r.Rows)
}

// FormatValue is the string form of a cell used for equality filters and substring search
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case []byte:
		return base64.StdEncoding.EncodeToString(val)
	case fmt.Stringer:
		return val.String()
	case []any, map[string]any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}
