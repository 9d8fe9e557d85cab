package warehouse

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/danthegoodman1/bqconnector/table"
	"github.com/danthegoodman1/gojsonutils"
)

var (
	ErrNotFlatMap = errors.New("not a flat map")
)

// FlattenRow turns a bigquery row into a table.Row of scalars. Nested records are
// flattened into one column per leaf. The schema picks the string form of numeric
// values and may be nil, in which case every *big.Rat is treated as NUMERIC.
func FlattenRow(vals map[string]bigquery.Value, schema bigquery.Schema) (table.Row, error) {
	fields := fieldsByName(schema)
	row := make(map[string]any, len(vals))
	nested := false
	for k, v := range vals {
		nv := normalizeValue(v, fields[k])
		if _, isMap := nv.(map[string]any); isMap {
			nested = true
		}
		row[k] = nv
	}
	if !nested {
		return row, nil
	}

	// Flatten prints to stdout for some scalar arrays, encode them first
	for k, v := range row {
		enc, err := encodeScalarArrays(v)
		if err != nil {
			return nil, fmt.Errorf("error encoding array column %s: %w", k, err)
		}
		row[k] = enc
	}

	flat, err := gojsonutils.Flatten(row, nil)
	if err != nil {
		return nil, fmt.Errorf("error in gojsonutils.Flatten: %w", err)
	}
	flatMap, ok := flat.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("got %T: %w", flat, ErrNotFlatMap)
	}
	return flatMap, nil
}

func fieldsByName(schema bigquery.Schema) map[string]*bigquery.FieldSchema {
	fields := make(map[string]*bigquery.FieldSchema, len(schema))
	for _, f := range schema {
		fields[f.Name] = f
	}
	return fields
}

// normalizeValue converts a bigquery value into plain Go values. field may be nil.
func normalizeValue(v bigquery.Value, field *bigquery.FieldSchema) any {
	switch val := v.(type) {
	case map[string]bigquery.Value:
		var sub map[string]*bigquery.FieldSchema
		if field != nil {
			sub = fieldsByName(field.Schema)
		}
		m := make(map[string]any, len(val))
		for k, inner := range val {
			m[k] = normalizeValue(inner, sub[k])
		}
		return m
	case []bigquery.Value:
		// repeated values share the field of the column
		l := make([]any, len(val))
		for i, inner := range val {
			l[i] = normalizeValue(inner, field)
		}
		return l
	case *big.Rat:
		if val == nil {
			return nil
		}
		if field != nil && field.Type == bigquery.BigNumericFieldType {
			return bigquery.BigNumericString(val)
		}
		return bigquery.NumericString(val)
	case civil.Date:
		return val.String()
	case civil.Time:
		return bigquery.CivilTimeString(val)
	case civil.DateTime:
		return bigquery.CivilDateTimeString(val)
	case []byte:
		return base64.StdEncoding.EncodeToString(val)
	default:
		return val
	}
}

// encodeScalarArrays replaces arrays holding no records with their JSON text, the same
// text table.FormatValue produces for them. Arrays of records are kept for Flatten.
func encodeScalarArrays(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		for k, inner := range val {
			enc, err := encodeScalarArrays(inner)
			if err != nil {
				return nil, err
			}
			val[k] = enc
		}
		return val, nil
	case []any:
		hasRecord := false
		for _, item := range val {
			if _, isMap := item.(map[string]any); isMap {
				hasRecord = true
				break
			}
		}
		if !hasRecord {
			b, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("error in json.Marshal: %w", err)
			}
			return string(b), nil
		}
		for i, item := range val {
			enc, err := encodeScalarArrays(item)
			if err != nil {
				return nil, err
			}
			val[i] = enc
		}
		return val, nil
	default:
		return val, nil
	}
}

// ColumnsFor orders columns by the schema, then appends flattened keys that are not
// top level schema fields in sorted order.
func ColumnsFor(schema bigquery.Schema, rows []table.Row) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}

	columns := make([]string, 0, len(schema))
	used := make(map[string]struct{})
	for _, field := range schema {
		if _, exists := seen[field.Name]; exists || len(rows) == 0 {
			columns = append(columns, field.Name)
			used[field.Name] = struct{}{}
		}
	}

	var extras []string
	for k := range seen {
		if _, exists := used[k]; !exists {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	return append(columns, extras...)
}
