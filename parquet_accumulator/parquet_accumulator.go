package parquet_accumulator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/danthegoodman1/bqconnector/table"
)

type (
	// ParquetSchemaAccumulator infers a parquet-go JSON schema from table rows.
	// A column's type is fixed by the first non-nil value seen for it.
	ParquetSchemaAccumulator struct {
		schema ParquetSchema
	}

	ParquetSchema struct {
		TagStructs SchemaTag        `json:"-,omitempty"`
		Fields     []*ParquetSchema `json:",omitempty"`
		// Column is the source column name the field was inferred from
		Column string `json:"-"`
	}

	ParquetJSONSchema struct {
		Tag    string               `json:",omitempty"`
		Fields []*ParquetJSONSchema `json:",omitempty"`
	}

	SchemaTag struct {
		Name           string         `json:"name,omitempty"`
		Type           string         `json:"type,omitempty"`
		ConvertedType  string         `json:"convertedtype,omitempty"`
		RepetitionType RepetitionType `json:"repetitiontype,omitempty"`
		Encoding       string         `json:"encoding,omitempty"`
	}

	RepetitionType string
)

var (
	Optional RepetitionType = "OPTIONAL"
	Required RepetitionType = "REQUIRED"
)

func NewParquetAccumulator() ParquetSchemaAccumulator {
	return ParquetSchemaAccumulator{
		schema: ParquetSchema{
			TagStructs: SchemaTag{
				Name:           "parquet_go_root",
				RepetitionType: Required,
			},
		},
	}
}

// FieldName maps a column name to a parquet field name: non alphanumerics become
// underscores and the first letter is upper cased.
func FieldName(column string) string {
	var b strings.Builder
	for _, r := range column {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" {
		return "Col"
	}
	if !unicode.IsLetter(rune(name[0])) {
		name = "C" + name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// WriteRow accumulates the schema, columns are visited in sorted order so the schema
// is deterministic
func (pa *ParquetSchemaAccumulator) WriteRow(row table.Row) {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if pa.fieldExists(key) {
			continue
		}
		rowSchema := pa.getParquetSchema(key, row[key])
		if rowSchema != nil {
			pa.schema.Fields = append(pa.schema.Fields, rowSchema)
		}
	}
}

// getParquetSchema returns nil when the type can't be inferred from item yet
func (pa *ParquetSchemaAccumulator) getParquetSchema(key string, item any) *ParquetSchema {
	schema := &ParquetSchema{
		Column: key,
		TagStructs: SchemaTag{
			Name:           FieldName(key),
			RepetitionType: Optional,
		},
	}

	switch item.(type) {
	case nil:
		return nil
	case bool:
		schema.TagStructs.Type = "BOOLEAN"
	case int, int32, int64, uint64, float32, float64:
		schema.TagStructs.Type = "DOUBLE"
	default:
		// strings and everything that is exported in its string form
		schema.TagStructs.Type = "BYTE_ARRAY"
		schema.TagStructs.ConvertedType = "UTF8"
		schema.TagStructs.Encoding = "PLAIN"
	}

	return schema
}

func (pa *ParquetSchemaAccumulator) fieldExists(column string) (exists bool) {
	for _, field := range pa.schema.Fields {
		if field.Column == column {
			return true
		}
	}
	return
}

func (pa *ParquetSchemaAccumulator) GetColumnNames() []string {
	var cols []string
	for _, field := range pa.schema.Fields {
		cols = append(cols, field.Column)
	}
	return cols
}

func (ps *ParquetSchema) GetType() string {
	switch ps.TagStructs.Type {
	case "BYTE_ARRAY":
		return "string"
	case "DOUBLE":
		return "float"
	case "BOOLEAN":
		return "bool"
	default:
		return "unknown"
	}
}

// GetColumnTypes returns the types of columns in the same order, `string`, `float` or `bool`
func (pa *ParquetSchemaAccumulator) GetColumnTypes() []string {
	var cols []string
	for _, field := range pa.schema.Fields {
		cols = append(cols, field.GetType())
	}
	return cols
}

// ToJSONRow converts a row to the JSON record the parquet writer expects, keyed by
// field name and with values coerced to the inferred column types
func (pa *ParquetSchemaAccumulator) ToJSONRow(row table.Row) (string, error) {
	rec := make(map[string]any, len(pa.schema.Fields))
	for _, field := range pa.schema.Fields {
		v, exists := row[field.Column]
		if !exists || v == nil {
			continue
		}
		switch field.TagStructs.Type {
		case "BYTE_ARRAY":
			rec[field.TagStructs.Name] = table.FormatValue(v)
		default:
			rec[field.TagStructs.Name] = v
		}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("error in json.Marshal: %w", err)
	}
	return string(b), nil
}

// ToParquetJSONSchema recursively converts
func (ps *ParquetSchema) ToParquetJSONSchema() *ParquetJSONSchema {
	var tagArr []string
	if ps.TagStructs.Type != "" {
		tagArr = append(tagArr, "type="+ps.TagStructs.Type)
	}
	if ps.TagStructs.ConvertedType != "" {
		tagArr = append(tagArr, "convertedtype="+ps.TagStructs.ConvertedType)
	}
	if ps.TagStructs.Encoding != "" {
		tagArr = append(tagArr, "encoding="+ps.TagStructs.Encoding)
	}
	if ps.TagStructs.Name != "" {
		tagArr = append(tagArr, "name="+ps.TagStructs.Name)
	}
	if string(ps.TagStructs.RepetitionType) != "" {
		tagArr = append(tagArr, "repetitiontype="+string(ps.TagStructs.RepetitionType))
	}
	var fields []*ParquetJSONSchema
	for _, field := range ps.Fields {
		fields = append(fields, field.ToParquetJSONSchema())
	}
	return &ParquetJSONSchema{
		Tag:    strings.Join(tagArr, ", "),
		Fields: fields,
	}
}

// GetSchemaString returns the JSON formatted schema string
func (pa *ParquetSchemaAccumulator) GetSchemaString() (string, error) {
	var fields []*ParquetJSONSchema
	for _, field := range pa.schema.Fields {
		fields = append(fields, field.ToParquetJSONSchema())
	}
	pjs := ParquetJSONSchema{
		Tag:    "name=parquet_go_root, repetitiontype=REQUIRED",
		Fields: fields,
	}

	b, err := json.Marshal(pjs)
	if err != nil {
		return "", fmt.Errorf("error in json.Marshal: %w", err)
	}
	return string(b), nil
}
