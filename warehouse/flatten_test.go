package warehouse

import (
	"math/big"
	"strings"
	"testing"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/danthegoodman1/bqconnector/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenRowScalars(t *testing.T) {
	row, err := FlattenRow(map[string]bigquery.Value{
		"name":  "fox",
		"n":     int64(3),
		"price": big.NewRat(3, 2),
		"day":   civil.Date{Year: 2024, Month: 1, Day: 24},
		"raw":   []byte("hi"),
		"empty": nil,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "fox", row["name"])
	assert.Equal(t, int64(3), row["n"])
	assert.Equal(t, bigquery.NumericString(big.NewRat(3, 2)), row["price"])
	assert.Equal(t, "2024-01-24", row["day"])
	assert.Equal(t, "aGk=", row["raw"])
	v, exists := row["empty"]
	assert.True(t, exists)
	assert.Nil(t, v)
}

func TestFlattenRowNested(t *testing.T) {
	row, err := FlattenRow(map[string]bigquery.Value{
		"id": "a1",
		"address": map[string]bigquery.Value{
			"city": "Berlin",
		},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "a1", row["id"])
	var cityKey string
	for k, v := range row {
		_, isMap := v.(map[string]any)
		assert.False(t, isMap, "column %s is still nested", k)
		if strings.Contains(k, "city") {
			cityKey = k
		}
	}
	require.NotEmpty(t, cityKey)
	assert.True(t, strings.HasPrefix(cityKey, "address"))
	assert.Equal(t, "Berlin", row[cityKey])
}

func TestFlattenRowBigNumeric(t *testing.T) {
	amount, ok := new(big.Rat).SetString("0.123456789012345678")
	require.True(t, ok)
	schema := bigquery.Schema{
		{Name: "small", Type: bigquery.NumericFieldType},
		{Name: "big", Type: bigquery.BigNumericFieldType},
		{Name: "rec", Type: bigquery.RecordFieldType, Schema: bigquery.Schema{
			{Name: "amount", Type: bigquery.BigNumericFieldType},
		}},
	}

	row, err := FlattenRow(map[string]bigquery.Value{
		"small": amount,
		"big":   amount,
		"rec":   map[string]bigquery.Value{"amount": amount},
	}, schema)
	require.NoError(t, err)

	assert.Equal(t, "0.123456789", row["small"])
	assert.Equal(t, bigquery.BigNumericString(amount), row["big"])
	assert.True(t, strings.HasPrefix(table.FormatValue(row["big"]), "0.123456789012345678"))
	assert.Equal(t, bigquery.BigNumericString(amount), row["rec__amount"])
}

func TestFlattenRowRepeatedScalarsInNestedRow(t *testing.T) {
	row, err := FlattenRow(map[string]bigquery.Value{
		"id":   "a1",
		"tags": []bigquery.Value{"x", "y"},
		"address": map[string]bigquery.Value{
			"city":  "Berlin",
			"zones": []bigquery.Value{int64(1), int64(2)},
		},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, `["x","y"]`, row["tags"])
	assert.Equal(t, "[1,2]", row["address__zones"])
	assert.Equal(t, "Berlin", row["address__city"])
	assert.Equal(t, table.FormatValue([]any{"x", "y"}), table.FormatValue(row["tags"]))
}

func TestColumnsFor(t *testing.T) {
	schema := bigquery.Schema{
		{Name: "b", Type: bigquery.StringFieldType},
		{Name: "a", Type: bigquery.IntegerFieldType},
		{Name: "rec", Type: bigquery.RecordFieldType},
	}

	cols := ColumnsFor(schema, []table.Row{
		{"b": "x", "a": int64(1), "rec__z": 1, "rec__y": 2},
	})
	assert.Equal(t, []string{"b", "a", "rec__y", "rec__z"}, cols)

	// Empty tables still report the schema
	assert.Equal(t, []string{"b", "a", "rec"}, ColumnsFor(schema, nil))
}

func TestTableRefString(t *testing.T) {
	assert.Equal(t, "p1.d1.t1", TableRef{ProjectID: "p1", DatasetID: "d1", TableID: "t1"}.String())
}
