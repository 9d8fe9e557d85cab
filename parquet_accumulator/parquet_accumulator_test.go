package parquet_accumulator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danthegoodman1/bqconnector/table"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

func TestGetSchemaString(t *testing.T) {
	a := NewParquetAccumulator()
	a.WriteRow(table.Row{
		"colA": "hey",
	})
	a.WriteRow(table.Row{
		"colB": 1.2,
	})
	a.WriteRow(table.Row{
		"colC": true,
		"colA": "ho",
	})
	a.WriteRow(table.Row{
		"colD": nil,
	})

	schemaString, err := a.GetSchemaString()
	if err != nil {
		t.Fatal(err)
	}
	if schemaString != `{"Tag":"name=parquet_go_root, repetitiontype=REQUIRED","Fields":[{"Tag":"type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN, name=ColA, repetitiontype=OPTIONAL"},{"Tag":"type=DOUBLE, name=ColB, repetitiontype=OPTIONAL"},{"Tag":"type=BOOLEAN, name=ColC, repetitiontype=OPTIONAL"}]}` {
		t.Log(schemaString)
		t.Fatal("got incorrect schema string")
	}

	cols := a.GetColumnNames()
	if len(cols) != 3 || cols[0] != "colA" || cols[2] != "colC" {
		t.Fatalf("unexpected columns %+v", cols)
	}
	types := a.GetColumnTypes()
	if types[0] != "string" || types[1] != "float" || types[2] != "bool" {
		t.Fatalf("unexpected types %+v", types)
	}
}

func TestFieldName(t *testing.T) {
	cases := map[string]string{
		"status":       "Status",
		"address.city": "Address_city",
		"1st":          "C1st",
		"":             "Col",
	}
	for in, want := range cases {
		if got := FieldName(in); got != want {
			t.Fatalf("FieldName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToJSONRow(t *testing.T) {
	a := NewParquetAccumulator()
	row := table.Row{"name": "fox", "n": int64(3), "tags": []any{"a"}, "gone": nil}
	a.WriteRow(row)

	s, err := a.ToJSONRow(row)
	if err != nil {
		t.Fatal(err)
	}
	if s != `{"N":3,"Name":"fox","Tags":"[\"a\"]"}` {
		t.Fatalf("unexpected json row %s", s)
	}
}

func TestFullCycle(t *testing.T) {
	rows := []table.Row{
		{"status": "ok", "n": int64(1), "flag": true},
		{"status": "err", "n": 2.5, "flag": nil},
	}
	psa := NewParquetAccumulator()
	for _, row := range rows {
		psa.WriteRow(row)
	}

	parquetSchema, err := psa.GetSchemaString()
	if err != nil {
		t.Fatal("error in GetSchemaString")
	}

	path := filepath.Join(t.TempDir(), "temp.parquet")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	pw, err := writer.NewJSONWriterFromWriter(parquetSchema, f, 4)
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range rows {
		rec, err := psa.ToJSONRow(row)
		if err != nil {
			t.Fatal(err)
		}
		if err = pw.Write(rec); err != nil {
			t.Fatal(err)
		}
	}
	if err = pw.WriteStop(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		t.Fatal("Can't open file", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, parquetSchema, 4)
	if err != nil {
		t.Fatal("Can't create parquet reader", err)
	}
	defer pr.ReadStop()

	if num := pr.GetNumRows(); num != 2 {
		t.Fatalf("expected 2 rows, got %d", num)
	}
}
