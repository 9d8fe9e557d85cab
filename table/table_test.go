package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResultFillsMissingColumns(t *testing.T) {
	r := NewResult([]string{"a", "b"}, []Row{
		{"a": "x"},
		{"a": "y", "b": int64(2)},
	})

	require.Equal(t, 2, r.Len())
	v, exists := r.Rows[0]["b"]
	assert.True(t, exists)
	assert.Nil(t, v)
	assert.True(t, r.HasColumn("a"))
	assert.False(t, r.HasColumn("c"))
}

func TestNewResultNoRows(t *testing.T) {
	r := NewResult([]string{"a"}, nil)
	assert.NotNil(t, r.Rows)
	assert.Equal(t, 0, r.Len())
	assert.True(t, r.HasColumn("a"))
}

func TestCloneRows(t *testing.T) {
	orig := []Row{{"a": "x"}, {"a": "y"}}
	c := CloneRows(orig)
	c[0]["a"] = "z"
	delete(c[1], "a")

	assert.Equal(t, []Row{{"a": "x"}, {"a": "y"}}, orig)
	assert.Empty(t, CloneRows(nil))
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2024, 1, 24, 10, 30, 0, 0, time.UTC)
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"fox", "fox"},
		{true, "true"},
		{int64(42), "42"},
		{1, "1"},
		{1.5, "1.5"},
		{2.0, "2"},
		{ts, "2024-01-24T10:30:00Z"},
		{[]byte("hi"), "aGk="},
		{[]any{"a", 1.0}, `["a",1]`},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatValue(c.in), "value %#v", c.in)
	}
}
