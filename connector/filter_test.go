package connector

import (
	"testing"

	"github.com/danthegoodman1/bqconnector/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEqualityFiltersReportsAllUnknown(t *testing.T) {
	res := table.NewResult([]string{"a"}, []table.Row{{"a": "x"}})

	_, err := ApplyEqualityFilters(res, Filters{"zeta": "1", "a": "x", "beta": "2"})
	require.Error(t, err)
	assert.Equal(t, InvalidArgument, KindOf(err))
	assert.Equal(t, "invalid filter(s): beta, zeta", err.Error())
}

func TestApplyEqualityFiltersStringifies(t *testing.T) {
	res := table.NewResult([]string{"n", "ok", "name"}, []table.Row{
		{"n": int64(1), "ok": true, "name": "a"},
		{"n": 2.5, "ok": false, "name": "b"},
		{"n": int64(1), "ok": false, "name": "c"},
	})

	rows, err := ApplyEqualityFilters(res, Filters{"n": "1"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0]["name"])
	assert.Equal(t, "c", rows[1]["name"])

	rows, err = ApplyEqualityFilters(res, Filters{"n": "1", "ok": "false"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c", rows[0]["name"])

	rows, err = ApplyEqualityFilters(res, Filters{"n": "2.5"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// input untouched
	assert.Equal(t, 3, res.Len())
}

func TestApplySubstringSearch(t *testing.T) {
	res := table.NewResult([]string{"a", "b"}, []table.Row{
		{"a": "fox", "b": 1},
		{"a": "dog", "b": 2},
	})

	rows, err := ApplySubstringSearch(res, "x")
	require.NoError(t, err)
	assert.Equal(t, []table.Row{{"a": "fox", "b": 1}}, rows)

	rows, err = ApplySubstringSearch(res, "X")
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = ApplySubstringSearch(res, "o")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "fox", rows[0]["a"])

	_, err = ApplySubstringSearch(res, "")
	assert.ErrorIs(t, err, ErrMissingTerm)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(assert.AnError))
	assert.Equal(t, "PreconditionFailed", ErrTableNotBound.Kind.String())
}
