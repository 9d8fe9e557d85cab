package connector

import (
	"sort"
	"strings"

	"github.com/danthegoodman1/bqconnector/table"
)

type (
	// Filters maps a column name to the value its cells must equal, compared as strings
	Filters map[string]string
)

// ApplyEqualityFilters keeps the rows matching every pair in filters. All unknown
// columns are reported together. The result's rows are shared, never copied or mutated.
func ApplyEqualityFilters(res *table.Result, filters Filters) ([]table.Row, error) {
	var unknown []string
	for col := range filters {
		if !res.HasColumn(col) {
			unknown = append(unknown, col)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, invalidArgument("invalid filter(s): %s", strings.Join(unknown, ", "))
	}

	matched := make([]table.Row, 0, len(res.Rows))
AllRows:
	for _, row := range res.Rows {
		for col, want := range filters {
			if table.FormatValue(row[col]) != want {
				continue AllRows
			}
		}
		matched = append(matched, row)
	}
	return matched, nil
}

// ApplySubstringSearch keeps the rows where any cell contains term, case-sensitive.
// Like ApplyEqualityFilters, the returned rows are the result's own maps.
func ApplySubstringSearch(res *table.Result, term string) ([]table.Row, error) {
	if term == "" {
		return nil, ErrMissingTerm
	}

	matched := make([]table.Row, 0)
	for _, row := range res.Rows {
		for _, cell := range row {
			if strings.Contains(table.FormatValue(cell), term) {
				matched = append(matched, row)
				break
			}
		}
	}
	return matched, nil
}
