package warehouse

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/danthegoodman1/bqconnector/table"
)

var (
	ErrTableNotFound = errors.New("table not found")
)

type (
	// MemoryClient serves tables held in memory. It counts fetches so callers can
	// assert on how often the warehouse was hit.
	MemoryClient struct {
		mu      sync.Mutex
		tables  map[TableRef]*table.Result
		fetches int
		failure error
	}
)

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		tables: make(map[TableRef]*table.Result),
	}
}

func (mc *MemoryClient) PutTable(ref TableRef, columns []string, rows []table.Row) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.tables[ref] = table.NewResult(columns, rows)
}

// FailWith makes every following fetch return err until it is called with nil
func (mc *MemoryClient) FailWith(err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.failure = err
}

func (mc *MemoryClient) Fetches() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.fetches
}

func (mc *MemoryClient) FetchRows(_ context.Context, ref TableRef, limit *int64) (*table.Result, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.fetches++
	if mc.failure != nil {
		return nil, mc.failure
	}

	t, exists := mc.tables[ref]
	if !exists {
		return nil, fmt.Errorf("%s: %w", ref, ErrTableNotFound)
	}

	n := len(t.Rows)
	if limit != nil && *limit < int64(n) {
		n = max(int(*limit), 0)
	}
	return table.NewResult(t.Columns, table.CloneRows(t.Rows[:n])), nil
}

func (mc *MemoryClient) ListDatasets(_ context.Context, projectID string) ([]string, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	set := make(map[string]struct{})
	for ref := range mc.tables {
		if ref.ProjectID == projectID {
			set[ref.DatasetID] = struct{}{}
		}
	}
	return sortedSet(set), nil
}

func (mc *MemoryClient) ListTables(_ context.Context, projectID, datasetID string) ([]string, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	set := make(map[string]struct{})
	for ref := range mc.tables {
		if ref.ProjectID == projectID && ref.DatasetID == datasetID {
			set[ref.TableID] = struct{}{}
		}
	}
	return sortedSet(set), nil
}

func (mc *MemoryClient) Shutdown(_ context.Context) error {
	return nil
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
