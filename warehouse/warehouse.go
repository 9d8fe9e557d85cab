package warehouse

import (
	"context"
	"fmt"

	"github.com/danthegoodman1/bqconnector/gologger"
	"github.com/danthegoodman1/bqconnector/table"
)

var (
	logger = gologger.NewLogger()
)

type (
	TableClient interface {
		// FetchRows reads up to limit rows of a table into memory. A nil limit reads the
		// whole table. Implementations must not cache results.
		FetchRows(ctx context.Context, ref TableRef, limit *int64) (*table.Result, error)

		ListDatasets(ctx context.Context, projectID string) ([]string, error)
		ListTables(ctx context.Context, projectID, datasetID string) ([]string, error)

		Shutdown(ctx context.Context) error
	}

	// TableRef fully addresses a remote table. It is comparable, so it doubles as a cache key.
	TableRef struct {
		ProjectID string
		DatasetID string
		TableID   string
	}
)

func (r TableRef) String() string {
	return fmt.Sprintf("%s.%s.%s", r.ProjectID, r.DatasetID, r.TableID)
}
