package warehouse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/Velocidex/ttlcache/v2"
	"github.com/danthegoodman1/bqconnector/table"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type (
	BigQueryClient struct {
		opts []option.ClientOption

		// one client per project, closed when it expires
		clients *ttlcache.Cache
		mu      sync.Mutex
	}
)

// NewBigQueryClient creates the adapter. No network calls happen until the first read.
func NewBigQueryClient(clientTTL time.Duration, opts ...option.ClientOption) *BigQueryClient {
	bq := &BigQueryClient{
		opts:    opts,
		clients: ttlcache.NewCache(),
	}
	_ = bq.clients.SetTTL(clientTTL)
	bq.clients.SetExpirationCallback(func(key string, value interface{}) error {
		c, ok := value.(*bigquery.Client)
		if ok {
			// Do not block the cache while closing
			go func() {
				if err := c.Close(); err != nil {
					logger.Warn().Err(err).Str("project", key).Msg("error closing expired bigquery client")
				}
			}()
		}
		return nil
	})
	return bq
}

func (bq *BigQueryClient) client(ctx context.Context, projectID string) (*bigquery.Client, error) {
	bq.mu.Lock()
	defer bq.mu.Unlock()

	cached, err := bq.clients.Get(projectID)
	if err == nil {
		return cached.(*bigquery.Client), nil
	}

	zerolog.Ctx(ctx).Debug().Str("project", projectID).Msg("creating bigquery client")
	c, err := bigquery.NewClient(ctx, projectID, bq.opts...)
	if err != nil {
		return nil, fmt.Errorf("error in bigquery.NewClient: %w", err)
	}
	_ = bq.clients.Set(projectID, c)
	return c, nil
}

func (bq *BigQueryClient) FetchRows(ctx context.Context, ref TableRef, limit *int64) (*table.Result, error) {
	logger := zerolog.Ctx(ctx)
	c, err := bq.client(ctx, ref.ProjectID)
	if err != nil {
		return nil, err
	}

	s := time.Now()
	it := c.Dataset(ref.DatasetID).Table(ref.TableID).Read(ctx)
	if limit != nil && *limit > 0 {
		it.PageInfo().MaxSize = int(*limit)
	}

	rows := make([]table.Row, 0)
	for limit == nil || int64(len(rows)) < *limit {
		var vals map[string]bigquery.Value
		err := it.Next(&vals)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error in RowIterator.Next for %s: %w", ref, err)
		}
		row, err := FlattenRow(vals, it.Schema)
		if err != nil {
			return nil, fmt.Errorf("error flattening row of %s: %w", ref, err)
		}
		rows = append(rows, row)
	}

	columns := ColumnsFor(it.Schema, rows)
	d := time.Since(s)
	logger.Debug().Str("table", ref.String()).Int("rows", len(rows)).Int64("durationNS", d.Nanoseconds()).Str("durationHuman", d.String()).Msg("read table rows")

	return table.NewResult(columns, rows), nil
}

func (bq *BigQueryClient) ListDatasets(ctx context.Context, projectID string) ([]string, error) {
	c, err := bq.client(ctx, projectID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0)
	it := c.Datasets(ctx)
	for {
		ds, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error in DatasetIterator.Next: %w", err)
		}
		ids = append(ids, ds.DatasetID)
	}
	return ids, nil
}

func (bq *BigQueryClient) ListTables(ctx context.Context, projectID, datasetID string) ([]string, error) {
	c, err := bq.client(ctx, projectID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0)
	it := c.Dataset(datasetID).Tables(ctx)
	for {
		t, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error in TableIterator.Next: %w", err)
		}
		ids = append(ids, t.TableID)
	}
	return ids, nil
}

func (bq *BigQueryClient) Shutdown(_ context.Context) error {
	bq.mu.Lock()
	defer bq.mu.Unlock()

	// Close clients here rather than in the expiration callback
	bq.clients.SetExpirationCallback(func(string, interface{}) error { return nil })
	var errs []error
	for _, project := range bq.clients.GetKeys() {
		cached, err := bq.clients.Get(project)
		if err != nil {
			continue
		}
		if err := cached.(*bigquery.Client).Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing bigquery client for %s: %w", project, err))
		}
	}
	if err := bq.clients.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing bigquery client cache: %w", err))
	}
	return errors.Join(errs...)
}
