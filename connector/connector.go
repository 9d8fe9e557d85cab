package connector

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/danthegoodman1/bqconnector/table"
	"github.com/danthegoodman1/bqconnector/utils"
	"github.com/danthegoodman1/bqconnector/warehouse"
	"github.com/rs/zerolog"
)

type (
	// Connector is one session against the warehouse: the bound project, dataset and
	// table plus a single cached read of that table. Binds and materialization are
	// serialized; filtering and searching run on the immutable cached result.
	Connector struct {
		client      warehouse.TableClient
		filterLimit *int64

		mu      sync.Mutex
		binding Binding
		// changes on every bind, used to correlate logs for one bind cycle
		bindID string
		slot   cacheSlot
	}

	// Binding is a snapshot of the bound identifiers, "" means unbound
	Binding struct {
		ProjectID string
		DatasetID string
		TableID   string
	}

	cacheSlot struct {
		key    *warehouse.TableRef
		result *table.Result
		// the limit the cached result was fetched with
		limit *int64
	}

	Option func(*Connector)
)

// WithFilterLimit caps the rows fetched when a filter or search misses the cache.
// Without it the whole table is read.
func WithFilterLimit(limit int64) Option {
	return func(c *Connector) {
		if limit > 0 {
			c.filterLimit = utils.Ptr(limit)
		}
	}
}

func New(client warehouse.TableClient, opts ...Option) *Connector {
	c := &Connector{
		client: client,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Connector) BindProject(ctx context.Context, id string) error {
	if id == "" {
		return invalidArgument("missing project id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.binding = Binding{ProjectID: id}
	c.invalidate(ctx, "project")
	return nil
}

func (c *Connector) BindDataset(ctx context.Context, id string) error {
	if id == "" {
		return invalidArgument("missing dataset id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.binding.ProjectID == "" {
		return ErrProjectNotBound
	}
	c.binding.DatasetID = id
	c.binding.TableID = ""
	c.invalidate(ctx, "dataset")
	return nil
}

func (c *Connector) BindTable(ctx context.Context, id string) error {
	if id == "" {
		return invalidArgument("missing table id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.binding.DatasetID == "" {
		return ErrDatasetNotBound
	}
	c.binding.TableID = id
	c.invalidate(ctx, "table")
	return nil
}

// invalidate must be called with mu held
func (c *Connector) invalidate(ctx context.Context, level string) {
	c.slot = cacheSlot{}
	c.bindID = utils.GenKSortedID("bind_")
	metricBinds.WithLabelValues(level).Inc()
	zerolog.Ctx(ctx).Debug().Str("bindID", c.bindID).Str("level", level).Interface("binding", c.binding).Msg("bound, cache cleared")
}

func (c *Connector) Binding() Binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.binding
}

// tableRef must be called with mu held
func (c *Connector) tableRef() (warehouse.TableRef, bool) {
	if c.binding.TableID == "" {
		return warehouse.TableRef{}, false
	}
	return warehouse.TableRef{
		ProjectID: c.binding.ProjectID,
		DatasetID: c.binding.DatasetID,
		TableID:   c.binding.TableID,
	}, true
}

// Materialized returns the cached read of the bound table, fetching it on a miss.
// On a hit the limit is ignored and the first fetch's rows are returned.
func (c *Connector) Materialized(ctx context.Context, limit *int64) (*table.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.materialize(ctx, limit)
}

// Snapshot materializes like a filter would and returns the binding the rows belong to
func (c *Connector) Snapshot(ctx context.Context) (Binding, *table.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, err := c.materialize(ctx, c.filterLimit)
	if err != nil {
		return Binding{}, nil, err
	}
	return c.binding, res, nil
}

// materialize must be called with mu held
func (c *Connector) materialize(ctx context.Context, limit *int64) (*table.Result, error) {
	if limit != nil && *limit < 1 {
		return nil, ErrInvalidLimit
	}
	ref, bound := c.tableRef()
	if !bound {
		return nil, ErrTableNotBound
	}

	logger := zerolog.Ctx(ctx).With().Str("bindID", c.bindID).Str("table", ref.String()).Logger()
	if c.slot.key != nil && *c.slot.key == ref && c.slot.result != nil {
		metricCacheHit.Inc()
		if utils.Deref(limit, -1) != utils.Deref(c.slot.limit, -1) {
			logger.Debug().Interface("requestedLimit", limit).Interface("cachedLimit", c.slot.limit).Msg("limit ignored, serving cached rows")
		}
		return c.slot.result, nil
	}

	metricCacheMiss.Inc()
	fetchID := utils.GenRandomShortID()
	logger.Debug().Str("fetchID", fetchID).Interface("limit", limit).Msg("cache miss, fetching rows")
	s := time.Now()
	res, err := c.client.FetchRows(ctx, ref, limit)
	metricFetchLatency.Observe(time.Since(s).Seconds())
	if err != nil {
		metricFetchErrors.Inc()
		return nil, upstreamFailure("error fetching "+ref.String(), err)
	}

	c.slot = cacheSlot{
		key:    &ref,
		result: res,
		limit:  limit,
	}
	logger.Debug().Str("fetchID", fetchID).Int("rows", res.Len()).Msg("cached rows")
	return res, nil
}

// FetchRows returns up to limit rows of the bound table. Like FilterRows and SearchRows,
// it hands out copies so the cached rows cannot be modified through them.
func (c *Connector) FetchRows(ctx context.Context, limit *int64) ([]table.Row, error) {
	res, err := c.Materialized(ctx, limit)
	if err != nil {
		return nil, err
	}
	return table.CloneRows(res.Rows), nil
}

func (c *Connector) FilterRows(ctx context.Context, filters Filters) ([]table.Row, error) {
	res, err := c.Materialized(ctx, c.filterLimit)
	if err != nil {
		return nil, err
	}
	rows, err := ApplyEqualityFilters(res, filters)
	if err != nil {
		return nil, err
	}
	return table.CloneRows(rows), nil
}

func (c *Connector) SearchRows(ctx context.Context, term string) ([]table.Row, error) {
	// validate before paying for a fetch
	if term == "" {
		return nil, ErrMissingTerm
	}
	res, err := c.Materialized(ctx, c.filterLimit)
	if err != nil {
		return nil, err
	}
	rows, err := ApplySubstringSearch(res, term)
	if err != nil {
		return nil, err
	}
	return table.CloneRows(rows), nil
}

// Columns lists the columns of the materialized table
func (c *Connector) Columns(ctx context.Context) ([]string, error) {
	res, err := c.Materialized(ctx, c.filterLimit)
	if err != nil {
		return nil, err
	}
	return slices.Clone(res.Columns), nil
}

func (c *Connector) ListDatasets(ctx context.Context) ([]string, error) {
	b := c.Binding()
	if b.ProjectID == "" {
		return nil, ErrProjectNotBound
	}
	ids, err := c.client.ListDatasets(ctx, b.ProjectID)
	if err != nil {
		return nil, upstreamFailure("error listing datasets of "+b.ProjectID, err)
	}
	return ids, nil
}

func (c *Connector) ListTables(ctx context.Context) ([]string, error) {
	b := c.Binding()
	if b.DatasetID == "" {
		return nil, &Error{Kind: PreconditionFailed, Msg: "dataset must be bound first"}
	}
	ids, err := c.client.ListTables(ctx, b.ProjectID, b.DatasetID)
	if err != nil {
		return nil, upstreamFailure("error listing tables of "+b.ProjectID+"."+b.DatasetID, err)
	}
	return ids, nil
}
