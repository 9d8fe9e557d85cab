package http_server

import (
	"fmt"
	"net/http"

	"github.com/danthegoodman1/bqconnector/connector"
	"github.com/danthegoodman1/bqconnector/utils"
	"github.com/labstack/echo/v4"
)

type (
	SearchQuery struct {
		SearchValue string `query:"search_value"`
	}
)

func (s *HTTPServer) GetTableData(c *CustomContext) error {
	limit := s.DefaultLimit
	if err := echo.QueryParamsBinder(c).Int64("limit", &limit).BindError(); err != nil {
		return c.BadRequest(err)
	}
	if limit < 1 {
		return c.Fail(http.StatusBadRequest, fmt.Sprintf("limit must be at least 1, got %d", limit))
	}

	rows, err := s.Connector.FetchRows(c.Request().Context(), &limit)
	if err != nil {
		return c.CoreError(err, "error fetching rows")
	}
	return c.Data(utils.ArrayOrEmpty(rows))
}

// FilterTableData treats every query param as a column=value equality filter
func (s *HTTPServer) FilterTableData(c *CustomContext) error {
	filters := make(connector.Filters)
	for key, vals := range c.QueryParams() {
		if len(vals) > 0 {
			filters[key] = vals[0]
		}
	}

	rows, err := s.Connector.FilterRows(c.Request().Context(), filters)
	if err != nil {
		return c.CoreError(err, "error filtering rows")
	}
	return c.Data(utils.ArrayOrEmpty(rows))
}

func (s *HTTPServer) FilterRowData(c *CustomContext) error {
	var q SearchQuery
	if err := ValidateRequest(c, &q); err != nil {
		return c.BadRequest(err)
	}

	rows, err := s.Connector.SearchRows(c.Request().Context(), q.SearchValue)
	if err != nil {
		return c.CoreError(err, "error searching rows")
	}
	return c.Data(utils.ArrayOrEmpty(rows))
}

func (s *HTTPServer) TableColumns(c *CustomContext) error {
	cols, err := s.Connector.Columns(c.Request().Context())
	if err != nil {
		return c.CoreError(err, "error getting columns")
	}
	return c.Data(utils.ArrayOrEmpty(cols))
}
