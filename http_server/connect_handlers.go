package http_server

import (
	"fmt"

	"github.com/danthegoodman1/bqconnector/utils"
)

type (
	ConnectProjectQuery struct {
		ProjectID string `query:"project_id" validate:"required"`
	}

	ConnectDatasetQuery struct {
		DatasetID string `query:"dataset_id" validate:"required"`
	}

	ConnectTableQuery struct {
		TableID string `query:"table_id" validate:"required"`
	}
)

func (s *HTTPServer) ConnectToProject(c *CustomContext) error {
	var q ConnectProjectQuery
	if err := ValidateRequest(c, &q); err != nil {
		return c.BadRequest(err)
	}

	if err := s.Connector.BindProject(c.Request().Context(), q.ProjectID); err != nil {
		return c.CoreError(err, "error binding project")
	}
	return c.Message(fmt.Sprintf("Connected to project %s", q.ProjectID))
}

func (s *HTTPServer) ConnectToDataset(c *CustomContext) error {
	var q ConnectDatasetQuery
	if err := ValidateRequest(c, &q); err != nil {
		return c.BadRequest(err)
	}

	if err := s.Connector.BindDataset(c.Request().Context(), q.DatasetID); err != nil {
		return c.CoreError(err, "error binding dataset")
	}
	return c.Message(fmt.Sprintf("Connected to dataset %s", q.DatasetID))
}

func (s *HTTPServer) ConnectToTable(c *CustomContext) error {
	var q ConnectTableQuery
	if err := ValidateRequest(c, &q); err != nil {
		return c.BadRequest(err)
	}

	if err := s.Connector.BindTable(c.Request().Context(), q.TableID); err != nil {
		return c.CoreError(err, "error binding table")
	}
	return c.Message(fmt.Sprintf("Connected to table %s", q.TableID))
}

func (s *HTTPServer) ListDatasets(c *CustomContext) error {
	ids, err := s.Connector.ListDatasets(c.Request().Context())
	if err != nil {
		return c.CoreError(err, "error listing datasets")
	}
	return c.Data(utils.ArrayOrEmpty(ids))
}

func (s *HTTPServer) ListTables(c *CustomContext) error {
	ids, err := s.Connector.ListTables(c.Request().Context())
	if err != nil {
		return c.CoreError(err, "error listing tables")
	}
	return c.Data(utils.ArrayOrEmpty(ids))
}
