package http_server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/danthegoodman1/bqconnector/parquet_accumulator"
	"github.com/danthegoodman1/bqconnector/partitioner"
	"github.com/danthegoodman1/bqconnector/table"
	"github.com/danthegoodman1/bqconnector/utils"
	"github.com/rs/zerolog"
	"github.com/xitongsys/parquet-go/writer"
)

type (
	ExportReqBody struct {
		// Key prefix of the exported files.
		//
		// Default `S3_EXPORT_PREFIX`.
		Prefix *string
		// Splits rows into one file per partition, ex: `year=2022/month=12`
		Partitioner []partitioner.PartitionPlan `validate:"dive"`
		// How many seconds before the export will time out.
		//
		// Default `60`.
		MaxRuntimeSec *int64 `validate:"omitempty,gte=1"`
	}

	ExportStats struct {
		NumRows      int64
		NumFiles     int64
		BytesWritten int64
		TimeMS       int64
		Files        []string
	}

	PartitionData struct {
		Accumulator parquet_accumulator.ParquetSchemaAccumulator
		Rows        []table.Row
	}
)

// ExportTableData writes the materialized rows to object storage as parquet
func (s *HTTPServer) ExportTableData(c *CustomContext) error {
	if s.Upload == nil {
		return c.Fail(http.StatusServiceUnavailable, "exports are not configured")
	}

	var reqBody ExportReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.BadRequest(err)
	}
	if err := partitioner.ValidatePlans(reqBody.Partitioner); err != nil {
		return c.Fail(http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*time.Duration(utils.Deref(reqBody.MaxRuntimeSec, 60)))
	defer cancel()
	logger := zerolog.Ctx(ctx)

	start := time.Now()

	binding, res, err := s.Connector.Snapshot(ctx)
	if err != nil {
		return c.CoreError(err, "error materializing rows for export")
	}
	if res.Len() == 0 {
		return c.NoContent(http.StatusNoContent)
	}

	parts := make(map[string]*PartitionData)
	for _, row := range res.Rows {
		part, err := partitioner.GetRowPartition(row, reqBody.Partitioner)
		if err != nil {
			return c.Fail(http.StatusBadRequest, fmt.Sprintf("error getting partition for row: %s", err))
		}

		if _, exists := parts[part]; !exists {
			parts[part] = &PartitionData{
				Accumulator: parquet_accumulator.NewParquetAccumulator(),
			}
		}

		p := parts[part]
		p.Rows = append(p.Rows, row)
		p.Accumulator.WriteRow(row)
	}

	prefix := path.Join(
		utils.Deref(reqBody.Prefix, utils.S3_EXPORT_PREFIX),
		"project="+binding.ProjectID,
		"dataset="+binding.DatasetID,
		"table="+binding.TableID,
	)

	stats := ExportStats{
		Files: make([]string, 0, len(parts)),
	}
	for _, partID := range utils.SortedKeys(parts) {
		partData := parts[partID]
		parquetSchema, err := partData.Accumulator.GetSchemaString()
		if err != nil {
			return c.InternalError(err, "error in GetSchemaString")
		}

		var b bytes.Buffer
		pw, err := writer.NewJSONWriterFromWriter(parquetSchema, &b, 4)
		if err != nil {
			return c.InternalError(err, "error in NewJSONWriterFromWriter")
		}

		for _, row := range partData.Rows {
			rec, err := partData.Accumulator.ToJSONRow(row)
			if err != nil {
				return c.InternalError(err, "error converting row for parquet")
			}
			err = pw.Write(rec)
			if err != nil {
				return c.InternalError(err, fmt.Sprintf("error in pw.Write for row %s", rec))
			}
			stats.NumRows++
		}
		err = pw.WriteStop()
		if err != nil {
			return c.InternalError(err, "error in pw.WriteStop")
		}

		byteLen := b.Len()
		stats.BytesWritten += int64(byteLen)

		fileName := fmt.Sprintf("%s.parquet", utils.GenKSortedID(""))
		location, err := s.Upload(ctx, path.Join(prefix, partID, fileName), &b, utils.Ptr("application/vnd.apache.parquet"))
		if err != nil {
			return c.InternalError(err, "error uploading export")
		}
		stats.Files = append(stats.Files, location)
		stats.NumFiles++
	}

	stats.TimeMS = time.Since(start).Milliseconds()
	logger.Debug().Interface("stats", stats).Msg("exported table data")

	return c.JSON(http.StatusOK, stats)
}
