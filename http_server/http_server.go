package http_server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/danthegoodman1/bqconnector/connector"
	"github.com/danthegoodman1/bqconnector/gologger"
	"github.com/danthegoodman1/bqconnector/s3_helper"
	"github.com/danthegoodman1/bqconnector/utils"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

var logger = gologger.NewLogger()

type (
	HTTPServer struct {
		Echo      *echo.Echo
		Connector *connector.Connector
		// Rows returned by get_table_data when the request has no limit
		DefaultLimit int64
		// Upload writes an export object and returns its location, nil disables exports
		Upload UploadFunc
	}

	UploadFunc func(ctx context.Context, key string, body io.Reader, contentType *string) (string, error)

	CustomValidator struct {
		validator *validator.Validate
	}
)

// NewHTTPServer wires routes and middleware without listening
func NewHTTPServer(conn *connector.Connector, defaultLimit int64) *HTTPServer {
	s := &HTTPServer{
		Echo:         echo.New(),
		Connector:    conn,
		DefaultLimit: defaultLimit,
	}
	if s3_helper.Enabled() {
		s.Upload = s3_helper.WriteBytesToS3
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.JSONSerializer = &utils.NoEscapeJSONSerializer{}

	s.Echo.Use(CreateReqContext)
	s.Echo.Use(LoggerMiddleware)
	s.Echo.Use(middleware.CORS())
	s.Echo.Validator = &CustomValidator{validator: validator.New()}

	// technical - no auth
	s.Echo.GET("/hc", s.HealthCheck)
	s.Echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.Echo.GET("/connect_to_project", ccHandler(s.ConnectToProject))
	s.Echo.GET("/connect_to_dataset", ccHandler(s.ConnectToDataset))
	s.Echo.GET("/connect_to_table", ccHandler(s.ConnectToTable))
	s.Echo.GET("/datasets", ccHandler(s.ListDatasets))
	s.Echo.GET("/tables", ccHandler(s.ListTables))

	s.Echo.GET("/get_table_data", ccHandler(s.GetTableData))
	s.Echo.GET("/filter_table_data", ccHandler(s.FilterTableData))
	s.Echo.GET("/filter_row_data", ccHandler(s.FilterRowData))
	s.Echo.GET("/table_columns", ccHandler(s.TableColumns))
	s.Echo.POST("/export_table_data", ccHandler(s.ExportTableData))

	return s
}

func StartHTTPServer(conn *connector.Connector, defaultLimit int64) *HTTPServer {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", utils.HTTP_PORT))
	if err != nil {
		logger.Error().Err(err).Msg("error creating tcp listener, exiting")
		os.Exit(1)
	}
	s := NewHTTPServer(conn, defaultLimit)

	s.Echo.Listener = listener
	go func() {
		logger.Info().Msg("starting h2c server on " + listener.Addr().String())
		err := s.Echo.StartH2CServer("", &http2.Server{})
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("failed to start h2c server, exiting")
			os.Exit(1)
		}
	}()

	return s
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func ValidateRequest(c echo.Context, s interface{}) error {
	if err := c.Bind(s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(s); err != nil {
		return err
	}
	return nil
}

func (*HTTPServer) HealthCheck(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	err := s.Echo.Shutdown(ctx)
	return err
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			// default handler
			c.Error(err)
		}
		stop := time.Since(start)
		logger := zerolog.Ctx(c.Request().Context())
		req := c.Request()
		res := c.Response()

		p := req.URL.Path
		if p == "" {
			p = "/"
		}

		cl := req.Header.Get(echo.HeaderContentLength)
		if cl == "" {
			cl = "0"
		}
		logger.Debug().Str("method", req.Method).Str("remote_ip", c.RealIP()).Str("req_uri", req.RequestURI).Str("handler_path", c.Path()).Str("path", p).Int("status", res.Status).Int64("latency_ns", int64(stop)).Str("protocol", req.Proto).Str("bytes_in", cl).Int64("bytes_out", res.Size).Msg("req recived")
		return nil
	}
}
