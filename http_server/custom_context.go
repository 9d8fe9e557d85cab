package http_server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danthegoodman1/bqconnector/connector"
	"github.com/danthegoodman1/bqconnector/gologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type (
	CustomContext struct {
		echo.Context
		RequestID string
	}

	MessageResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	DataResponse struct {
		Success bool `json:"success"`
		Data    any  `json:"data"`
	}

	ErrorResponse struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
)

func CreateReqContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := uuid.NewString()
		ctx := context.WithValue(c.Request().Context(), gologger.ReqIDKey, reqID)
		ctx = logger.WithContext(ctx)
		c.SetRequest(c.Request().WithContext(ctx))
		logger := zerolog.Ctx(ctx)
		logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("reqID", reqID)
		})
		cc := &CustomContext{
			Context:   c,
			RequestID: reqID,
		}
		return next(cc)
	}
}

// Casts to custom context for the handler, so this doesn't have to be done per handler
func ccHandler(h func(*CustomContext) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h(c.(*CustomContext))
	}
}

func (c *CustomContext) internalErrorMessage() string {
	return "internal error, request id: " + c.RequestID
}

func (c *CustomContext) InternalError(err error, msg string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		zerolog.Ctx(c.Request().Context()).Warn().CallerSkipFrame(1).Msg(err.Error())
	} else {
		zerolog.Ctx(c.Request().Context()).Error().CallerSkipFrame(1).Err(err).Msg(msg)
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: c.internalErrorMessage()})
}

func (c *CustomContext) Message(msg string) error {
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: msg})
}

func (c *CustomContext) Data(data any) error {
	return c.JSON(http.StatusOK, DataResponse{Success: true, Data: data})
}

func (c *CustomContext) Fail(status int, msg string) error {
	return c.JSON(status, ErrorResponse{Error: msg})
}

// BadRequest reports a bind or validation failure
func (c *CustomContext) BadRequest(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return c.Fail(http.StatusBadRequest, fmt.Sprint(he.Message))
	}
	return c.Fail(http.StatusBadRequest, err.Error())
}

// CoreError maps connector error kinds to status codes, anything else is internal
func (c *CustomContext) CoreError(err error, msg string) error {
	logger := zerolog.Ctx(c.Request().Context())
	switch connector.KindOf(err) {
	case connector.InvalidArgument:
		return c.Fail(http.StatusBadRequest, err.Error())
	case connector.PreconditionFailed:
		return c.Fail(http.StatusPreconditionFailed, err.Error())
	case connector.UpstreamFailure:
		logger.Warn().CallerSkipFrame(1).Err(err).Msg(msg)
		return c.Fail(http.StatusBadGateway, err.Error())
	default:
		return c.InternalError(err, msg)
	}
}
