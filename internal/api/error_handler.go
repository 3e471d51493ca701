package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bizcard/enterprise-auth/internal/api/httperr"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Renders known domain errors through httperr so every denial keeps its shape.
//   - Passes echo's own errors (404 from the router, body limit) through.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, any) {
	if status, body, ok := httperr.Resolve(err); ok {
		httperr.SetHeaders(c, err)
		return status, body
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, httperr.ErrorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, httperr.ErrorResponse{Error: "internal server error"}
}
