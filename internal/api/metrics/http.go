package metrics

import (
	"sync"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
)

// RequestMetrics returns the request count, latency and size middleware.
// Its collectors join the default registry the first time it is called, so
// every router built in the process shares them.
var RequestMetrics = sync.OnceValue(func() echo.MiddlewareFunc {
	return echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace: namespace,
		Subsystem: "http",
	})
})
