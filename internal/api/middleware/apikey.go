package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/bizcard/enterprise-auth/internal/api/httperr"
	"github.com/bizcard/enterprise-auth/internal/api/metrics"
	"github.com/bizcard/enterprise-auth/internal/core/domain"
)

// HeaderAPIKey carries integration credentials.
const HeaderAPIKey = "X-Api-Key"

// ValidateAPIKey requires an x-api-key header in the biz_ key format. Only
// the format is checked; the key store lookup belongs to the integration.
func ValidateAPIKey() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderAPIKey)
			if key == "" {
				metrics.GateDenialsTotal.WithLabelValues("api_key").Inc()
				return httperr.Write(c, domain.ErrAPIKeyMissing)
			}
			if !domain.ValidAPIKeyFormat(key) {
				metrics.GateDenialsTotal.WithLabelValues("api_key").Inc()
				return httperr.Write(c, domain.ErrAPIKeyInvalid)
			}
			replaceContext(c, WithAPIKey(c.Request().Context(), key))
			return next(c)
		}
	}
}
