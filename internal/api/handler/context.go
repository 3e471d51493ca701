package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/bizcard/enterprise-auth/internal/api/middleware"
	"github.com/bizcard/enterprise-auth/internal/core/domain"
)

// ctxIdentity returns the identity attached by Authenticate. A handler
// mounted without the middleware gets domain.ErrAuthRequired instead of a
// zero identity.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFromContext(c.Request().Context())
	if !ok || id.ID == "" {
		return domain.Identity{}, domain.ErrAuthRequired
	}
	return id, nil
}

// bindAndValidate decodes the body into req and runs the echo validator.
// Both failures are reported as domain.ErrInvalidInput.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return invalidPayload
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}
