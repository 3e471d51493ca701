package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/bizcard/enterprise-auth/internal/api/httperr"
	"github.com/bizcard/enterprise-auth/internal/api/metrics"
	"github.com/bizcard/enterprise-auth/internal/core/domain"
	"github.com/bizcard/enterprise-auth/internal/core/ports"
	"github.com/bizcard/enterprise-auth/internal/core/service"
)

// Gates builds the authorization middleware. Each gate assumes Authenticate
// already ran; a failing gate ends the request.
type Gates struct {
	audit ports.SecurityAuditor
}

func NewGates(audit ports.SecurityAuditor) *Gates {
	return &Gates{audit: audit}
}

// RequireRole admits identities whose role is one of allowed.
func (g *Gates) RequireRole(allowed ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := identityOf(c)
			if err := service.CheckRole(id, allowed...); err != nil {
				return g.deny(c, "role", id, err)
			}
			return next(c)
		}
	}
}

// RequirePermission admits identities holding perm or the wildcard.
func (g *Gates) RequirePermission(perm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := identityOf(c)
			if err := service.CheckPermission(id, perm); err != nil {
				return g.deny(c, "permission", id, err)
			}
			return next(c)
		}
	}
}

// RequireTenant admits identities bound to a tenant and scopes the request
// context to it.
func (g *Gates) RequireTenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := identityOf(c)
			tenantID, err := service.CheckTenant(id)
			if err != nil {
				return g.deny(c, "tenant", id, err)
			}
			replaceContext(c, WithTenant(c.Request().Context(), tenantID))
			return next(c)
		}
	}
}

// RequireTier admits identities whose tier ranks at or above min.
func (g *Gates) RequireTier(min domain.Tier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := identityOf(c)
			if err := service.CheckTier(id, min); err != nil {
				return g.deny(c, "tier", id, err)
			}
			return next(c)
		}
	}
}

func (g *Gates) deny(c echo.Context, gate string, id *domain.Identity, err error) error {
	metrics.GateDenialsTotal.WithLabelValues(gate).Inc()

	if id != nil {
		meta := RequestMeta(c)
		g.audit.LogEvent(c.Request().Context(), denialEvent(err), id.ID, domain.EventDetails{
			TenantID:  id.TenantID,
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
			Success:   false,
			Extra: map[string]string{
				"gate":   gate,
				"path":   c.Path(),
				"reason": err.Error(),
			},
		})
	}
	return httperr.Write(c, err)
}

func denialEvent(err error) domain.SecurityEventType {
	var tierErr *domain.TierError
	switch {
	case errors.As(err, &tierErr):
		return domain.EventUpgradeRequired
	case errors.Is(err, domain.ErrTenantRequired):
		return domain.EventTenantRequired
	}
	return domain.EventPermissionDenied
}
