package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
	"github.com/bizcard/enterprise-auth/internal/core/ports"
)

type ctxKey int

const (
	identityKey ctxKey = iota
	tenantKey
	apiKeyKey
)

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the identity attached by authentication.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	return id, ok
}

// WithTenant returns a copy of ctx scoped to tenantID.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// TenantFromContext returns the tenant id attached by the tenant gate.
func TenantFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tenantKey).(string)
	return t, ok && t != ""
}

// WithAPIKey returns a copy of ctx carrying a validated API key.
func WithAPIKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, apiKeyKey, key)
}

// APIKeyFromContext returns the key accepted by ValidateAPIKey.
func APIKeyFromContext(ctx context.Context) (string, bool) {
	k, ok := ctx.Value(apiKeyKey).(string)
	return k, ok
}

// RequestMeta extracts the caller facts recorded in the audit log.
func RequestMeta(c echo.Context) ports.RequestMeta {
	return ports.RequestMeta{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// replaceContext swaps the request for one carrying ctx. Earlier stages keep
// the request they were given.
func replaceContext(c echo.Context, ctx context.Context) {
	c.SetRequest(c.Request().WithContext(ctx))
}

func identityOf(c echo.Context) *domain.Identity {
	id, ok := IdentityFromContext(c.Request().Context())
	if !ok {
		return nil
	}
	return &id
}
