package ports

import (
	"context"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
)

// TenantRepository resolves tenants by id or by e-mail domain.
type TenantRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Tenant, error)
	FindByDomain(ctx context.Context, domain string) (*domain.Tenant, error)
}
