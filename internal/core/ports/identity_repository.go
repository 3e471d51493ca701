package ports

import (
	"context"
	"time"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
)

// IdentityRepository is the credential/user store consumed by the auth core.
type IdentityRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	// UpdateLastLogin stamps a successful login.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}
