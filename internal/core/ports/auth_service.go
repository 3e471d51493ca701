package ports

import (
	"context"
	"time"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
)

// RequestMeta carries the caller facts recorded in the security audit log.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// RegisterInput carries everything needed to create an identity.
// TenantID may be empty, in which case the tenant is resolved from the
// e-mail domain.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	TenantID string
	Meta     RequestMeta
}

// TokenPair is returned by a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// LoginResult bundles the issued tokens with the identity they describe.
type LoginResult struct {
	Tokens   TokenPair
	Identity *domain.Identity
}

// RefreshResult carries a freshly minted access token.
type RefreshResult struct {
	AccessToken string
	ExpiresIn   time.Duration
	Identity    *domain.Identity
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Identity, error)
	Login(ctx context.Context, email, password string, meta RequestMeta) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string, meta RequestMeta) (*RefreshResult, error)
}
