package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
	"github.com/bizcard/enterprise-auth/internal/core/ports"
)

// timingPlaceholder is hashed once and compared against when the e-mail is
// unknown, so both login failures pay for one bcrypt compare.
const timingPlaceholder = "bizcard-unknown-user-placeholder"

// CredentialHasher is the subset of PasswordHasher the auth service needs.
type CredentialHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	NeedsRehash(hash string) bool
}

// AuthService implements registration, login and access-token refresh.
type AuthService struct {
	repo    ports.IdentityRepository
	tenants ports.TenantRepository
	hasher  CredentialHasher
	tokens  *TokenService
	audit   ports.SecurityAuditor
	log     zerolog.Logger
	now     func() time.Time

	placeholderOnce sync.Once
	placeholderHash string
}

func NewAuthService(
	repo ports.IdentityRepository,
	tenants ports.TenantRepository,
	hasher CredentialHasher,
	tokens *TokenService,
	audit ports.SecurityAuditor,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:    repo,
		tenants: tenants,
		hasher:  hasher,
		tokens:  tokens,
		audit:   audit,
		log:     log,
		now:     time.Now,
	}
}

// Register creates an identity with the user role. Elevated roles are
// granted by tenant administration, never through self-registration.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", domain.ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}

	tenant, err := s.resolveTenant(ctx, in.TenantID, email)
	if err != nil {
		return nil, err
	}
	tier := tenant.Plan
	if !tier.Valid() {
		tier = domain.TierFree
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	identity := &domain.Identity{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         domain.RoleUser,
		TenantID:     tenant.ID,
		Tier:         tier,
		Permissions:  domain.RoleUser.Permissions(),
		CreatedAt:    s.now().UTC(),
	}

	created, err := s.repo.Create(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.audit.LogEvent(ctx, domain.EventUserRegistered, created.ID, domain.EventDetails{
		TenantID:  created.TenantID,
		IP:        in.Meta.IP,
		UserAgent: in.Meta.UserAgent,
		Success:   true,
	})
	return created, nil
}

// Login verifies credentials and issues an access/refresh token pair.
// Unknown e-mail and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string, meta ports.RequestMeta) (*ports.LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	identity, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(password, s.placeholder())
			s.loginFailed(ctx, email, "", meta, "unknown_user")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(password, identity.PasswordHash) {
		s.loginFailed(ctx, identity.ID, identity.TenantID, meta, "bad_password")
		return nil, domain.ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(identity.PasswordHash) {
		s.upgradeHash(ctx, identity, password)
	}

	now := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, identity.ID, now); err != nil {
		s.log.Warn().Err(err).Str("user_id", identity.ID).Msg("failed to update last login")
	} else {
		s.log.Info().Str("user_id", identity.ID).Time("last_login", now).Msg("last login updated")
	}
	identity.LastLogin = now

	access, err := s.tokens.IssueAccessToken(*identity)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(identity.ID)
	if err != nil {
		return nil, err
	}

	s.audit.LogEvent(ctx, domain.EventLoginSuccess, identity.ID, domain.EventDetails{
		TenantID:  identity.TenantID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Success:   true,
	})

	return &ports.LoginResult{
		Tokens: ports.TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresIn:    s.tokens.AccessTTL(),
		},
		Identity: identity,
	}, nil
}

// Refresh mints a new access token from a refresh token. The identity is
// reloaded so role and tier changes take effect; the refresh token itself
// is not renewed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta ports.RequestMeta) (*ports.RefreshResult, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	identity, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	access, err := s.tokens.IssueAccessToken(*identity)
	if err != nil {
		return nil, err
	}

	s.audit.LogEvent(ctx, domain.EventTokenRefreshed, identity.ID, domain.EventDetails{
		TenantID:  identity.TenantID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Success:   true,
	})

	return &ports.RefreshResult{
		AccessToken: access,
		ExpiresIn:   s.tokens.AccessTTL(),
		Identity:    identity,
	}, nil
}

func (s *AuthService) resolveTenant(ctx context.Context, tenantID, email string) (*domain.Tenant, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID != "" {
		return s.tenants.FindByID(ctx, tenantID)
	}
	at := strings.LastIndex(email, "@")
	return s.tenants.FindByDomain(ctx, email[at+1:])
}

func (s *AuthService) placeholder() string {
	s.placeholderOnce.Do(func() {
		hash, err := s.hasher.Hash(timingPlaceholder)
		if err != nil {
			s.log.Warn().Err(err).Msg("placeholder hash failed")
			return
		}
		s.placeholderHash = hash
	})
	return s.placeholderHash
}

func (s *AuthService) upgradeHash(ctx context.Context, identity *domain.Identity, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", identity.ID).Msg("password rehash failed")
		return
	}
	if err := s.repo.UpdatePasswordHash(ctx, identity.ID, hash); err != nil {
		s.log.Warn().Err(err).Str("user_id", identity.ID).Msg("failed to store rehashed password")
		return
	}
	identity.PasswordHash = hash
}

func (s *AuthService) loginFailed(ctx context.Context, subject, tenantID string, meta ports.RequestMeta, reason string) {
	s.audit.LogEvent(ctx, domain.EventLoginFailure, subject, domain.EventDetails{
		TenantID:  tenantID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Success:   false,
		Extra:     map[string]string{"reason": reason},
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
