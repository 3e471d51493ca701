package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
)

const (
	DefaultIssuer     = "bizcard-enterprise"
	DefaultAudience   = "bizcard-app"
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenConfig is injected once at start-up.
type TokenConfig struct {
	Secret     string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AccessClaims is the payload of an access token: a frozen snapshot of the
// identity at issuance.
type AccessClaims struct {
	UserID      string   `json:"id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	TenantID    string   `json:"tenantId"`
	Tier        string   `json:"tier"`
	Permissions []string `json:"permissions"`
	Type        string   `json:"type"`
	jwt.RegisteredClaims
}

// Validate is called by the jwt parser after the registered claims pass.
func (c *AccessClaims) Validate() error {
	if c.Type != tokenTypeAccess {
		return errors.New("not an access token")
	}
	if c.UserID == "" {
		return errors.New("missing subject")
	}
	if _, err := domain.ParseRole(c.Role); err != nil {
		return err
	}
	return nil
}

// Identity rebuilds the principal carried by the token.
func (c *AccessClaims) Identity() domain.Identity {
	perms := make([]string, len(c.Permissions))
	copy(perms, c.Permissions)
	return domain.Identity{
		ID:          c.UserID,
		Email:       c.Email,
		Role:        domain.Role(c.Role),
		TenantID:    c.TenantID,
		Tier:        domain.Tier(c.Tier),
		Permissions: perms,
	}
}

// RefreshClaims is the payload of a refresh token.
type RefreshClaims struct {
	UserID string `json:"userId"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

func (c *RefreshClaims) Validate() error {
	if c.Type != tokenTypeRefresh {
		return errors.New("not a refresh token")
	}
	if c.UserID == "" {
		return errors.New("missing subject")
	}
	return nil
}

// TokenService issues and verifies HS256 tokens. Verification is stateless:
// there is no session store and no revocation list.
type TokenService struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token service: signing secret is required")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &TokenService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

// AccessTTL is the lifetime of issued access tokens.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

func (s *TokenService) IssueAccessToken(identity domain.Identity) (string, error) {
	now := s.now()
	claims := &AccessClaims{
		UserID:      identity.ID,
		Email:       identity.Email,
		Role:        string(identity.Role),
		TenantID:    identity.TenantID,
		Tier:        string(identity.Tier),
		Permissions: identity.Permissions,
		Type:        tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.ID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	return s.sign(claims)
}

func (s *TokenService) IssueRefreshToken(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	now := s.now()
	claims := &RefreshClaims{
		UserID: userID,
		Type:   tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	}
	return s.sign(claims)
}

// VerifyAccessToken checks signature, issuer, audience, expiry and token
// type. Every failure is reported as domain.ErrTokenInvalid.
func (s *TokenService) VerifyAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(token, claims,
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshToken checks signature, expiry and token type only.
func (s *TokenService) VerifyRefreshToken(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *TokenService) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) parse(token string, claims jwt.Claims, opts ...jwt.ParserOption) error {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	tkn, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTokenInvalid, err)
	}
	if !tkn.Valid {
		return domain.ErrTokenInvalid
	}
	return nil
}
