package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
	"github.com/bizcard/enterprise-auth/internal/core/ports"
)

type stubIdentityRepo struct {
	users      map[string]*domain.Identity
	lastLogins map[string]time.Time
	seq        int
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{
		users:      make(map[string]*domain.Identity),
		lastLogins: make(map[string]time.Time),
	}
}

func cloneIdentity(u *domain.Identity) *domain.Identity {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Permissions = append([]string(nil), u.Permissions...)
	return &clone
}

func (r *stubIdentityRepo) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	for _, u := range r.users {
		if u.Email == identity.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	c := cloneIdentity(identity)
	if c.ID == "" {
		c.ID = fmt.Sprintf("user-%d", r.seq)
	}
	r.users[c.ID] = cloneIdentity(c)
	return c, nil
}

func (r *stubIdentityRepo) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneIdentity(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubIdentityRepo) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneIdentity(u), nil
}

func (r *stubIdentityRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LastLogin = at
	r.lastLogins[id] = at
	return nil
}

func (r *stubIdentityRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

type stubTenantRepo struct {
	tenants map[string]*domain.Tenant
}

func newStubTenantRepo(tenants ...*domain.Tenant) *stubTenantRepo {
	r := &stubTenantRepo{tenants: make(map[string]*domain.Tenant)}
	for _, t := range tenants {
		r.tenants[t.ID] = t
	}
	return r
}

func (r *stubTenantRepo) FindByID(_ context.Context, id string) (*domain.Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return nil, domain.ErrTenantNotFound
	}
	return t, nil
}

func (r *stubTenantRepo) FindByDomain(_ context.Context, d string) (*domain.Tenant, error) {
	for _, t := range r.tenants {
		if t.Domain == d {
			return t, nil
		}
	}
	return nil, domain.ErrTenantNotFound
}

type recordedEvent struct {
	event   domain.SecurityEventType
	userID  string
	details domain.EventDetails
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (a *recordingAuditor) LogEvent(_ context.Context, event domain.SecurityEventType, userID string, details domain.EventDetails) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, recordedEvent{event: event, userID: userID, details: details})
}

func (a *recordingAuditor) last() recordedEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.events) == 0 {
		return recordedEvent{}
	}
	return a.events[len(a.events)-1]
}

type authFixture struct {
	svc     *AuthService
	repo    *stubIdentityRepo
	tokens  *TokenService
	auditor *recordingAuditor
	hasher  *countingHasher
}

// countingHasher records how many bcrypt compares a call performed.
type countingHasher struct {
	CredentialHasher
	mu       sync.Mutex
	verifies int
}

func (h *countingHasher) Verify(password, hash string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.CredentialHasher.Verify(password, hash)
}

func (h *countingHasher) verifyCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tokens, err := NewTokenService(TokenConfig{Secret: "secret", AccessTTL: time.Hour})
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	repo := newStubIdentityRepo()
	tenants := newStubTenantRepo(
		&domain.Tenant{ID: "tenant-acme", Domain: "acme.com", Plan: domain.TierBusiness},
		&domain.Tenant{ID: "tenant-free", Domain: "tiny.io", Plan: domain.TierFree},
		&domain.Tenant{ID: "tenant-big", Domain: "bigcorp.com", Plan: domain.TierEnterprise},
	)
	auditor := &recordingAuditor{}
	hasher := &countingHasher{CredentialHasher: NewPasswordHasher(bcrypt.MinCost)}
	svc := NewAuthService(repo, tenants, hasher, tokens, auditor, zerolog.Nop())
	return &authFixture{svc: svc, repo: repo, tokens: tokens, auditor: auditor, hasher: hasher}
}

func TestAuthService_Register_Success(t *testing.T) {
	f := newAuthFixture(t)

	user, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Email:    "Alice@Acme.com",
		Password: "pass123",
		Name:     "Alice",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "alice@acme.com" {
		t.Fatalf("email not normalised: %s", user.Email)
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.TenantID != "tenant-acme" || user.Tier != domain.TierBusiness {
		t.Fatalf("tenant not resolved from email domain: %+v", user)
	}
	if user.Role != domain.RoleUser || !user.HasPermission("cards:process") {
		t.Fatalf("expected user role defaults, got %s %v", user.Role, user.Permissions)
	}
	if got := f.auditor.last(); got.event != domain.EventUserRegistered || got.userID != user.ID {
		t.Fatalf("unexpected audit event: %+v", got)
	}
}

func TestAuthService_Register_DefaultsToUserRole(t *testing.T) {
	f := newAuthFixture(t)

	user, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Email: "bob@tiny.io", Password: "pass", TenantID: "tenant-free",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Role != domain.RoleUser || user.Tier != domain.TierFree {
		t.Fatalf("unexpected role/tier: %s/%s", user.Role, user.Tier)
	}
}

func TestAuthService_Register_EnterpriseDomainGetsNoPrivileges(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, ports.RegisterInput{Email: "stranger@bigcorp.com", Password: "pass"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	res, err := f.svc.Login(ctx, "stranger@bigcorp.com", "pass", ports.RequestMeta{})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := f.tokens.VerifyAccessToken(res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	id := claims.Identity()
	if id.Role != domain.RoleUser || id.Tier != domain.TierEnterprise {
		t.Fatalf("unexpected role/tier: %s/%s", id.Role, id.Tier)
	}
	if id.HasPermission(domain.PermissionAll) || id.BypassesRateLimit() {
		t.Fatalf("self-registered identity must not be privileged: %+v", id)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, ports.RegisterInput{Email: "", Password: "pass"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty email, got %v", err)
	}
	if _, err := f.svc.Register(ctx, ports.RegisterInput{Email: "x@acme.com", Password: ""}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty password, got %v", err)
	}
	if _, err := f.svc.Register(ctx, ports.RegisterInput{Email: "x@nowhere.net", Password: "p"}); !errors.Is(err, domain.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, _ = f.svc.Register(ctx, ports.RegisterInput{Email: "bob@acme.com", Password: "pass"})
	if _, err := f.svc.Register(ctx, ports.RegisterInput{Email: "bob@acme.com", Password: "pass2"}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, ports.RegisterInput{Email: "carol@acme.com", Password: "s3cret"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	meta := ports.RequestMeta{IP: "10.0.0.1", UserAgent: "test-agent"}
	res, err := f.svc.Login(ctx, "carol@acme.com", "s3cret", meta)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", res.Tokens)
	}
	if res.Tokens.ExpiresIn != time.Hour {
		t.Fatalf("unexpected expires in: %s", res.Tokens.ExpiresIn)
	}

	claims, err := f.tokens.VerifyAccessToken(res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.Role != string(domain.RoleUser) || claims.TenantID != "tenant-acme" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, ok := f.repo.lastLogins[res.Identity.ID]; !ok {
		t.Fatalf("expected last login to be recorded")
	}

	got := f.auditor.last()
	if got.event != domain.EventLoginSuccess || !got.details.Success || got.details.IP != "10.0.0.1" {
		t.Fatalf("unexpected audit event: %+v", got)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, _ = f.svc.Register(ctx, ports.RegisterInput{Email: "dave@acme.com", Password: "goodpass"})
	if _, err := f.svc.Login(ctx, "dave@acme.com", "badpass", ports.RequestMeta{}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if got := f.auditor.last(); got.event != domain.EventLoginFailure || got.details.Success {
		t.Fatalf("expected login failure audit, got %+v", got)
	}
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.svc.Login(context.Background(), "ghost@acme.com", "pass", ports.RequestMeta{}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if got := f.auditor.last(); got.event != domain.EventLoginFailure || got.userID != "ghost@acme.com" {
		t.Fatalf("expected login failure audit for unknown user, got %+v", got)
	}
}

func TestAuthService_Login_UnknownUserPaysForCompare(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Login(ctx, "ghost@acme.com", "pass", ports.RequestMeta{}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if got := f.hasher.verifyCount(); got != 1 {
		t.Fatalf("expected one compare for unknown user, got %d", got)
	}

	_, _ = f.svc.Register(ctx, ports.RegisterInput{Email: "dave@acme.com", Password: "goodpass"})
	if _, err := f.svc.Login(ctx, "dave@acme.com", "badpass", ports.RequestMeta{}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if got := f.hasher.verifyCount(); got != 2 {
		t.Fatalf("expected one compare for wrong password, got %d total", got)
	}
}

func TestAuthService_Login_RehashesOutdatedCost(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	old, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost+1)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	created, _ := f.repo.Create(ctx, &domain.Identity{
		Email: "old@acme.com", PasswordHash: string(old), Role: domain.RoleUser,
		TenantID: "tenant-acme", Tier: domain.TierBusiness,
	})

	if _, err := f.svc.Login(ctx, "old@acme.com", "pw", ports.RequestMeta{}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	stored, _ := f.repo.FindByID(ctx, created.ID)
	cost, _ := bcrypt.Cost([]byte(stored.PasswordHash))
	if cost != bcrypt.MinCost {
		t.Fatalf("expected hash to be upgraded to cost %d, got %d", bcrypt.MinCost, cost)
	}
}

func TestAuthService_Refresh_PicksUpRoleChange(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, _ = f.svc.Register(ctx, ports.RegisterInput{Email: "frank@acme.com", Password: "pw"})
	res, err := f.svc.Login(ctx, "frank@acme.com", "pw", ports.RequestMeta{})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	f.repo.users[res.Identity.ID].Role = domain.RoleAdmin

	refreshed, err := f.svc.Refresh(ctx, res.Tokens.RefreshToken, ports.RequestMeta{})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	claims, err := f.tokens.VerifyAccessToken(refreshed.AccessToken)
	if err != nil {
		t.Fatalf("refreshed token invalid: %v", err)
	}
	if claims.Role != string(domain.RoleAdmin) {
		t.Fatalf("expected refreshed role admin, got %s", claims.Role)
	}

	old, _ := f.tokens.VerifyAccessToken(res.Tokens.AccessToken)
	if old.Role != string(domain.RoleUser) {
		t.Fatalf("issued token must keep its snapshot, got %s", old.Role)
	}
	if got := f.auditor.last(); got.event != domain.EventTokenRefreshed {
		t.Fatalf("expected token_refreshed audit, got %+v", got)
	}
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, _ = f.svc.Register(ctx, ports.RegisterInput{Email: "gina@acme.com", Password: "pw"})
	res, _ := f.svc.Login(ctx, "gina@acme.com", "pw", ports.RequestMeta{})

	if _, err := f.svc.Refresh(ctx, res.Tokens.AccessToken, ports.RequestMeta{}); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestAuthService_Refresh_UnknownUser(t *testing.T) {
	f := newAuthFixture(t)

	token, _ := f.tokens.IssueRefreshToken("deleted-user")
	if _, err := f.svc.Refresh(context.Background(), token, ports.RequestMeta{}); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
