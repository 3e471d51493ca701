package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
	"github.com/bizcard/enterprise-auth/internal/core/ports"
	"github.com/bizcard/enterprise-auth/internal/infrastructure/ratelimit"
)

type failingCounter struct{ calls int }

func (f *failingCounter) Hit(context.Context, string, time.Duration) (ports.WindowCount, error) {
	f.calls++
	return ports.WindowCount{}, errors.New("redis: connection refused")
}

func newMemoryFactory(t *testing.T, audit *recordingAuditor) *RateLimiterFactory {
	t.Helper()
	counter, err := ratelimit.NewMemoryCounter(0)
	require.NoError(t, err)
	return NewRateLimiterFactory(counter, audit, zerolog.Nop())
}

func TestRateLimiter_RejectsAfterQuota(t *testing.T) {
	audit := &recordingAuditor{}
	limit := newMemoryFactory(t, audit).CreateLimiter(domain.TierFree)
	id := &domain.Identity{ID: "u1", TenantID: "acme", Role: domain.RoleUser, Tier: domain.TierFree}

	for i := 1; i <= 100; i++ {
		c, rec := newContext(echo.New(), id)
		require.True(t, run(t, c, limit), "request %d should pass", i)
		assert.Equal(t, "100", rec.Header().Get(HeaderRateLimitLimit))
		assert.Equal(t, strconv.Itoa(100-i), rec.Header().Get(HeaderRateLimitRemaining))
	}

	c, rec := newContext(echo.New(), id)
	assert.False(t, run(t, c, limit))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Rate limit exceeded","tier":"free","limit":100,"window":"1 hour(s)","upgradeUrl":"/pricing"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(HeaderRetryAfter))
	assert.Equal(t, rec.Header().Get(HeaderRateLimitReset), rec.Header().Get(HeaderRetryAfter))
	assert.Equal(t, "0", rec.Header().Get(HeaderRateLimitRemaining))

	records := audit.all()
	require.Len(t, records, 1)
	assert.Equal(t, domain.EventRateLimited, records[0].event)
	assert.Equal(t, "u1", records[0].userID)
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	limit := newMemoryFactory(t, &recordingAuditor{}).CreateLimiter(domain.TierFree)

	first := &domain.Identity{ID: "u1", TenantID: "acme", Tier: domain.TierFree}
	for i := 0; i < 100; i++ {
		c, _ := newContext(echo.New(), first)
		run(t, c, limit)
	}

	sameUserOtherTenant := &domain.Identity{ID: "u1", TenantID: "globex", Tier: domain.TierFree}
	c, rec := newContext(echo.New(), sameUserOtherTenant)
	assert.True(t, run(t, c, limit))
	assert.Equal(t, "99", rec.Header().Get(HeaderRateLimitRemaining))

	c, _ = newContext(echo.New(), nil)
	assert.True(t, run(t, c, limit), "anonymous callers are keyed by IP")
}

func TestRateLimiter_EnterpriseSuperAdminBypasses(t *testing.T) {
	counter := &failingCounter{}
	limit := NewRateLimiterFactory(counter, &recordingAuditor{}, zerolog.Nop()).CreateLimiter(domain.TierFree)
	root := &domain.Identity{ID: "root", TenantID: "acme", Role: domain.RoleSuperAdmin, Tier: domain.TierEnterprise}

	for i := 0; i < 500; i++ {
		c, rec := newContext(echo.New(), root)
		require.True(t, run(t, c, limit))
		assert.Empty(t, rec.Header().Get(HeaderRateLimitLimit))
	}
	assert.Zero(t, counter.calls, "bypass must not touch the counter")
}

func TestRateLimiter_BypassNeedsBothConditions(t *testing.T) {
	limit := newMemoryFactory(t, &recordingAuditor{}).CreateLimiter(domain.TierFree)

	for _, id := range []*domain.Identity{
		{ID: "a", TenantID: "t", Role: domain.RoleSuperAdmin, Tier: domain.TierBusiness},
		{ID: "b", TenantID: "t", Role: domain.RoleAdmin, Tier: domain.TierEnterprise},
	} {
		for i := 0; i < 100; i++ {
			c, _ := newContext(echo.New(), id)
			run(t, c, limit)
		}
		c, rec := newContext(echo.New(), id)
		assert.False(t, run(t, c, limit), "%s must be limited", id.ID)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	}
}

func TestRateLimiter_ForIdentityTier(t *testing.T) {
	limit := newMemoryFactory(t, &recordingAuditor{}).ForIdentityTier()

	c, rec := newContext(echo.New(), &domain.Identity{ID: "u1", TenantID: "acme", Tier: domain.TierPro})
	require.True(t, run(t, c, limit))
	assert.Equal(t, "1000", rec.Header().Get(HeaderRateLimitLimit))

	c, rec = newContext(echo.New(), nil)
	require.True(t, run(t, c, limit))
	assert.Equal(t, "100", rec.Header().Get(HeaderRateLimitLimit))
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	counter := &failingCounter{}
	limit := NewRateLimiterFactory(counter, &recordingAuditor{}, zerolog.Nop()).CreateLimiter(domain.TierFree)

	c, rec := newContext(echo.New(), nil)
	assert.True(t, run(t, c, limit))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, counter.calls)
}
