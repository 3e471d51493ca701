package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bizcard/enterprise-auth/internal/api/httperr"
	"github.com/bizcard/enterprise-auth/internal/api/metrics"
	"github.com/bizcard/enterprise-auth/internal/core/domain"
	"github.com/bizcard/enterprise-auth/internal/core/ports"
)

const (
	HeaderRateLimitLimit     = "RateLimit-Limit"
	HeaderRateLimitRemaining = "RateLimit-Remaining"
	HeaderRateLimitReset     = "RateLimit-Reset"
	HeaderRetryAfter         = httperr.HeaderRetryAfter
)

// RateLimiterFactory builds per-tier quota middleware over a shared counter.
type RateLimiterFactory struct {
	counter ports.RateCounter
	audit   ports.SecurityAuditor
	log     zerolog.Logger
}

func NewRateLimiterFactory(counter ports.RateCounter, audit ports.SecurityAuditor, log zerolog.Logger) *RateLimiterFactory {
	return &RateLimiterFactory{counter: counter, audit: audit, log: log}
}

// CreateLimiter enforces the quota of tier on every request it sees.
func (f *RateLimiterFactory) CreateLimiter(tier domain.Tier) echo.MiddlewareFunc {
	return f.limiter(func(*domain.Identity) domain.Tier { return tier })
}

// ForIdentityTier enforces the quota of the caller's own tier. Anonymous
// callers get the free quota.
func (f *RateLimiterFactory) ForIdentityTier() echo.MiddlewareFunc {
	return f.limiter(func(id *domain.Identity) domain.Tier {
		if id == nil {
			return domain.TierFree
		}
		return id.Tier
	})
}

func (f *RateLimiterFactory) limiter(tierOf func(*domain.Identity) domain.Tier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := identityOf(c)
			if id != nil && id.BypassesRateLimit() {
				return next(c)
			}

			tier := tierOf(id)
			policy := domain.RateLimitFor(tier)
			key := quotaKey(c, tier, id)

			wc, err := f.counter.Hit(c.Request().Context(), key, policy.Window)
			if err != nil {
				metrics.RateLimitStoreErrorsTotal.Inc()
				f.log.Warn().Err(err).Str("key", key).Msg("rate limit store unavailable, allowing request")
				return next(c)
			}

			resetSeconds := int64(math.Ceil(wc.ResetIn.Seconds()))
			remaining := max(int64(policy.Requests)-wc.Count, 0)

			h := c.Response().Header()
			h.Set(HeaderRateLimitLimit, strconv.Itoa(policy.Requests))
			h.Set(HeaderRateLimitRemaining, strconv.FormatInt(remaining, 10))
			h.Set(HeaderRateLimitReset, strconv.FormatInt(resetSeconds, 10))

			if wc.Count <= int64(policy.Requests) {
				return next(c)
			}

			metrics.RateLimitRejectionsTotal.WithLabelValues(string(tier)).Inc()
			f.auditRejection(c, tier, id)

			return httperr.Write(c, &domain.RateLimitError{
				Tier:       tier,
				Policy:     policy,
				RetryAfter: time.Duration(resetSeconds) * time.Second,
			})
		}
	}
}

func (f *RateLimiterFactory) auditRejection(c echo.Context, tier domain.Tier, id *domain.Identity) {
	meta := RequestMeta(c)
	details := domain.EventDetails{
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Extra:     map[string]string{"tier": string(tier), "path": c.Path()},
	}
	var userID string
	if id != nil {
		userID = id.ID
		details.TenantID = id.TenantID
	}
	f.audit.LogEvent(c.Request().Context(), domain.EventRateLimited, userID, details)
}

// quotaKey scopes counters by tier so limiters with different policies never
// share a window.
func quotaKey(c echo.Context, tier domain.Tier, id *domain.Identity) string {
	if id != nil {
		return string(tier) + ":" + id.RateLimitKey()
	}
	return string(tier) + ":ip:" + c.RealIP()
}
