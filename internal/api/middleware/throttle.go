package middleware

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/bizcard/enterprise-auth/internal/api/httperr"
	"github.com/bizcard/enterprise-auth/internal/api/metrics"
	"github.com/bizcard/enterprise-auth/internal/core/domain"
)

const defaultThrottleKeys = 10_000

// LoginThrottle is a per-IP token bucket placed in front of the credential
// endpoints to slow down password guessing.
type LoginThrottle struct {
	mu      sync.Mutex
	buckets *lru.Cache[string, *rate.Limiter]
	every   time.Duration
	burst   int
}

// NewLoginThrottle allows burst attempts per IP, refilled one every every.
func NewLoginThrottle(every time.Duration, burst, maxKeys int) *LoginThrottle {
	if maxKeys <= 0 {
		maxKeys = defaultThrottleKeys
	}
	if burst <= 0 {
		burst = 1
	}
	// lru.New only fails on a non-positive size.
	cache, _ := lru.New[string, *rate.Limiter](maxKeys)
	return &LoginThrottle{buckets: cache, every: every, burst: burst}
}

func (t *LoginThrottle) allow(ip string) bool {
	t.mu.Lock()
	lim, ok := t.buckets.Get(ip)
	if !ok {
		lim = rate.NewLimiter(rate.Every(t.every), t.burst)
		t.buckets.Add(ip, lim)
	}
	t.mu.Unlock()
	return lim.Allow()
}

// Middleware rejects callers that exhausted their bucket with 429.
func (t *LoginThrottle) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			if !t.allow(ip) {
				metrics.AuthAttemptsTotal.WithLabelValues("throttle", "rejected").Inc()
				return httperr.Write(c, domain.ErrTooManyAttempts)
			}
			return next(c)
		}
	}
}
