package api

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/bizcard/enterprise-auth/internal/api/handler"
	"github.com/bizcard/enterprise-auth/internal/api/metrics"
	"github.com/bizcard/enterprise-auth/internal/api/middleware"
	"github.com/bizcard/enterprise-auth/internal/core/domain"
)

const (
	bodyLimit  = "1M"
	hstsMaxAge = int((365 * 24 * time.Hour) / time.Second)
)

// Deps carries everything the router mounts. All fields are required.
type Deps struct {
	Log            zerolog.Logger
	TrustedOrigins []string

	Tokens   middleware.AccessTokenVerifier
	Gates    *middleware.Gates
	Limiter  *middleware.RateLimiterFactory
	Throttle *middleware.LoginThrottle

	Auth   *handler.AuthHandler
	Access *handler.AccessHandler
	Health *handler.HealthHandler
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(metrics.RequestMetrics())
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         hstsMaxAge,
		HSTSPreloadEnabled: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOriginFunc:  allowOrigin(d.TrustedOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.HeaderAPIKey},
		ExposeHeaders:    []string{middleware.HeaderRateLimitLimit, middleware.HeaderRateLimitRemaining, middleware.HeaderRateLimitReset, middleware.HeaderRetryAfter},
		AllowCredentials: true,
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", d.Auth.Register, d.Throttle.Middleware())
	auth.POST("/login", d.Auth.Login, d.Throttle.Middleware())
	auth.POST("/refresh", d.Auth.Refresh)

	// --- Protected routes ---
	v1 := e.Group("/api/v1")

	user := v1.Group("",
		middleware.Authenticate(d.Tokens),
		d.Limiter.ForIdentityTier(),
		d.Gates.RequireTenant(),
	)
	user.GET("/me", d.Access.Me)
	user.GET("/tenant/policy", d.Access.TenantPolicy,
		d.Gates.RequireRole(domain.RoleSuperAdmin, domain.RoleAdmin),
	)
	user.POST("/tenant/api-keys", d.Access.IssueAPIKey,
		d.Gates.RequireRole(domain.RoleSuperAdmin, domain.RoleAdmin),
	)
	user.GET("/analytics/access", d.Access.AnalyticsAccess,
		d.Gates.RequireTier(domain.TierPro),
		d.Gates.RequirePermission("analytics:view"),
	)

	v1.GET("/integrations/access", d.Access.IntegrationsAccess,
		middleware.ValidateAPIKey(),
		middleware.OptionalAuthenticate(d.Tokens),
		d.Limiter.CreateLimiter(domain.TierFree),
	)

	// --- Health probes (no auth required) ---
	e.GET("/health", d.Health.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", d.Health.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// allowOrigin admits the configured origins and any localhost port.
func allowOrigin(trusted []string) func(origin string) (bool, error) {
	set := make(map[string]struct{}, len(trusted))
	for _, o := range trusted {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			set[o] = struct{}{}
		}
	}
	return func(origin string) (bool, error) {
		if _, ok := set[origin]; ok {
			return true, nil
		}
		return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:"), nil
	}
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("path", v.URIPath).
				Str("route", v.RoutePath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
