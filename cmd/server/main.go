// Command server runs the bizcard enterprise auth API.
//
// @title                       Bizcard Enterprise Auth API
// @version                     1.0
// @description                 Authentication, authorization gates and tier quotas for bizcard tenants.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/bizcard/enterprise-auth/docs"
	"github.com/bizcard/enterprise-auth/internal/api"
	"github.com/bizcard/enterprise-auth/internal/api/handler"
	"github.com/bizcard/enterprise-auth/internal/api/middleware"
	"github.com/bizcard/enterprise-auth/internal/core/domain"
	"github.com/bizcard/enterprise-auth/internal/core/ports"
	"github.com/bizcard/enterprise-auth/internal/core/service"
	"github.com/bizcard/enterprise-auth/internal/infrastructure/audit"
	"github.com/bizcard/enterprise-auth/internal/infrastructure/cache"
	mongostore "github.com/bizcard/enterprise-auth/internal/infrastructure/db/mongo"
	redisstore "github.com/bizcard/enterprise-auth/internal/infrastructure/db/redis"
	"github.com/bizcard/enterprise-auth/internal/infrastructure/queue"
	"github.com/bizcard/enterprise-auth/internal/infrastructure/ratelimit"
	"github.com/bizcard/enterprise-auth/internal/pkg/config"
	"github.com/bizcard/enterprise-auth/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "bizcard-auth",
		Env:     cfg.Env,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- MongoDB ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	identities := mongostore.NewIdentityRepository(db)
	tenantStore := mongostore.NewTenantRepository(db)
	if err := mongostore.EnsureIndexes(ctx, identities, tenantStore); err != nil {
		return err
	}
	if err := seedTenant(ctx, cfg.Bootstrap, tenantStore, log); err != nil {
		return err
	}

	checks := []handler.DependencyCheck{{
		Name: "mongodb",
		Ping: func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
	}}

	// --- Rate-limit counters ---
	var counter ports.RateCounter
	switch cfg.RateLimit.Backend {
	case config.BackendRedis:
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		counter = redisstore.NewRateCounter(rdb)
		checks = append(checks, handler.DependencyCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	default:
		mem, err := ratelimit.NewMemoryCounter(cfg.RateLimit.MaxKeys)
		if err != nil {
			return err
		}
		counter = mem
		log.Warn().Msg("using in-memory rate limit counters; quotas are per replica")
	}

	// --- Security audit ---
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers,
		mongostore.NewSecurityEventRepository(db),
		logger.Component(log, "audit_dispatcher"),
	)
	dispatcher.Start(context.Background())
	defer dispatcher.Close()
	auditor := audit.NewLogger(log, dispatcher)

	// --- Core services ---
	tokens, err := service.NewTokenService(service.TokenConfig{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.JWTIssuer,
		Audience:   cfg.Auth.JWTAudience,
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
	})
	if err != nil {
		return err
	}
	tenants := cache.NewTenantCache(tenantStore, cfg.Auth.TenantCacheSize, cfg.Auth.TenantCacheTTL)
	authService := service.NewAuthService(
		identities,
		tenants,
		service.NewPasswordHasher(cfg.Auth.BcryptCost),
		tokens,
		auditor,
		logger.Component(log, "auth_service"),
	)

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Log:            logger.Component(log, "http"),
		TrustedOrigins: cfg.TrustedOrigins,
		Tokens:         tokens,
		Gates:          middleware.NewGates(auditor),
		Limiter:        middleware.NewRateLimiterFactory(counter, auditor, logger.Component(log, "rate_limiter")),
		Throttle:       middleware.NewLoginThrottle(cfg.RateLimit.LoginRefill, cfg.RateLimit.LoginBurst, 0),
		Auth:           handler.NewAuthHandler(authService),
		Access:         handler.NewAccessHandler(tenants, auditor),
		Health:         handler.NewHealthHandler(checks...),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("rate_limit_backend", cfg.RateLimit.Backend).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func seedTenant(ctx context.Context, cfg config.BootstrapConfig, store *mongostore.TenantRepository, log zerolog.Logger) error {
	if cfg.TenantID == "" {
		return nil
	}
	plan, err := domain.ParseTier(cfg.TenantPlan)
	if err != nil {
		return err
	}
	name := cfg.TenantName
	if name == "" {
		name = cfg.TenantID
	}
	if err := store.Upsert(ctx, domain.Tenant{
		ID:     cfg.TenantID,
		Name:   name,
		Domain: cfg.TenantDomain,
		Plan:   plan,
	}); err != nil {
		return err
	}
	log.Info().Str("tenant_id", cfg.TenantID).Str("plan", string(plan)).Msg("bootstrap tenant ready")
	return nil
}
