package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
)

const (
	EnvProduction = "production"

	BackendRedis  = "redis"
	BackendMemory = "memory"

	minProductionSecretLen = 32
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// TrustedOrigins are allowed by CORS in addition to localhost.
	TrustedOrigins []string `env:"TRUSTED_ORIGINS"`

	Auth      AuthConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Bootstrap BootstrapConfig
}

type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET, required"`
	JWTIssuer       string        `env:"JWT_ISSUER,        default=bizcard-enterprise"`
	JWTAudience     string        `env:"JWT_AUDIENCE,      default=bizcard-app"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=24h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=168h"`
	BcryptCost      int           `env:"BCRYPT_COST,       default=12"`

	TenantCacheSize int           `env:"TENANT_CACHE_SIZE, default=1024"`
	TenantCacheTTL  time.Duration `env:"TENANT_CACHE_TTL,  default=5m"`
}

type RateLimitConfig struct {
	Backend string `env:"RATE_LIMIT_BACKEND,  default=redis"`
	MaxKeys int    `env:"RATE_LIMIT_MAX_KEYS, default=100000"`

	// Login throttle: LoginBurst attempts per IP, one more every LoginRefill.
	LoginBurst  int           `env:"LOGIN_THROTTLE_BURST,  default=10"`
	LoginRefill time.Duration `env:"LOGIN_THROTTLE_REFILL, default=1m"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// BootstrapConfig seeds one tenant at start-up so a fresh deployment can
// register its first users. Seeding is skipped when TenantID is empty.
type BootstrapConfig struct {
	TenantID     string `env:"BOOTSTRAP_TENANT_ID"`
	TenantName   string `env:"BOOTSTRAP_TENANT_NAME"`
	TenantDomain string `env:"BOOTSTRAP_TENANT_DOMAIN"`
	TenantPlan   string `env:"BOOTSTRAP_TENANT_PLAN, default=free"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=bizcard_auth"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.IsProduction() && len(c.Auth.JWTSecret) < minProductionSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes in production", minProductionSecretLen))
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST %d out of range 4..31", c.Auth.BcryptCost))
	}
	switch c.RateLimit.Backend {
	case BackendRedis, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q, got %q", BackendRedis, BackendMemory, c.RateLimit.Backend))
	}
	if c.Bootstrap.TenantID != "" {
		if _, err := domain.ParseTier(c.Bootstrap.TenantPlan); err != nil {
			errs = append(errs, fmt.Errorf("BOOTSTRAP_TENANT_PLAN: %w", err))
		}
	}
	if c.RateLimit.LoginRefill <= 0 {
		errs = append(errs, errors.New("LOGIN_THROTTLE_REFILL must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
