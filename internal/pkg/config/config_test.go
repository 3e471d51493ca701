package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "dev-secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "bizcard-enterprise", cfg.Auth.JWTIssuer)
	assert.Equal(t, "bizcard-app", cfg.Auth.JWTAudience)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, BackendRedis, cfg.RateLimit.Backend)
	assert.Equal(t, "bizcard_auth", cfg.Mongo.Database)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":         "dev-secret",
		"ACCESS_TOKEN_TTL":   "15m",
		"RATE_LIMIT_BACKEND": "memory",
		"TRUSTED_ORIGINS":    "https://app.bizcard.test,https://admin.bizcard.test",
		"REDIS_DB":           "3",
	}))
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, BackendMemory, cfg.RateLimit.Backend)
	assert.Equal(t, []string{"https://app.bizcard.test", "https://admin.bizcard.test"}, cfg.TrustedOrigins)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_SecretRequired(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_ProductionRejectsShortSecret(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":        "production",
		"JWT_SECRET": "too-short",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 bytes")

	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":        "production",
		"JWT_SECRET": strings.Repeat("s", 32),
	}))
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestValidate_RejectsUnknownBackend(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":         "dev-secret",
		"RATE_LIMIT_BACKEND": "memcached",
		"BCRYPT_COST":        "40",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_BACKEND")
	assert.Contains(t, err.Error(), "BCRYPT_COST")
}

func TestValidate_BootstrapPlan(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":            "dev-secret",
		"BOOTSTRAP_TENANT_ID":   "acme",
		"BOOTSTRAP_TENANT_PLAN": "platinum",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOOTSTRAP_TENANT_PLAN")
}
