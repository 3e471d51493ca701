// Package cache wraps slow collaborators with bounded in-process caches.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
	"github.com/bizcard/enterprise-auth/internal/core/ports"
)

const (
	defaultTenantCacheSize = 1024
	defaultTenantCacheTTL  = 5 * time.Minute
)

// TenantCache is a read-through cache in front of a TenantRepository.
// Lookups that fail are not cached.
type TenantCache struct {
	next    ports.TenantRepository
	entries *expirable.LRU[string, domain.Tenant]
}

var _ ports.TenantRepository = (*TenantCache)(nil)

// NewTenantCache caches up to size tenants for ttl.
func NewTenantCache(next ports.TenantRepository, size int, ttl time.Duration) *TenantCache {
	if size <= 0 {
		size = defaultTenantCacheSize
	}
	if ttl <= 0 {
		ttl = defaultTenantCacheTTL
	}
	return &TenantCache{
		next:    next,
		entries: expirable.NewLRU[string, domain.Tenant](size, nil, ttl),
	}
}

func (c *TenantCache) FindByID(ctx context.Context, id string) (*domain.Tenant, error) {
	return c.lookup("id:"+id, func() (*domain.Tenant, error) {
		return c.next.FindByID(ctx, id)
	})
}

func (c *TenantCache) FindByDomain(ctx context.Context, d string) (*domain.Tenant, error) {
	d = strings.ToLower(d)
	return c.lookup("domain:"+d, func() (*domain.Tenant, error) {
		return c.next.FindByDomain(ctx, d)
	})
}

func (c *TenantCache) lookup(key string, load func() (*domain.Tenant, error)) (*domain.Tenant, error) {
	if t, ok := c.entries.Get(key); ok {
		return &t, nil
	}
	t, err := load()
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, *t)
	return t, nil
}
