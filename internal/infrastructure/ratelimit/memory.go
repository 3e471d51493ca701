// Package ratelimit holds the in-process rate-limit counter used when no
// shared store is configured (single replica, tests, local development).
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bizcard/enterprise-auth/internal/core/ports"
)

// DefaultMaxKeys bounds the number of tracked quota keys. The least recently
// seen key is evicted first, which at worst resets an idle caller's window.
const DefaultMaxKeys = 100_000

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryCounter is a fixed-window counter kept in a bounded LRU.
type MemoryCounter struct {
	mu      sync.Mutex
	windows *lru.Cache[string, *window]
	now     func() time.Time
}

var _ ports.RateCounter = (*MemoryCounter)(nil)

// NewMemoryCounter returns a counter tracking at most maxKeys keys.
func NewMemoryCounter(maxKeys int) (*MemoryCounter, error) {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	cache, err := lru.New[string, *window](maxKeys)
	if err != nil {
		return nil, fmt.Errorf("memory rate counter: %w", err)
	}
	return &MemoryCounter{windows: cache, now: time.Now}, nil
}

// Hit records one request against key.
func (m *MemoryCounter) Hit(_ context.Context, key string, win time.Duration) (ports.WindowCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows.Get(key)
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(win)}
		m.windows.Add(key, w)
	}
	w.count++

	return ports.WindowCount{Count: w.count, ResetIn: w.resetAt.Sub(now)}, nil
}

// Len reports how many keys are currently tracked.
func (m *MemoryCounter) Len() int {
	return m.windows.Len()
}
