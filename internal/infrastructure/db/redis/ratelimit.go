package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bizcard/enterprise-auth/internal/core/ports"
)

const rateLimitPrefix = "ratelimit:"

// hitScript increments the window counter and opens the window on the first
// hit, all in one round trip so concurrent hits never lose the expiry.
var hitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RateCounter is a fixed-window counter shared by every replica.
// Key format: ratelimit:<quota key>
type RateCounter struct {
	client *redis.Client
}

// NewRateCounter creates a RateCounter wrapping the given Redis client.
func NewRateCounter(client *redis.Client) *RateCounter {
	return &RateCounter{client: client}
}

var _ ports.RateCounter = (*RateCounter)(nil)

// Hit records one request against key and returns the window state.
func (c *RateCounter) Hit(ctx context.Context, key string, window time.Duration) (ports.WindowCount, error) {
	res, err := hitScript.Run(ctx, c.client, []string{rateLimitPrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return ports.WindowCount{}, fmt.Errorf("rate limit hit: %w", err)
	}
	if len(res) != 2 {
		return ports.WindowCount{}, fmt.Errorf("rate limit hit: unexpected reply %v", res)
	}
	return ports.WindowCount{
		Count:   res[0],
		ResetIn: time.Duration(res[1]) * time.Millisecond,
	}, nil
}
