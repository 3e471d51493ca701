package ports

import (
	"context"
	"time"
)

// WindowCount is the state of a fixed rate-limit window after a hit.
type WindowCount struct {
	Count   int64
	ResetIn time.Duration
}

// RateCounter atomically counts hits per key inside a fixed window.
// The first hit on a key opens a window of the given length.
type RateCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (WindowCount, error)
}
