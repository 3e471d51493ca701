package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCounter(t *testing.T) (*RateCounter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRateCounter(client), mr
}

func TestRateCounter_CountsWithinWindow(t *testing.T) {
	counter, mr := newTestCounter(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		got, err := counter.Hit(ctx, "tenant-1:user-1", time.Hour)
		if err != nil {
			t.Fatalf("hit %d: %v", i, err)
		}
		if got.Count != i {
			t.Fatalf("expected count %d, got %d", i, got.Count)
		}
		if got.ResetIn <= 0 || got.ResetIn > time.Hour {
			t.Fatalf("unexpected reset %s", got.ResetIn)
		}
	}

	if ttl := mr.TTL("ratelimit:tenant-1:user-1"); ttl != time.Hour {
		t.Fatalf("expected window ttl of 1h, got %s", ttl)
	}
}

func TestRateCounter_WindowResets(t *testing.T) {
	counter, mr := newTestCounter(t)
	ctx := context.Background()

	_, _ = counter.Hit(ctx, "k", time.Minute)
	_, _ = counter.Hit(ctx, "k", time.Minute)

	mr.FastForward(time.Minute + time.Second)

	got, err := counter.Hit(ctx, "k", time.Minute)
	if err != nil {
		t.Fatalf("hit: %v", err)
	}
	if got.Count != 1 {
		t.Fatalf("expected fresh window, got count %d", got.Count)
	}
}

func TestRateCounter_KeysAreIndependent(t *testing.T) {
	counter, _ := newTestCounter(t)
	ctx := context.Background()

	_, _ = counter.Hit(ctx, "a", time.Hour)
	got, _ := counter.Hit(ctx, "b", time.Hour)
	if got.Count != 1 {
		t.Fatalf("expected independent counter, got %d", got.Count)
	}
}

func TestRateCounter_ConcurrentHits(t *testing.T) {
	counter, _ := newTestCounter(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = counter.Hit(ctx, "shared", time.Hour)
		}()
	}
	wg.Wait()

	got, err := counter.Hit(ctx, "shared", time.Hour)
	if err != nil {
		t.Fatalf("hit: %v", err)
	}
	if got.Count != n+1 {
		t.Fatalf("expected %d, got %d", n+1, got.Count)
	}
}

func TestRateCounter_StoreDown(t *testing.T) {
	counter, mr := newTestCounter(t)
	mr.Close()

	if _, err := counter.Hit(context.Background(), "k", time.Hour); err == nil {
		t.Fatalf("expected error when redis is unavailable")
	}
}
