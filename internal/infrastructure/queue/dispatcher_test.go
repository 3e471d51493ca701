package queue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
)

type memoryEventRepo struct {
	mu     sync.Mutex
	events []domain.SecurityEvent
	err    error
}

func (r *memoryEventRepo) Insert(_ context.Context, event *domain.SecurityEvent) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *memoryEventRepo) snapshot() []domain.SecurityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SecurityEvent(nil), r.events...)
}

func TestDispatcher_PersistsAndDrainsOnClose(t *testing.T) {
	repo := &memoryEventRepo{}
	d := NewDispatcher(3, repo, zerolog.Nop())
	d.Start(context.Background())

	for i := 0; i < 20; i++ {
		if !d.Enqueue(domain.SecurityEvent{ID: string(rune('a' + i)), UserID: "user-1", Event: domain.EventLoginSuccess}) {
			t.Fatalf("enqueue %d dropped", i)
		}
	}
	d.Close()

	got := repo.snapshot()
	if len(got) != 20 {
		t.Fatalf("expected 20 persisted events, got %d", len(got))
	}
	for i, e := range got {
		if e.ID != string(rune('a'+i)) {
			t.Fatalf("events for one user must keep order: position %d has %q", i, e.ID)
		}
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := NewDispatcher(1, &memoryEventRepo{}, zerolog.Nop())

	for i := 0; i < channelBuffer; i++ {
		if !d.Enqueue(domain.SecurityEvent{UserID: "u"}) {
			t.Fatalf("enqueue %d dropped before buffer was full", i)
		}
	}
	if d.Enqueue(domain.SecurityEvent{UserID: "u"}) {
		t.Fatalf("expected enqueue on a full queue to be dropped")
	}
}

func TestDispatcher_RejectsAfterClose(t *testing.T) {
	d := NewDispatcher(2, &memoryEventRepo{}, zerolog.Nop())
	d.Start(context.Background())
	d.Close()
	d.Close()

	if d.Enqueue(domain.SecurityEvent{UserID: "u"}) {
		t.Fatalf("expected enqueue after close to be rejected")
	}
}

func TestDispatcher_PersistFailureIsNotFatal(t *testing.T) {
	repo := &memoryEventRepo{err: errors.New("mongo down")}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start(context.Background())

	d.Enqueue(domain.SecurityEvent{UserID: "u"})
	d.Close()

	if len(repo.snapshot()) != 0 {
		t.Fatalf("expected no persisted events")
	}
}
