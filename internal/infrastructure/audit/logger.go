// Package audit emits the security audit trail: one structured log line per
// event, plus asynchronous persistence when a dispatcher is configured.
package audit

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/bizcard/enterprise-auth/internal/api/metrics"
	"github.com/bizcard/enterprise-auth/internal/core/domain"
	"github.com/bizcard/enterprise-auth/internal/core/ports"
)

// Sink receives events for durable storage. Enqueue must not block.
type Sink interface {
	Enqueue(event domain.SecurityEvent) bool
}

// Logger implements ports.SecurityAuditor.
type Logger struct {
	log  zerolog.Logger
	sink Sink
	now  func() time.Time
}

var _ ports.SecurityAuditor = (*Logger)(nil)

// NewLogger returns an audit logger. sink may be nil, in which case events
// are only written to the log.
func NewLogger(log zerolog.Logger, sink Sink) *Logger {
	return &Logger{
		log:  log.With().Str("component", "security_audit").Logger(),
		sink: sink,
		now:  time.Now,
	}
}

// LogEvent records one security event. It never blocks and never fails.
func (l *Logger) LogEvent(_ context.Context, event domain.SecurityEventType, userID string, details domain.EventDetails) {
	entry := domain.SecurityEvent{
		ID:        ulid.Make().String(),
		Timestamp: l.now().UTC(),
		Event:     event,
		UserID:    userID,
		TenantID:  details.TenantID,
		IP:        details.IP,
		UserAgent: details.UserAgent,
		Success:   details.Success,
		Details:   details.Extra,
	}

	metrics.SecurityEventsTotal.WithLabelValues(string(event)).Inc()

	ev := l.log.Info()
	if !entry.Success {
		ev = l.log.Warn()
	}
	ev = ev.Str("eventId", entry.ID).
		Time("timestamp", entry.Timestamp).
		Str("event", string(entry.Event)).
		Str("userId", entry.UserID).
		Str("ip", entry.IP).
		Str("userAgent", entry.UserAgent).
		Bool("success", entry.Success)
	if entry.TenantID != "" {
		ev = ev.Str("tenantId", entry.TenantID)
	}
	for k, v := range entry.Details {
		ev = ev.Str(k, v)
	}
	ev.Msg("SECURITY_EVENT")

	if l.sink != nil {
		l.sink.Enqueue(entry)
	}
}
