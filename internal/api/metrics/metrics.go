// Package metrics defines and registers the Prometheus metrics for the
// enterprise auth service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry at package init through
// promauto, so importing the package is enough.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bizcard"

// ── Authentication metrics ────────────────────────────────────────────────────

// AuthAttemptsTotal counts login, register and refresh outcomes.
// Labels:
//   - operation: "login", "register" or "refresh"
//   - result: "success" or a short failure reason (e.g. "invalid_credentials")
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by operation and result.",
	},
	[]string{"operation", "result"},
)

// TokenVerificationsTotal counts bearer token checks made by the
// authentication middleware.
// Label:
//   - result: "valid", "missing" or "invalid"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of access token verifications, by result.",
	},
	[]string{"result"},
)

// ── Gate metrics ──────────────────────────────────────────────────────────────

// GateDenialsTotal counts requests rejected by an authorization gate.
// Label:
//   - gate: "role", "permission", "tenant", "tier" or "api_key"
var GateDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_denials_total",
		Help:      "Total number of requests denied by an authorization gate.",
	},
	[]string{"gate"},
)

// RateLimitRejectionsTotal counts requests answered with 429.
// Label:
//   - tier: the tier whose policy was exceeded
var RateLimitRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_rejections_total",
		Help:      "Total number of requests rejected by the tier rate limiter.",
	},
	[]string{"tier"},
)

// RateLimitStoreErrorsTotal counts counter store failures. Requests are let
// through when the store errors.
var RateLimitStoreErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_store_errors_total",
		Help:      "Total number of rate limit counter store failures.",
	},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// SecurityEventsTotal counts security events emitted by the audit logger.
// Label:
//   - event: the security event type (e.g. "login_failure")
var SecurityEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "security_events_total",
		Help:      "Total number of security audit events, by event type.",
	},
	[]string{"event"},
)

// AuditEventsDroppedTotal counts security events that never reached storage,
// either because a worker queue was full or because the write failed.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of security events dropped before persistence.",
	},
)

// AuditQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of security events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
