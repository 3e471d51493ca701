package domain

import "time"

// SecurityEventType names an auditable authentication or authorization outcome.
type SecurityEventType string

const (
	EventLoginSuccess     SecurityEventType = "login_success"
	EventLoginFailure     SecurityEventType = "login_failure"
	EventPermissionDenied SecurityEventType = "permission_denied"
	EventUpgradeRequired  SecurityEventType = "upgrade_required"
	EventTenantRequired   SecurityEventType = "tenant_required"
	EventTokenRefreshed   SecurityEventType = "token_refreshed"
	EventUserRegistered   SecurityEventType = "user_registered"
	EventRateLimited      SecurityEventType = "rate_limited"
	EventAPIKeyIssued     SecurityEventType = "api_key_issued"
)

// SecurityEvent is one append-only audit entry.
type SecurityEvent struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Event     SecurityEventType `json:"event"`
	UserID    string            `json:"userId"`
	TenantID  string            `json:"tenantId,omitempty"`
	IP        string            `json:"ip,omitempty"`
	UserAgent string            `json:"userAgent,omitempty"`
	Success   bool              `json:"success"`
	Details   map[string]string `json:"details,omitempty"`
}

// EventDetails carries the request facts attached to a security event.
type EventDetails struct {
	TenantID  string
	IP        string
	UserAgent string
	Success   bool
	Extra     map[string]string
}
