package ports

import (
	"context"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
)

// SecurityAuditor records authentication and authorization outcomes.
// Implementations must never block or fail the operation being described.
type SecurityAuditor interface {
	LogEvent(ctx context.Context, event domain.SecurityEventType, userID string, details domain.EventDetails)
}

// SecurityEventRepository persists audit entries.
type SecurityEventRepository interface {
	Insert(ctx context.Context, event *domain.SecurityEvent) error
}
