package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
	"github.com/bizcard/enterprise-auth/internal/core/ports"
)

const securityEventCollection = "security_events"

// SecurityEventRepository appends audit entries; it never updates or deletes.
type SecurityEventRepository struct {
	coll *mongo.Collection
}

func NewSecurityEventRepository(db *mongo.Database) ports.SecurityEventRepository {
	return &SecurityEventRepository{coll: db.Collection(securityEventCollection)}
}

// Insert persists one security event keyed by its id.
func (r *SecurityEventRepository) Insert(ctx context.Context, event *domain.SecurityEvent) error {
	doc := bson.M{
		"_id":       event.ID,
		"timestamp": event.Timestamp.UTC(),
		"event":     string(event.Event),
		"user_id":   event.UserID,
		"success":   event.Success,
	}
	if event.TenantID != "" {
		doc["tenant_id"] = event.TenantID
	}
	if event.IP != "" {
		doc["ip"] = event.IP
	}
	if event.UserAgent != "" {
		doc["user_agent"] = event.UserAgent
	}
	if len(event.Details) > 0 {
		doc["details"] = event.Details
	}

	_, err := r.coll.InsertOne(ctx, doc)
	return err
}
