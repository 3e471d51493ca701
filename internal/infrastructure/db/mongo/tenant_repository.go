package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
	"github.com/bizcard/enterprise-auth/internal/core/ports"
)

const tenantCollection = "tenants"

// TenantRepository reads tenants. Tenant lifecycle is managed by the billing
// side; Upsert exists for start-up seeding.
type TenantRepository struct {
	coll *mongo.Collection
}

func NewTenantRepository(db *mongo.Database) *TenantRepository {
	return &TenantRepository{coll: db.Collection(tenantCollection)}
}

var _ ports.TenantRepository = (*TenantRepository)(nil)

type mongoTenant struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	Domain     string    `bson:"domain"`
	Plan       string    `bson:"plan"`
	SSOEnabled bool      `bson:"sso_enabled"`
	CreatedAt  time.Time `bson:"created_at"`
}

func (r *TenantRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "domain", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	})
	return err
}

func (r *TenantRepository) FindByID(ctx context.Context, id string) (*domain.Tenant, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *TenantRepository) FindByDomain(ctx context.Context, d string) (*domain.Tenant, error) {
	return r.findOne(ctx, bson.M{"domain": strings.ToLower(d)})
}

// Upsert creates the tenant or refreshes its name, domain and plan.
func (r *TenantRepository) Upsert(ctx context.Context, t domain.Tenant) error {
	if t.ID == "" {
		return fmt.Errorf("%w: tenant id is required", domain.ErrInvalidInput)
	}
	created := t.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	set := bson.M{
		"name":        t.Name,
		"plan":        string(t.Plan),
		"sso_enabled": t.SSOEnabled,
	}
	if t.Domain != "" {
		set["domain"] = strings.ToLower(t.Domain)
	}
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": t.ID},
		bson.M{"$set": set, "$setOnInsert": bson.M{"created_at": created}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert tenant: %w", err)
	}
	return nil
}

func (r *TenantRepository) findOne(ctx context.Context, filter bson.M) (*domain.Tenant, error) {
	var doc mongoTenant
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, fmt.Errorf("find tenant: %w", err)
	}
	return &domain.Tenant{
		ID:         doc.ID,
		Name:       doc.Name,
		Domain:     doc.Domain,
		Plan:       domain.Tier(doc.Plan),
		SSOEnabled: doc.SSOEnabled,
		CreatedAt:  doc.CreatedAt,
	}, nil
}
