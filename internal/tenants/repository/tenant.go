package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	tenantserrors "maitred/internal/tenants/errors"
	"maitred/pkg/config"
	mongotx "maitred/pkg/db/mongo"
	"maitred/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Tenants"
)

type mongoTenantRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type TenantRepository interface {
	Create(ctx context.Context, tenant *model.Tenant) error
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Tenant, error)
	FindByAdminPhone(ctx context.Context, phone string) ([]*model.Tenant, error)
	Update(ctx context.Context, id string, tenant *model.Tenant) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoTenantRepository(cfg *config.Config) TenantRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTenantRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context
// unchanged with a no-op cancel function, as wrapping a SessionContext breaks
// transaction semantics.
func (r *mongoTenantRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoTenantRepository) Create(ctx context.Context, tenant *model.Tenant) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	tenant.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, tenant)
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		tenant.ID = oid.Hex()
	}

	return nil
}

func (r *mongoTenantRepository) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", tenantserrors.ErrInvalidID, id)
	}

	var tenant model.Tenant
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&tenant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", tenantserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find tenant: %w", err)
	}
	return &tenant, nil
}

func (r *mongoTenantRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Tenant, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenants: %w", err)
	}
	defer cursor.Close(ctx)

	var tenants []*model.Tenant
	if err = cursor.All(ctx, &tenants); err != nil {
		return nil, fmt.Errorf("failed to decode tenants: %w", err)
	}

	return tenants, nil
}

func (r *mongoTenantRepository) FindByAdminPhone(ctx context.Context, phone string) ([]*model.Tenant, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"admin_phone": phone})
	if err != nil {
		return nil, fmt.Errorf("failed to find tenants for phone [%s]: %w", phone, err)
	}
	defer cursor.Close(ctx)

	var tenants []*model.Tenant
	if err := cursor.All(ctx, &tenants); err != nil {
		return nil, fmt.Errorf("failed to decode tenants: %w", err)
	}

	return tenants, nil
}

func (r *mongoTenantRepository) Update(ctx context.Context, id string, tenant *model.Tenant) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", tenantserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":                  tenant.Name,
			"admin_phone":           tenant.AdminPhone,
			"time_zone":             tenant.TimeZone,
			"service_duration_min":  tenant.ServiceDurationMin,
			"turn_times":            tenant.TurnTimes,
			"open_days":             tenant.OpenDays,
			"open_time":             tenant.OpenTime,
			"close_time":            tenant.CloseTime,
			"enforce_opening_hours": tenant.EnforceOpeningHours,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: %s", tenantserrors.ErrNotFound, id)
	}

	return result, nil
}

func (r *mongoTenantRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", tenantserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", tenantserrors.ErrNotFound, id)
	}

	return nil
}

func (r *mongoTenantRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count tenants: %w", err)
	}
	return count, nil
}

func (r *mongoTenantRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
