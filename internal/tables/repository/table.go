package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	tableserrors "maitred/internal/tables/errors"
	"maitred/pkg/config"
	"maitred/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Tables"
)

type mongoTableRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

type TableRepository interface {
	Create(ctx context.Context, table *model.Table) error
	FindByID(ctx context.Context, id string) (*model.Table, error)
	FindByTenant(ctx context.Context, tenantID string, zone string, limit int, offset int64) ([]*model.Table, error)
	CountByTenant(ctx context.Context, tenantID string, zone string) (int64, error)
	FindByState(ctx context.Context, tenantID string, state model.TableState) ([]*model.Table, error)
	FindByTenantAndLabel(ctx context.Context, tenantID, label string) (*model.Table, error)
	Update(ctx context.Context, id string, table *model.Table) (*mongo.UpdateResult, error)
	SwapState(ctx context.Context, id string, from, to model.TableState, reservationID, updatedBy string) error
	Delete(ctx context.Context, id string) error
}

func NewMongoTableRepository(cfg *config.Config) TableRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTableRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoTableRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoTableRepository) Create(ctx context.Context, table *model.Table) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	table.CreatedAt = now
	table.LastUpdated = now

	result, err := r.collection.InsertOne(ctx, table)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		table.ID = oid.Hex()
	}

	return nil
}

func (r *mongoTableRepository) FindByID(ctx context.Context, id string) (*model.Table, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", tableserrors.ErrInvalidID, id)
	}

	var table model.Table
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&table)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", tableserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find table: %w", err)
	}
	return &table, nil
}

func (r *mongoTableRepository) FindByTenant(ctx context.Context, tenantID string, zone string, limit int, offset int64) ([]*model.Table, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"tenant_id": tenantID}
	if zone != "" {
		filter["zone"] = zone
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "capacity", Value: 1}, {Key: "label", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables for tenant [%s]: %w", tenantID, err)
	}
	defer cursor.Close(ctx)

	var tables []*model.Table
	if err = cursor.All(ctx, &tables); err != nil {
		return nil, fmt.Errorf("failed to decode tables: %w", err)
	}

	return tables, nil
}

func (r *mongoTableRepository) CountByTenant(ctx context.Context, tenantID string, zone string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"tenant_id": tenantID}
	if zone != "" {
		filter["zone"] = zone
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count tables for tenant [%s]: %w", tenantID, err)
	}
	return count, nil
}

func (r *mongoTableRepository) FindByState(ctx context.Context, tenantID string, state model.TableState) ([]*model.Table, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"tenant_id": tenantID, "state": state}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s tables for tenant [%s]: %w", state, tenantID, err)
	}
	defer cursor.Close(ctx)

	var tables []*model.Table
	if err = cursor.All(ctx, &tables); err != nil {
		return nil, fmt.Errorf("failed to decode tables: %w", err)
	}

	return tables, nil
}

func (r *mongoTableRepository) FindByTenantAndLabel(ctx context.Context, tenantID, label string) (*model.Table, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var table model.Table
	err := r.collection.FindOne(ctx, bson.M{"tenant_id": tenantID, "label": label}).Decode(&table)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s/%s", tableserrors.ErrNotFound, tenantID, label)
		}
		return nil, fmt.Errorf("failed to find table by label: %w", err)
	}
	return &table, nil
}

func (r *mongoTableRepository) Update(ctx context.Context, id string, table *model.Table) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", tableserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"label":        table.Label,
			"zone":         table.Zone,
			"capacity":     table.Capacity,
			"shifts":       table.Shifts,
			"last_updated": time.Now().UTC().Truncate(time.Millisecond),
			"updated_by":   table.UpdatedBy,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update table: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: %s", tableserrors.ErrNotFound, id)
	}

	return result, nil
}

// SwapState performs a compare-and-swap on the occupancy state. The filter
// includes the expected current state, so two concurrent transitions on the
// same table cannot both win.
func (r *mongoTableRepository) SwapState(ctx context.Context, id string, from, to model.TableState, reservationID, updatedBy string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", tableserrors.ErrInvalidID, id)
	}

	set := bson.M{
		"state":        to,
		"last_updated": time.Now().UTC().Truncate(time.Millisecond),
		"updated_by":   updatedBy,
	}
	update := bson.M{"$set": set}
	if reservationID != "" {
		set["current_reservation_id"] = reservationID
	} else {
		update["$unset"] = bson.M{"current_reservation_id": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID, "state": from}, update)
	if err != nil {
		return fmt.Errorf("failed to swap table state: %w", err)
	}

	if result.MatchedCount == 0 {
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
		if countErr == nil && count == 0 {
			return fmt.Errorf("%w: %s", tableserrors.ErrNotFound, id)
		}
		return fmt.Errorf("%w: %s (expected %s)", tableserrors.ErrStateConflict, id, from)
	}

	return nil
}

func (r *mongoTableRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", tableserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", tableserrors.ErrNotFound, id)
	}

	return nil
}
