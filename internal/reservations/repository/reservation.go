package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationserrors "maitred/internal/reservations/errors"
	"maitred/pkg/config"
	mongotx "maitred/pkg/db/mongo"
	"maitred/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Reservations"
)

// activeStatuses are the ledger statuses that still claim a table slot.
var activeStatuses = []string{config.Pending, config.Confirmed}

type mongoReservationRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	FindByFilter(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, error)
	CountByFilter(ctx context.Context, filter model.ReservationFilter) (int64, error)
	FindActiveByTableAndDate(ctx context.Context, tableID, date string) ([]*model.Reservation, error)
	FindActiveByTenantAndDate(ctx context.Context, tenantID, date string) ([]*model.Reservation, error)
	UpdateStatus(ctx context.Context, id, status string) error

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoReservationRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, reservation)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		reservation.ID = oid.Hex()
	}

	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	var reservation model.Reservation
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", reservationserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return &reservation, nil
}

func buildFilter(filter model.ReservationFilter) bson.M {
	query := bson.M{}
	if filter.TenantID != "" {
		query["tenant_id"] = filter.TenantID
	}
	if filter.Date != "" {
		query["date"] = filter.Date
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.CustomerPhone != "" {
		query["customer_phone"] = filter.CustomerPhone
	}
	if filter.TableID != "" {
		query["table_id"] = filter.TableID
	}
	return query
}

func (r *mongoReservationRepository) FindByFilter(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}})

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}

	return reservations, nil
}

func (r *mongoReservationRepository) CountByFilter(ctx context.Context, filter model.ReservationFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	return count, nil
}

func (r *mongoReservationRepository) FindActiveByTableAndDate(ctx context.Context, tableID, date string) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"table_id": tableID,
		"date":     date,
		"status":   bson.M{"$in": activeStatuses},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query active reservations for table [%s]: %w", tableID, err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}

	return reservations, nil
}

func (r *mongoReservationRepository) FindActiveByTenantAndDate(ctx context.Context, tenantID, date string) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"tenant_id": tenantID,
		"date":      date,
		"status":    bson.M{"$in": activeStatuses},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query active reservations for tenant [%s]: %w", tenantID, err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}

	return reservations, nil
}

func (r *mongoReservationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", reservationserrors.ErrNotFound, id)
	}

	return nil
}

func (r *mongoReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
