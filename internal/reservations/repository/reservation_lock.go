package repository

import (
	"context"
	"time"

	"maitred/pkg/config"
	"maitred/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ReservationLockRepository provides operations for advisory locks.
// The locks collection carries a TTL index on expires_at so crashed
// holders cannot wedge a slot forever.
type ReservationLockRepository interface {
	Create(ctx context.Context, lock *model.ReservationLock) (*model.ReservationLock, error)
	Delete(ctx context.Context, lockID string) error
}

type mongoReservationLockRepository struct {
	collection *mongo.Collection
}

func NewReservationLockRepository(cfg *config.Config) ReservationLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationLockRepository{
		collection: db.Collection("Reservation_locks"),
	}
}

// Returns duplicate key error if lock already exists
func (r *mongoReservationLockRepository) Create(ctx context.Context, lock *model.ReservationLock) (*model.ReservationLock, error) {
	lock.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		return nil, err
	}

	return lock, nil
}

// Delete removes an advisory lock
func (r *mongoReservationLockRepository) Delete(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
