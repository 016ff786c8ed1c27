package slotLockRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the uniqueness and expiry indexes on slot_locks.
func (r *MongoSlotLockRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "labName", Value: 1},
				{Key: "appointmentDate", Value: 1},
				{Key: "appointmentTime", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("unique_slot_lock"),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("lock_expiry_ttl"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create slot lock indexes: %w", err)
	}
	return nil
}
