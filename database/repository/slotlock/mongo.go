package slotLockRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"diaglab/models"
	"diaglab/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const collectionName = "slot_locks"

// MongoSlotLockRepo stores one document per locked slot. A unique index on the
// slot triple enforces a single holder; a TTL index reaps expired documents.
// Reads always filter on expiresAt because the TTL monitor runs lazily.
type MongoSlotLockRepo struct {
	coll  *mongo.Collection
	clock utils.Clock
}

// NewMongoSlotLockRepo creates the repository and its indexes.
func NewMongoSlotLockRepo(db *mongo.Database, clock utils.Clock) SlotLockRepository {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	repo := &MongoSlotLockRepo{coll: db.Collection(collectionName), clock: clock}
	if err := repo.EnsureIndexes(); err != nil {
		utils.GetLogger().Error("failed to create slot lock indexes", zap.Error(err))
	}
	return repo
}

func slotFilter(key models.SlotKey) bson.M {
	return bson.M{
		"labName":         key.LabName,
		"appointmentDate": key.AppointmentDate,
		"appointmentTime": key.AppointmentTime,
	}
}

func (r *MongoSlotLockRepo) AcquireOrExtend(ctx context.Context, key models.SlotKey, ownerID string, hold time.Duration) (Grant, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	now := r.clock.Now()
	expires := now.Add(hold)

	// A conflicting holder may expire or release between steps, so retry a few times.
	for attempt := 0; attempt < 3; attempt++ {
		lock := models.SlotLock{
			ID:         uuid.NewString(),
			SlotKey:    key,
			OwnerID:    ownerID,
			AcquiredAt: now,
			ExpiresAt:  expires,
		}
		_, err := r.coll.InsertOne(ctx, lock)
		if err == nil {
			return Grant{Lock: lock, Granted: true}, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return Grant{}, fmt.Errorf("failed to insert slot lock %s: %w", key, err)
		}

		grant, ok, err := r.takeOver(ctx, key, ownerID, lock.ID, now, expires)
		if err != nil {
			return Grant{}, err
		}
		if ok {
			return grant, nil
		}

		holder, err := r.Get(ctx, key)
		if err != nil {
			return Grant{}, err
		}
		if holder != nil {
			return Grant{Lock: *holder}, nil
		}
	}
	return Grant{}, fmt.Errorf("failed to acquire slot lock %s: contention", key)
}

// takeOver extends ownerID's live lock or replaces an expired one in place.
func (r *MongoSlotLockRepo) takeOver(ctx context.Context, key models.SlotKey, ownerID, newID string, now, expires time.Time) (Grant, bool, error) {
	filter := slotFilter(key)
	filter["$or"] = bson.A{
		bson.M{"ownerId": ownerID},
		bson.M{"expiresAt": bson.M{"$lte": now}},
	}

	keep := bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{"$ownerId", ownerID}}},
		bson.D{{Key: "$gt", Value: bson.A{"$expiresAt", now}}},
	}}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "id", Value: bson.D{{Key: "$cond", Value: bson.A{keep, "$id", newID}}}},
			{Key: "acquiredAt", Value: bson.D{{Key: "$cond", Value: bson.A{keep, "$acquiredAt", now}}}},
			{Key: "ownerId", Value: ownerID},
			{Key: "expiresAt", Value: expires},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var before models.SlotLock
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Grant{}, false, nil
	}
	if err != nil {
		return Grant{}, false, fmt.Errorf("failed to update slot lock %s: %w", key, err)
	}

	if before.OwnerID == ownerID && before.LiveAt(now) {
		before.ExpiresAt = expires
		return Grant{Lock: before, Granted: true, Extended: true}, true, nil
	}
	return Grant{Lock: models.SlotLock{
		ID:         newID,
		SlotKey:    key,
		OwnerID:    ownerID,
		AcquiredAt: now,
		ExpiresAt:  expires,
	}, Granted: true}, true, nil
}

func (r *MongoSlotLockRepo) Release(ctx context.Context, key models.SlotKey, ownerID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	filter := slotFilter(key)
	filter["ownerId"] = ownerID
	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to release slot lock %s: %w", key, err)
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoSlotLockRepo) Get(ctx context.Context, key models.SlotKey) (*models.SlotLock, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	filter := slotFilter(key)
	filter["expiresAt"] = bson.M{"$gt": r.clock.Now()}

	var lock models.SlotLock
	err := r.coll.FindOne(ctx, filter).Decode(&lock)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot lock %s: %w", key, err)
	}
	return &lock, nil
}

func (r *MongoSlotLockRepo) IsLockedByOther(ctx context.Context, key models.SlotKey, ownerID string) (bool, error) {
	lock, err := r.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return lockedByOther(lock, ownerID), nil
}

func (r *MongoSlotLockRepo) ListLive(ctx context.Context, labName, date string) ([]models.SlotLock, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.RepoTimeout)
	defer cancel()

	filter := bson.M{
		"labName":         labName,
		"appointmentDate": date,
		"expiresAt":       bson.M{"$gt": r.clock.Now()},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list slot locks for %s on %s: %w", labName, date, err)
	}
	defer cursor.Close(ctx)

	locks := []models.SlotLock{}
	if err := cursor.All(ctx, &locks); err != nil {
		return nil, fmt.Errorf("failed to decode slot locks: %w", err)
	}
	return locks, nil
}
