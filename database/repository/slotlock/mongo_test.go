package slotLockRepo

import (
	"context"
	"testing"
	"time"

	"diaglab/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMockLockRepo(mt *mtest.T) (*MongoSlotLockRepo, *utils.ManualClock) {
	clock := utils.NewManualClock(t0)
	return &MongoSlotLockRepo{coll: mt.Coll, clock: clock}, clock
}

func duplicateSlotLock() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{
		Index:   0,
		Code:    11000,
		Message: "E11000 duplicate key error collection: diaglab.slot_locks index: unique_slot_lock dup key",
	})
}

func lockDoc(id, owner string, acquired, expires time.Time) bson.D {
	return bson.D{
		{Key: "id", Value: id},
		{Key: "labName", Value: "LabA"},
		{Key: "appointmentDate", Value: "2025-03-01"},
		{Key: "appointmentTime", Value: "10:00"},
		{Key: "ownerId", Value: owner},
		{Key: "acquiredAt", Value: acquired},
		{Key: "expiresAt", Value: expires},
	}
}

// findAndModifyCommand returns the takeover command the repository sent.
func findAndModifyCommand(mt *mtest.T) string {
	for ev := mt.GetStartedEvent(); ev != nil; ev = mt.GetStartedEvent() {
		if ev.CommandName == "findAndModify" {
			return ev.Command.String()
		}
	}
	return ""
}

func TestMongoAcquireOrExtend(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("free slot is inserted", func(mt *mtest.T) {
		repo, _ := newMockLockRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		g, err := repo.AcquireOrExtend(ctx, slot("LabA", "10:00"), "u1", 5*time.Minute)
		require.NoError(mt, err)
		assert.True(mt, g.Granted)
		assert.False(mt, g.Extended)
		assert.Equal(mt, t0, g.Lock.AcquiredAt)
		assert.Equal(mt, t0.Add(5*time.Minute), g.Lock.ExpiresAt)
		assert.NotEmpty(mt, g.Lock.ID)
	})

	mt.Run("duplicate key from same owner extends", func(mt *mtest.T) {
		repo, clock := newMockLockRepo(mt)
		clock.Advance(time.Minute)
		now := t0.Add(time.Minute)
		mt.AddMockResponses(
			duplicateSlotLock(),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: lockDoc("lock-1", "u1", t0, t0.Add(5*time.Minute))}),
		)

		g, err := repo.AcquireOrExtend(ctx, slot("LabA", "10:00"), "u1", 5*time.Minute)
		require.NoError(mt, err)
		assert.True(mt, g.Granted)
		assert.True(mt, g.Extended)
		assert.Equal(mt, "lock-1", g.Lock.ID, "extending keeps the lock id")
		assert.True(mt, g.Lock.AcquiredAt.Equal(t0), "extending keeps acquiredAt")
		assert.True(mt, g.Lock.ExpiresAt.Equal(now.Add(5*time.Minute)))

		cmd := findAndModifyCommand(mt)
		assert.Contains(mt, cmd, "$cond", "acquiredAt is chosen server side")
		assert.Contains(mt, cmd, "$or")
	})

	mt.Run("duplicate key on expired lock takes it over", func(mt *mtest.T) {
		repo, clock := newMockLockRepo(mt)
		clock.Advance(10 * time.Minute)
		now := t0.Add(10 * time.Minute)
		mt.AddMockResponses(
			duplicateSlotLock(),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: lockDoc("lock-1", "u1", t0, t0.Add(5*time.Minute))}),
		)

		g, err := repo.AcquireOrExtend(ctx, slot("LabA", "10:00"), "u2", 5*time.Minute)
		require.NoError(mt, err)
		assert.True(mt, g.Granted)
		assert.False(mt, g.Extended)
		assert.Equal(mt, "u2", g.Lock.OwnerID)
		assert.NotEqual(mt, "lock-1", g.Lock.ID, "a takeover issues a fresh id")
		assert.True(mt, g.Lock.AcquiredAt.Equal(now))
		assert.True(mt, g.Lock.ExpiresAt.Equal(now.Add(5*time.Minute)))
	})

	mt.Run("own expired lock restarts acquiredAt", func(mt *mtest.T) {
		repo, clock := newMockLockRepo(mt)
		clock.Advance(10 * time.Minute)
		mt.AddMockResponses(
			duplicateSlotLock(),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: lockDoc("lock-1", "u1", t0, t0.Add(5*time.Minute))}),
		)

		g, err := repo.AcquireOrExtend(ctx, slot("LabA", "10:00"), "u1", 5*time.Minute)
		require.NoError(mt, err)
		assert.True(mt, g.Granted)
		assert.False(mt, g.Extended)
		assert.True(mt, g.Lock.AcquiredAt.Equal(t0.Add(10*time.Minute)))
	})

	mt.Run("duplicate key held by another owner", func(mt *mtest.T) {
		repo, clock := newMockLockRepo(mt)
		clock.Advance(time.Minute)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			duplicateSlotLock(),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, lockDoc("lock-1", "u1", t0, t0.Add(5*time.Minute))),
		)

		g, err := repo.AcquireOrExtend(ctx, slot("LabA", "10:00"), "u2", 5*time.Minute)
		require.NoError(mt, err)
		assert.False(mt, g.Granted)
		assert.Equal(mt, "u1", g.Lock.OwnerID)
		assert.Equal(mt, "lock-1", g.Lock.ID)
	})

	mt.Run("holder vanishes on every attempt", func(mt *mtest.T) {
		repo, _ := newMockLockRepo(mt)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		for i := 0; i < 3; i++ {
			mt.AddMockResponses(
				duplicateSlotLock(),
				mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
				mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			)
		}

		_, err := repo.AcquireOrExtend(ctx, slot("LabA", "10:00"), "u2", 5*time.Minute)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "contention")
	})

	mt.Run("other insert failures surface", func(mt *mtest.T) {
		repo, _ := newMockLockRepo(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 2, Name: "BadValue", Message: "bad value",
		}))

		_, err := repo.AcquireOrExtend(ctx, slot("LabA", "10:00"), "u1", 5*time.Minute)
		assert.Error(mt, err)
	})
}

func TestMongoGetAndRelease(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("live lock is returned", func(mt *mtest.T) {
		repo, _ := newMockLockRepo(mt)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, lockDoc("lock-1", "u1", t0, t0.Add(5*time.Minute))))

		lock, err := repo.Get(ctx, slot("LabA", "10:00"))
		require.NoError(mt, err)
		require.NotNil(mt, lock)
		assert.Equal(mt, "u1", lock.OwnerID)
		assert.Equal(mt, slot("LabA", "10:00"), lock.SlotKey)
	})

	mt.Run("no live lock", func(mt *mtest.T) {
		repo, _ := newMockLockRepo(mt)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		lock, err := repo.Get(ctx, slot("LabA", "10:00"))
		require.NoError(mt, err)
		assert.Nil(mt, lock)
	})

	mt.Run("release reports whether a lock was removed", func(mt *mtest.T) {
		repo, _ := newMockLockRepo(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		ok, err := repo.Release(ctx, slot("LabA", "10:00"), "u1")
		require.NoError(mt, err)
		assert.True(mt, ok)

		ok, err = repo.Release(ctx, slot("LabA", "10:00"), "u2")
		require.NoError(mt, err)
		assert.False(mt, ok)
	})
}
