package slotLockRepo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"diaglab/models"
	"diaglab/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*RedisSlotLockRepo, *utils.ManualClock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	clock := utils.NewManualClock(t0)
	return NewRedisSlotLockRepo(client, clock).(*RedisSlotLockRepo), clock, mr
}

func slot(lab, tm string) models.SlotKey {
	return models.SlotKey{LabName: lab, AppointmentDate: "2025-03-01", AppointmentTime: tm}
}

func TestRedisAcquireOrExtend(t *testing.T) {
	ctx := context.Background()

	t.Run("first caller gets the lock", func(t *testing.T) {
		repo, _, _ := newTestRepo(t)
		g, err := repo.AcquireOrExtend(ctx, slot("LabA", "10:00"), "u1", 5*time.Minute)
		require.NoError(t, err)
		assert.True(t, g.Granted)
		assert.False(t, g.Extended)
		assert.Equal(t, "u1", g.Lock.OwnerID)
		assert.Equal(t, t0.Add(5*time.Minute), g.Lock.ExpiresAt)
		assert.NotEmpty(t, g.Lock.ID)
	})

	t.Run("second owner is refused and sees the holder", func(t *testing.T) {
		repo, _, _ := newTestRepo(t)
		_, err := repo.AcquireOrExtend(ctx, slot("LabA", "10:00"), "u1", 5*time.Minute)
		require.NoError(t, err)

		g, err := repo.AcquireOrExtend(ctx, slot("LabA", "10:00"), "u2", 5*time.Minute)
		require.NoError(t, err)
		assert.False(t, g.Granted)
		assert.Equal(t, "u1", g.Lock.OwnerID)
	})

	t.Run("same owner extends and keeps acquiredAt", func(t *testing.T) {
		repo, clock, _ := newTestRepo(t)
		first, err := repo.AcquireOrExtend(ctx, slot("LabA", "10:00"), "u1", 5*time.Minute)
		require.NoError(t, err)

		clock.Advance(2 * time.Minute)
		g, err := repo.AcquireOrExtend(ctx, slot("LabA", "10:00"), "u1", 5*time.Minute)
		require.NoError(t, err)
		assert.True(t, g.Granted)
		assert.True(t, g.Extended)
		assert.Equal(t, first.Lock.ID, g.Lock.ID)
		assert.Equal(t, t0, g.Lock.AcquiredAt)
		assert.Equal(t, t0.Add(7*time.Minute), g.Lock.ExpiresAt)
	})

	t.Run("expired lock is taken over", func(t *testing.T) {
		repo, clock, _ := newTestRepo(t)
		_, err := repo.AcquireOrExtend(ctx, slot("LabA", "10:00"), "u1", 5*time.Minute)
		require.NoError(t, err)

		clock.Advance(5 * time.Minute)
		g, err := repo.AcquireOrExtend(ctx, slot("LabA", "10:00"), "u2", 5*time.Minute)
		require.NoError(t, err)
		assert.True(t, g.Granted)
		assert.False(t, g.Extended)
		assert.Equal(t, "u2", g.Lock.OwnerID)
		assert.Equal(t, t0.Add(5*time.Minute), g.Lock.AcquiredAt)
	})

	t.Run("lab names with separators do not collide", func(t *testing.T) {
		repo, _, _ := newTestRepo(t)
		a := models.SlotKey{LabName: "Lab/2025-03-01", AppointmentDate: "2025-03-01", AppointmentTime: "10:00"}
		b := models.SlotKey{LabName: "Lab", AppointmentDate: "2025-03-01", AppointmentTime: "10:00"}

		ga, err := repo.AcquireOrExtend(ctx, a, "u1", time.Minute)
		require.NoError(t, err)
		gb, err := repo.AcquireOrExtend(ctx, b, "u2", time.Minute)
		require.NoError(t, err)
		assert.True(t, ga.Granted)
		assert.True(t, gb.Granted)
	})
}

func TestRedisConcurrentAcquireSingleWinner(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := repo.AcquireOrExtend(ctx, slot("LabA", "11:00"), fmt.Sprintf("u%d", i), time.Minute)
			if assert.NoError(t, err) && g.Granted {
				atomic.AddInt32(&wins, 1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestRedisRelease(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()
	key := slot("LabA", "10:00")

	_, err := repo.AcquireOrExtend(ctx, key, "u1", time.Minute)
	require.NoError(t, err)

	ok, err := repo.Release(ctx, key, "u2")
	require.NoError(t, err)
	assert.False(t, ok, "non-owner must not release")

	lock, err := repo.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, lock)

	ok, err = repo.Release(ctx, key, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	lock, err = repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, lock)
}

func TestRedisIsLockedByOther(t *testing.T) {
	repo, clock, _ := newTestRepo(t)
	ctx := context.Background()
	key := slot("LabA", "10:00")

	locked, err := repo.IsLockedByOther(ctx, key, "u2")
	require.NoError(t, err)
	assert.False(t, locked)

	_, err = repo.AcquireOrExtend(ctx, key, "u1", time.Minute)
	require.NoError(t, err)

	locked, err = repo.IsLockedByOther(ctx, key, "u2")
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = repo.IsLockedByOther(ctx, key, "u1")
	require.NoError(t, err)
	assert.False(t, locked)

	clock.Advance(time.Minute)
	locked, err = repo.IsLockedByOther(ctx, key, "u2")
	require.NoError(t, err)
	assert.False(t, locked, "expired lock is ignored")
}

func TestRedisListLive(t *testing.T) {
	repo, clock, mr := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AcquireOrExtend(ctx, slot("LabA", "10:00"), "u1", 10*time.Minute)
	require.NoError(t, err)
	_, err = repo.AcquireOrExtend(ctx, slot("LabA", "10:30"), "u2", time.Minute)
	require.NoError(t, err)
	_, err = repo.AcquireOrExtend(ctx, slot("LabB", "10:00"), "u3", 10*time.Minute)
	require.NoError(t, err)

	locks, err := repo.ListLive(ctx, "LabA", "2025-03-01")
	require.NoError(t, err)
	assert.Len(t, locks, 2)

	clock.Advance(2 * time.Minute)
	locks, err = repo.ListLive(ctx, "LabA", "2025-03-01")
	require.NoError(t, err)
	require.Len(t, locks, 1)
	assert.Equal(t, "10:00", locks[0].AppointmentTime)
	assert.Equal(t, "LabA", locks[0].LabName)

	// Keys reclaimed by Redis are dropped from the day index.
	mr.FastForward(15 * time.Minute)
	locks, err = repo.ListLive(ctx, "LabA", "2025-03-01")
	require.NoError(t, err)
	assert.Empty(t, locks)
	assert.False(t, mr.Exists(dayIndexKey("LabA", "2025-03-01")))
}
