package bookingRepo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"diaglab/database"
	"diaglab/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) BookingRepository {
	t.Helper()
	db, err := database.OpenSQLite(database.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteBookingRepo(db)
}

func newBooking(id, tm string, status models.BookingStatus) *models.Booking {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	return &models.Booking{
		BookingID:   id,
		SlotKey:     models.SlotKey{LabName: "LabA", AppointmentDate: "2025-03-01", AppointmentTime: tm},
		PatientName: "Asha",
		Phone:       "9990001111",
		Items:       []models.LineItem{{TestName: "CBC", Organ: "Blood", Price: 400}},
		Status:      status,
		DiscountBreakdown: models.DiscountBreakdown{
			OriginalAmount: 400,
			FinalAmount:    400,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSQLiteCreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	in := newBooking("B-1", "10:00", models.StatusConfirmed)
	require.NoError(t, repo.Create(ctx, in))

	got, err := repo.GetByID(ctx, "B-1")
	require.NoError(t, err)
	assert.Equal(t, in.SlotKey, got.SlotKey)
	assert.Equal(t, in.Items, got.Items)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.True(t, in.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, 400.0, got.FinalAmount)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteCreateConflicts(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate id", func(t *testing.T) {
		repo := newTestRepo(t)
		require.NoError(t, repo.Create(ctx, newBooking("B-1", "10:00", models.StatusConfirmed)))
		err := repo.Create(ctx, newBooking("B-1", "11:00", models.StatusConfirmed))
		assert.ErrorIs(t, err, ErrDuplicateID)
	})

	t.Run("active slot taken", func(t *testing.T) {
		repo := newTestRepo(t)
		require.NoError(t, repo.Create(ctx, newBooking("B-1", "10:00", models.StatusPending)))
		err := repo.Create(ctx, newBooking("B-2", "10:00", models.StatusConfirmed))
		assert.ErrorIs(t, err, ErrSlotTaken)
	})

	t.Run("cancelled booking frees the slot", func(t *testing.T) {
		repo := newTestRepo(t)
		require.NoError(t, repo.Create(ctx, newBooking("B-1", "10:00", models.StatusCancelled)))
		require.NoError(t, repo.Create(ctx, newBooking("B-2", "10:00", models.StatusConfirmed)))

		b, err := repo.FindActive(ctx, newBooking("", "10:00", "").SlotKey)
		require.NoError(t, err)
		require.NotNil(t, b)
		assert.Equal(t, "B-2", b.BookingID)
	})
}

func TestSQLiteConcurrentCreateSingleWinner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	var ok, taken int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Create(ctx, newBooking(fmt.Sprintf("B-%d", i), "12:00", models.StatusConfirmed))
			switch err {
			case nil:
				atomic.AddInt32(&ok, 1)
			case ErrSlotTaken:
				atomic.AddInt32(&taken, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), ok)
	assert.Equal(t, int32(19), taken)
}

func TestSQLiteUpdateAndDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newBooking("B-1", "10:00", models.StatusConfirmed)))
	require.NoError(t, repo.Create(ctx, newBooking("B-2", "11:00", models.StatusConfirmed)))

	b, err := repo.GetByID(ctx, "B-2")
	require.NoError(t, err)
	b.AppointmentTime = "10:00"
	assert.ErrorIs(t, repo.Update(ctx, b, models.StatusConfirmed), ErrSlotTaken)

	b.AppointmentTime = "11:30"
	b.Status = models.StatusCancelled
	require.NoError(t, repo.Update(ctx, b, models.StatusConfirmed))

	active, err := repo.HasActive(ctx, b.SlotKey)
	require.NoError(t, err)
	assert.False(t, active)

	missing := newBooking("nope", "09:00", models.StatusConfirmed)
	assert.ErrorIs(t, repo.Update(ctx, missing, models.StatusConfirmed), ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "B-1"))
	assert.ErrorIs(t, repo.Delete(ctx, "B-1"), ErrNotFound)
}

func TestSQLiteUpdateRequiresExpectedStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newBooking("B-1", "10:00", models.StatusConfirmed)))

	cancelled, err := repo.GetByID(ctx, "B-1")
	require.NoError(t, err)
	cancelled.Status = models.StatusCancelled
	require.NoError(t, repo.Update(ctx, cancelled, models.StatusConfirmed))

	// A writer that still believes the booking is Confirmed loses.
	stale := newBooking("B-1", "10:00", models.StatusCompleted)
	assert.ErrorIs(t, repo.Update(ctx, stale, models.StatusConfirmed), ErrStatusChanged)

	got, err := repo.GetByID(ctx, "B-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
}

func TestSQLiteActiveTimes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newBooking("B-1", "10:00", models.StatusConfirmed)))
	require.NoError(t, repo.Create(ctx, newBooking("B-2", "10:30", models.StatusPending)))
	require.NoError(t, repo.Create(ctx, newBooking("B-3", "11:00", models.StatusCompleted)))
	other := newBooking("B-4", "12:00", models.StatusConfirmed)
	other.LabName = "LabB"
	require.NoError(t, repo.Create(ctx, other))

	times, err := repo.ActiveTimes(ctx, "LabA", "2025-03-01")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"10:00", "10:30"}, times)
}
