package bookingRepo

import (
	"context"
	"errors"

	"diaglab/models"
)

var (
	ErrNotFound    = errors.New("booking not found")
	ErrDuplicateID = errors.New("booking id already exists")
	// ErrSlotTaken means another Confirmed or Pending booking holds the slot.
	ErrSlotTaken = errors.New("slot already has an active booking")
	// ErrStatusChanged means the stored status no longer matches the one the caller read.
	ErrStatusChanged = errors.New("booking status changed concurrently")
)

// BookingRepository is the durable booking store. It enforces that bookingId is
// unique and that at most one active (Confirmed or Pending) booking exists per slot.
type BookingRepository interface {
	// Create inserts b, returning ErrDuplicateID or ErrSlotTaken on conflict.
	Create(ctx context.Context, b *models.Booking) error
	// GetByID returns ErrNotFound when no booking has that id.
	GetByID(ctx context.Context, bookingID string) (*models.Booking, error)
	// Update replaces the stored booking with the same id, but only while its
	// status is still expected. Otherwise it returns ErrStatusChanged.
	Update(ctx context.Context, b *models.Booking, expected models.BookingStatus) error
	Delete(ctx context.Context, bookingID string) error
	HasActive(ctx context.Context, key models.SlotKey) (bool, error)
	// FindActive returns the active booking on key, or nil.
	FindActive(ctx context.Context, key models.SlotKey) (*models.Booking, error)
	// ActiveTimes lists appointment times with an active booking for a lab on a date.
	ActiveTimes(ctx context.Context, labName, date string) ([]string, error)
}

var activeStatuses = []models.BookingStatus{models.StatusConfirmed, models.StatusPending}
