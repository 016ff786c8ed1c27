package slotLockRepo

import (
	"context"
	"time"

	"diaglab/models"
)

// Grant is the outcome of AcquireOrExtend.
// When Granted is false, Lock describes the live lock held by someone else.
type Grant struct {
	Lock     models.SlotLock
	Granted  bool
	Extended bool
}

// SlotLockRepository stores short-lived advisory claims on slots.
// At most one live lock exists per slot; expired locks behave as absent.
type SlotLockRepository interface {
	// AcquireOrExtend creates a lock when the slot is free (or its lock expired),
	// extends it when ownerID already holds it, and otherwise reports the holder.
	AcquireOrExtend(ctx context.Context, key models.SlotKey, ownerID string, hold time.Duration) (Grant, error)
	// Release removes the lock only if ownerID holds it.
	Release(ctx context.Context, key models.SlotKey, ownerID string) (bool, error)
	// Get returns the live lock for key, or nil.
	Get(ctx context.Context, key models.SlotKey) (*models.SlotLock, error)
	// IsLockedByOther reports whether a live lock is held by anyone but ownerID.
	IsLockedByOther(ctx context.Context, key models.SlotKey, ownerID string) (bool, error)
	// ListLive returns every live lock for a lab on a date.
	ListLive(ctx context.Context, labName, date string) ([]models.SlotLock, error)
}

func lockedByOther(lock *models.SlotLock, ownerID string) bool {
	return lock != nil && lock.OwnerID != ownerID
}
