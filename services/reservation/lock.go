package reservation

import (
	"context"
	"sort"
	"strings"

	"diaglab/metrics"
	"diaglab/models"
)

func parseRequest(key models.SlotKey, requesterID string) (models.SlotKey, error) {
	k, err := models.ParseSlotKey(key.LabName, key.AppointmentDate, key.AppointmentTime)
	if err != nil {
		return k, err
	}
	if strings.TrimSpace(requesterID) == "" {
		return k, models.NewValidationError("userId", "is required")
	}
	return k, nil
}

// CheckAndLock locks key for requesterID unless it is booked or held by someone else.
// A booked slot is reported without touching the lock store.
func (e *DefaultReservationEngine) CheckAndLock(ctx context.Context, key models.SlotKey, requesterID string) (LockResult, error) {
	key, err := parseRequest(key, requesterID)
	if err != nil {
		return LockResult{}, err
	}

	booked, err := e.Bookings.HasActive(ctx, key)
	if err != nil {
		return LockResult{}, storageErr("check booking", err)
	}
	if booked {
		metrics.IncLockOutcome(string(models.SlotBooked))
		return LockResult{State: models.SlotBooked}, nil
	}

	grant, err := e.Locks.AcquireOrExtend(ctx, key, requesterID, e.HoldDuration)
	if err != nil {
		return LockResult{}, storageErr("acquire lock", err)
	}
	lock := grant.Lock
	state := models.SlotLockedByOther
	if grant.Granted {
		state = models.SlotLockedByRequester
	}
	metrics.IncLockOutcome(string(state))
	return LockResult{State: state, Lock: &lock}, nil
}

// Peek reports the slot state without acquiring anything.
func (e *DefaultReservationEngine) Peek(ctx context.Context, key models.SlotKey, requesterID string) (SlotView, error) {
	key, err := models.ParseSlotKey(key.LabName, key.AppointmentDate, key.AppointmentTime)
	if err != nil {
		return SlotView{}, err
	}

	b, err := e.Bookings.FindActive(ctx, key)
	if err != nil {
		return SlotView{}, storageErr("find booking", err)
	}
	lock, err := e.Locks.Get(ctx, key)
	if err != nil {
		return SlotView{}, storageErr("read lock", err)
	}

	view := SlotView{Booking: b, Lock: lock}
	switch {
	case b != nil:
		view.State = models.SlotBooked
	case lock == nil:
		view.State = models.SlotAvailable
	case lock.OwnerID == requesterID:
		view.State = models.SlotLockedByRequester
	default:
		view.State = models.SlotLockedByOther
	}
	return view, nil
}

// Release drops requesterID's lock on key. It reports false when requesterID held nothing.
func (e *DefaultReservationEngine) Release(ctx context.Context, key models.SlotKey, requesterID string) (bool, error) {
	key, err := parseRequest(key, requesterID)
	if err != nil {
		return false, err
	}
	ok, err := e.Locks.Release(ctx, key, requesterID)
	if err != nil {
		return false, storageErr("release lock", err)
	}
	return ok, nil
}

// ListUnavailableSlots returns the sorted times on date that are booked or under a live lock.
func (e *DefaultReservationEngine) ListUnavailableSlots(ctx context.Context, labName, date string) ([]string, error) {
	if err := models.ParseLabDay(labName, date); err != nil {
		return nil, err
	}

	booked, err := e.Bookings.ActiveTimes(ctx, labName, date)
	if err != nil {
		return nil, storageErr("list booked times", err)
	}
	locks, err := e.Locks.ListLive(ctx, labName, date)
	if err != nil {
		return nil, storageErr("list locks", err)
	}

	seen := make(map[string]struct{}, len(booked)+len(locks))
	for _, t := range booked {
		seen[t] = struct{}{}
	}
	for _, l := range locks {
		seen[l.AppointmentTime] = struct{}{}
	}
	times := make([]string, 0, len(seen))
	for t := range seen {
		times = append(times, t)
	}
	sort.Strings(times)
	return times, nil
}
