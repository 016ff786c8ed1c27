package reservation

import (
	"errors"
	"fmt"
)

var (
	ErrSlotAlreadyBooked = errors.New("slot is already booked")
	ErrSlotLockedByOther = errors.New("slot is locked by another user")
	ErrBookingExists     = errors.New("booking id already exists")
	ErrNotFound          = errors.New("booking not found")
	// ErrBookingConflict means another request changed the booking's status first.
	ErrBookingConflict = errors.New("booking was modified by another request")
)

// StorageError wraps a failure of an underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
