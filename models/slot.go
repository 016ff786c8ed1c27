package models

import (
	"strings"
	"time"
)

const (
	// DateLayout is the calendar-date format of appointmentDate.
	DateLayout = "2006-01-02"
	// TimeLayout is the wall-clock format of appointmentTime.
	TimeLayout = "15:04"
)

// SlotKey identifies a bookable unit: one lab, one date, one time.
// Two keys are equal iff all three strings match exactly.
type SlotKey struct {
	LabName         string `bson:"labName" json:"labName"`
	AppointmentDate string `bson:"appointmentDate" json:"appointmentDate"`
	AppointmentTime string `bson:"appointmentTime" json:"appointmentTime"`
}

// ParseSlotKey validates the three parts of a slot key. Values are kept verbatim.
func ParseSlotKey(labName, date, clock string) (SlotKey, error) {
	if strings.TrimSpace(labName) == "" {
		return SlotKey{}, NewValidationError("labName", "is required")
	}
	if date == "" {
		return SlotKey{}, NewValidationError("appointmentDate", "is required")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return SlotKey{}, NewValidationError("appointmentDate", "must be a YYYY-MM-DD date")
	}
	if clock == "" {
		return SlotKey{}, NewValidationError("appointmentTime", "is required")
	}
	if _, err := time.Parse(TimeLayout, clock); err != nil {
		return SlotKey{}, NewValidationError("appointmentTime", "must be an HH:MM time")
	}
	return SlotKey{LabName: labName, AppointmentDate: date, AppointmentTime: clock}, nil
}

// ParseLabDay validates the (lab, date) pair used by day-level availability queries.
func ParseLabDay(labName, date string) error {
	if strings.TrimSpace(labName) == "" {
		return NewValidationError("labName", "is required")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return NewValidationError("appointmentDate", "must be a YYYY-MM-DD date")
	}
	return nil
}

func (k SlotKey) String() string {
	return k.LabName + "@" + k.AppointmentDate + "T" + k.AppointmentTime
}

// SlotLock is a short-lived advisory claim on a SlotKey.
type SlotLock struct {
	ID         string    `bson:"id" json:"-"`
	SlotKey    `bson:",inline"`
	OwnerID    string    `bson:"ownerId" json:"ownerId"`
	AcquiredAt time.Time `bson:"acquiredAt" json:"acquiredAt"`
	ExpiresAt  time.Time `bson:"expiresAt" json:"expiresAt"`
}

// LiveAt reports whether the lock still holds at now.
func (l SlotLock) LiveAt(now time.Time) bool {
	return l.ExpiresAt.After(now)
}

// SlotState is the per-requester view of a slot.
type SlotState string

const (
	SlotAvailable         SlotState = "AVAILABLE"
	SlotLockedByRequester SlotState = "LOCKED_BY_REQUESTER"
	SlotLockedByOther     SlotState = "LOCKED_BY_OTHER"
	SlotBooked            SlotState = "BOOKED"
)
