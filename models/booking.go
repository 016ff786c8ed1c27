package models

import (
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "Confirmed"
	StatusPending   BookingStatus = "Pending"
	StatusCancelled BookingStatus = "Cancelled"
	StatusCompleted BookingStatus = "Completed"
)

// ParseBookingStatus accepts the four canonical status names.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch st := BookingStatus(s); st {
	case StatusConfirmed, StatusPending, StatusCancelled, StatusCompleted:
		return st, nil
	}
	return "", NewValidationError("status", "must be one of Confirmed, Pending, Cancelled, Completed")
}

// HoldsSlot reports whether a booking in this status occupies its slot.
func (s BookingStatus) HoldsSlot() bool {
	return s == StatusConfirmed || s == StatusPending
}

// CanMoveTo reports whether the lifecycle permits s -> next.
// Cancelled and Completed are terminal.
func (s BookingStatus) CanMoveTo(next BookingStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled || next == StatusCompleted
	case StatusConfirmed:
		return next == StatusCancelled || next == StatusCompleted
	}
	return false
}

// BookingID is an externally supplied, human-readable booking identifier.
type BookingID string

// ParseBookingID trims and validates a booking identifier.
func ParseBookingID(s string) (BookingID, error) {
	id := strings.TrimSpace(s)
	if id == "" {
		return "", NewValidationError("bookingId", "is required")
	}
	if len(id) > 64 {
		return "", NewValidationError("bookingId", "must be at most 64 characters")
	}
	return BookingID(id), nil
}

// LineItem is one test or package on a booking.
type LineItem struct {
	TestName  string  `bson:"testName" json:"testName" binding:"required"`
	Organ     string  `bson:"organ,omitempty" json:"organ,omitempty"`
	Price     float64 `bson:"price" json:"price" binding:"gte=0"`
	IsPackage bool    `bson:"isPackage" json:"isPackage"`
}

// DiscountBreakdown is the priced outcome of applying a coupon.
type DiscountBreakdown struct {
	OriginalAmount float64 `bson:"originalAmount" json:"originalAmount"`
	DiscountAmount float64 `bson:"discountAmount" json:"discountAmount"`
	FinalAmount    float64 `bson:"finalAmount" json:"finalAmount"`
}

// Booking is the durable record of a lab appointment.
type Booking struct {
	BookingID         string `bson:"bookingId" json:"bookingId"`
	SlotKey           `bson:",inline"`
	PatientName       string        `bson:"patientName" json:"patientName"`
	Phone             string        `bson:"phone" json:"phone"`
	Email             string        `bson:"email,omitempty" json:"email,omitempty"`
	Items             []LineItem    `bson:"items" json:"items"`
	Status            BookingStatus `bson:"status" json:"status"`
	CouponCode        string        `bson:"couponCode,omitempty" json:"couponCode,omitempty"`
	DiscountBreakdown `bson:",inline"`
	UserID            string    `bson:"userId,omitempty" json:"userId,omitempty"`
	CreatedAt         time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt" json:"updatedAt"`

	// SlotActive mirrors Status.HoldsSlot() for the partial unique index.
	SlotActive bool `bson:"slotActive" json:"-"`
}

// NormalizeCouponCode upper-cases and trims a coupon code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the fields every stored booking must carry.
func (b *Booking) Validate() error {
	if _, err := ParseBookingID(b.BookingID); err != nil {
		return err
	}
	if _, err := ParseSlotKey(b.LabName, b.AppointmentDate, b.AppointmentTime); err != nil {
		return err
	}
	if strings.TrimSpace(b.PatientName) == "" {
		return NewValidationError("patientName", "is required")
	}
	if strings.TrimSpace(b.Phone) == "" {
		return NewValidationError("phone", "is required")
	}
	if len(b.Items) == 0 {
		return NewValidationError("items", "at least one test or package is required")
	}
	for _, it := range b.Items {
		if strings.TrimSpace(it.TestName) == "" {
			return NewValidationError("items.testName", "is required")
		}
		if it.Price < 0 {
			return NewValidationError("items.price", "must not be negative")
		}
	}
	return nil
}
