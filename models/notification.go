package models

import "time"

const (
	NotificationBookingConfirmed = "booking_confirmed"
	NotificationBookingCancelled = "booking_cancelled"
)

// BookingNotification is the queued payload for a booking lifecycle message.
type BookingNotification struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	BookingID   string    `json:"bookingId"`
	PatientName string    `json:"patientName"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email,omitempty"`
	LabName     string    `json:"labName"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	FinalAmount float64   `json:"finalAmount"`
	CreatedAt   time.Time `json:"createdAt"`
}
