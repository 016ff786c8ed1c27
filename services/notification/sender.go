package notification

import (
	"context"
	"fmt"

	"diaglab/models"

	"go.uber.org/zap"
)

// Sender delivers a rendered notification to the patient.
type Sender interface {
	Send(ctx context.Context, n models.BookingNotification) error
}

// Render produces the patient-facing text for n.
func Render(n models.BookingNotification) (title, body string) {
	switch n.Type {
	case models.NotificationBookingConfirmed:
		return "Booking confirmed",
			fmt.Sprintf("Hi %s, your booking %s at %s on %s %s is confirmed. Amount payable: %.2f.",
				n.PatientName, n.BookingID, n.LabName, n.Date, n.Time, n.FinalAmount)
	case models.NotificationBookingCancelled:
		return "Booking cancelled",
			fmt.Sprintf("Hi %s, your booking %s at %s on %s %s has been cancelled.",
				n.PatientName, n.BookingID, n.LabName, n.Date, n.Time)
	}
	return "Booking update", fmt.Sprintf("Booking %s was updated.", n.BookingID)
}

// LogSender writes messages to the log instead of an SMS or email gateway.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(_ context.Context, n models.BookingNotification) error {
	title, body := Render(n)
	s.Logger.Info(title,
		zap.String("bookingId", n.BookingID),
		zap.String("phone", n.Phone),
		zap.String("email", n.Email),
		zap.String("body", body))
	return nil
}
