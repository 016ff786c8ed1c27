package notification

import (
	"context"
	"fmt"

	"diaglab/models"
	"diaglab/services/tasks"
	"diaglab/utils"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Notifier announces booking lifecycle events. Callers treat failures as non-fatal.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b *models.Booking) error
	BookingCancelled(ctx context.Context, b *models.Booking) error
}

// Enqueuer is the part of *asynq.Client the notifier needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier hands notifications to the asynq worker.
type QueueNotifier struct {
	Client Enqueuer
	Clock  utils.Clock
}

func NewQueueNotifier(client Enqueuer, clock utils.Clock) (*QueueNotifier, error) {
	if client == nil {
		return nil, fmt.Errorf("notification service initialization error: queue client is nil")
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &QueueNotifier{Client: client, Clock: clock}, nil
}

func (n *QueueNotifier) BookingConfirmed(ctx context.Context, b *models.Booking) error {
	return n.enqueue(ctx, models.NotificationBookingConfirmed, b)
}

func (n *QueueNotifier) BookingCancelled(ctx context.Context, b *models.Booking) error {
	return n.enqueue(ctx, models.NotificationBookingCancelled, b)
}

func (n *QueueNotifier) enqueue(ctx context.Context, kind string, b *models.Booking) error {
	payload := NewBookingNotification(kind, b, n.Clock)
	task, opts, err := tasks.NewBookingNotificationTask(payload)
	if err != nil {
		return fmt.Errorf("failed to build %s task: %w", kind, err)
	}
	info, err := n.Client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s for booking %s: %w", kind, b.BookingID, err)
	}
	utils.GetLogger().Debug("Notification queued",
		zap.String("type", kind),
		zap.String("bookingId", b.BookingID),
		zap.String("taskId", info.ID))
	return nil
}

// NewBookingNotification snapshots the fields a message needs.
func NewBookingNotification(kind string, b *models.Booking, clock utils.Clock) models.BookingNotification {
	return models.BookingNotification{
		ID:          uuid.NewString(),
		Type:        kind,
		BookingID:   b.BookingID,
		PatientName: b.PatientName,
		Phone:       b.Phone,
		Email:       b.Email,
		LabName:     b.LabName,
		Date:        b.AppointmentDate,
		Time:        b.AppointmentTime,
		FinalAmount: b.FinalAmount,
		CreatedAt:   clock.Now(),
	}
}

// LogNotifier only logs. Used when no queue is configured.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) BookingConfirmed(_ context.Context, b *models.Booking) error {
	n.Logger.Info("Booking confirmed", zap.String("bookingId", b.BookingID), zap.String("slot", b.SlotKey.String()))
	return nil
}

func (n LogNotifier) BookingCancelled(_ context.Context, b *models.Booking) error {
	n.Logger.Info("Booking cancelled", zap.String("bookingId", b.BookingID), zap.String("slot", b.SlotKey.String()))
	return nil
}
