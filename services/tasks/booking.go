package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"diaglab/models"

	"github.com/hibiken/asynq"
)

const (
	TypeBookingConfirmed = "booking:confirmed"
	TypeBookingCancelled = "booking:cancelled"
)

// TaskType maps a notification kind to its queue task type.
func TaskType(kind string) (string, error) {
	switch kind {
	case models.NotificationBookingConfirmed:
		return TypeBookingConfirmed, nil
	case models.NotificationBookingCancelled:
		return TypeBookingCancelled, nil
	}
	return "", fmt.Errorf("unknown notification type %q", kind)
}

// NewBookingNotificationTask wraps n for the notification worker.
func NewBookingNotificationTask(n models.BookingNotification) (*asynq.Task, []asynq.Option, error) {
	taskType, err := TaskType(n.Type)
	if err != nil {
		return nil, nil, err
	}
	b, err := json.Marshal(n)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(taskType, b)
	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
		asynq.TaskID(n.ID),
	}
	return task, opts, nil
}

// ParseBookingNotification decodes a task payload.
func ParseBookingNotification(task *asynq.Task) (models.BookingNotification, error) {
	var n models.BookingNotification
	if err := json.Unmarshal(task.Payload(), &n); err != nil {
		return n, fmt.Errorf("invalid %s payload: %w", task.Type(), err)
	}
	return n, nil
}
