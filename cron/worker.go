package cron

import (
	"context"
	"time"

	"diaglab/config"
	"diaglab/services/notification"
	"diaglab/services/tasks"
	"diaglab/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueueRedisOpt is the asynq connection shared by the client and the worker.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewMux routes booking notification tasks to sender.
func NewMux(sender notification.Sender) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	handler := HandleBookingNotification(sender)
	mux.HandleFunc(tasks.TypeBookingConfirmed, handler)
	mux.HandleFunc(tasks.TypeBookingCancelled, handler)
	return mux
}

// InitNotificationWorker runs the async worker in background and returns it for shutdown.
func InitNotificationWorker(sender notification.Sender) *asynq.Server {
	logger := utils.GetLogger()
	srv := asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := NewMux(sender)

	go func() {
		logger.Info("Starting notification worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			logger.Error("Notification worker failed to start",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("Notification worker gave up; notifications will stay queued")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

// HandleBookingNotification decodes a queued notification and delivers it.
func HandleBookingNotification(sender notification.Sender) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		n, err := tasks.ParseBookingNotification(task)
		if err != nil {
			utils.GetLogger().Error("Dropping malformed notification", zap.String("type", task.Type()), zap.Error(err))
			// Retrying cannot fix a bad payload.
			return asynq.SkipRetry
		}

		if err := sender.Send(ctx, n); err != nil {
			utils.GetLogger().Warn("Failed to send notification",
				zap.String("bookingId", n.BookingID),
				zap.String("type", n.Type),
				zap.Error(err))
			return err
		}
		return nil
	}
}
