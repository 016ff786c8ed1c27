package utils

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger is any dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Healthy   bool            `json:"healthy"`
	Services  map[string]bool `json:"services"`
	CheckedAt time.Time       `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// CheckHealth pings every dependency once and stores the result.
func CheckHealth(ctx context.Context, deps map[string]Pinger) HealthStatus {
	status := HealthStatus{Healthy: true, Services: make(map[string]bool, len(deps)), CheckedAt: time.Now().UTC()}
	for name, dep := range deps {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := dep.Ping(pctx)
		cancel()
		status.Services[name] = err == nil
		if err != nil {
			status.Healthy = false
			GetLogger().Warn("Health check failed", zap.String("service", name), zap.Error(err))
		}
	}

	mu.Lock()
	currentHealth = status
	mu.Unlock()
	return status
}

// StartHealthMonitor performs periodic health checks until ctx is done.
func StartHealthMonitor(ctx context.Context, interval time.Duration, deps map[string]Pinger) {
	CheckHealth(ctx, deps)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				CheckHealth(ctx, deps)
			}
		}
	}()
}
