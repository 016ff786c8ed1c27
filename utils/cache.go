// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"diaglab/config"

	"github.com/go-redis/redis/v8"
)

var (
	// LockClient holds slot locks and their per-day index sets.
	LockClient *redis.Client
)

// InitLockCache connects the Redis client used by the slot lock store.
func InitLockCache() {
	LockClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisLockDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := LockClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Locks): %v", err)
	}
}

// GetLockClient returns the slot lock client.
func GetLockClient() *redis.Client {
	if LockClient == nil {
		InitLockCache()
	}
	return LockClient
}
