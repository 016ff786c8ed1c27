package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Durable storage. STORE_BACKEND is "mongo" or "sqlite".
	StoreBackend string `mapstructure:"STORE_BACKEND"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`
	SQLitePath   string `mapstructure:"SQLITE_PATH"`

	// Slot locks. LOCK_BACKEND is "redis" or "mongo".
	LockBackend      string        `mapstructure:"LOCK_BACKEND"`
	SlotHoldDuration time.Duration `mapstructure:"SLOT_HOLD_DURATION"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisLockDB   int    `mapstructure:"REDIS_LOCK_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// NOTIFICATION_BACKEND is "queue" (asynq) or "log".
	NotificationBackend       string `mapstructure:"NOTIFICATION_BACKEND"`
	NotificationWorkerEnabled bool   `mapstructure:"NOTIFICATION_WORKER_ENABLED"`
}

var AppConfig Config

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("STORE_BACKEND", "mongo")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "diaglab")
	viper.SetDefault("SQLITE_PATH", "diaglab.db")
	viper.SetDefault("LOCK_BACKEND", "redis")
	viper.SetDefault("SLOT_HOLD_DURATION", "5m")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_LOCK_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("NOTIFICATION_BACKEND", "queue")
	viper.SetDefault("NOTIFICATION_WORKER_ENABLED", true)
}

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if AppConfig.SlotHoldDuration <= 0 {
		log.Printf("SLOT_HOLD_DURATION must be positive, falling back to 5m")
		AppConfig.SlotHoldDuration = 5 * time.Minute
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
