package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	LoadConfig()
	assert.Equal(t, "8080", AppConfig.AppPort)
	assert.Equal(t, "redis", AppConfig.LockBackend)
	assert.Equal(t, "mongo", AppConfig.StoreBackend)
	assert.Equal(t, 5*time.Minute, AppConfig.SlotHoldDuration)
	assert.Equal(t, 1, AppConfig.RedisQueueDB)
	assert.False(t, IsProduction())
}

func TestLoadConfigFromEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("ENV", "production")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("SLOT_HOLD_DURATION", "90s")
	t.Setenv("MAX_REQUESTS_PER_MIN", "20")

	LoadConfig()
	require.True(t, IsProduction())
	assert.Equal(t, "sqlite", AppConfig.StoreBackend)
	assert.Equal(t, 90*time.Second, AppConfig.SlotHoldDuration)
	assert.Equal(t, 20, AppConfig.MaxRequestsPerMin)
}

func TestLoadConfigRejectsNonPositiveHold(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("SLOT_HOLD_DURATION", "0s")

	LoadConfig()
	assert.Equal(t, 5*time.Minute, AppConfig.SlotHoldDuration)
}
