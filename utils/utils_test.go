package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestManualClock(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.FixedZone("IST", 19800))
	c := NewManualClock(start)
	assert.Equal(t, time.UTC, c.Now().Location())
	assert.True(t, c.Now().Equal(start))

	c.Advance(90 * time.Second)
	assert.True(t, c.Now().Equal(start.Add(90*time.Second)))

	later := start.Add(time.Hour)
	c.Set(later)
	assert.True(t, c.Now().Equal(later))
}

func TestMoneyHelpers(t *testing.T) {
	assert.Equal(t, 10.13, RoundMoney(10.125))
	assert.Equal(t, 0.0, ClampMoney(-5, 100))
	assert.Equal(t, 100.0, ClampMoney(150, 100))
	assert.Equal(t, 42.5, ClampMoney(42.5, 100))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("loud"))
}

func TestCheckHealth(t *testing.T) {
	Logger = zap.NewNop()

	status := CheckHealth(context.Background(), map[string]Pinger{
		"redis": PingFunc(func(context.Context) error { return nil }),
	})
	assert.True(t, status.Healthy)
	assert.Equal(t, map[string]bool{"redis": true}, status.Services)

	status = CheckHealth(context.Background(), map[string]Pinger{
		"redis": PingFunc(func(context.Context) error { return nil }),
		"mongo": PingFunc(func(context.Context) error { return errors.New("no primary") }),
	})
	assert.False(t, status.Healthy)
	assert.False(t, status.Services["mongo"])
	assert.Equal(t, status, GetHealthStatus())
}
