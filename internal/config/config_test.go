package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/case-billing-api/internal/constants"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("IDEMPOTENCY_TTL", "")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_PORT", "")

	cfg := Load()

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, constants.DefaultIdempotencyTTL, cfg.IdempotencyTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("IDEMPOTENCY_TTL", "90s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 90*time.Second, cfg.IdempotencyTTL)

	logCfg := cfg.GetLoggerConfig()
	assert.Equal(t, "debug", logCfg.Level)
	assert.Equal(t, "json", logCfg.Format)
}

func TestGetDuration_InvalidFallsBack(t *testing.T) {
	for _, value := range []string{"soon", "-5m", "0s"} {
		t.Setenv("IDEMPOTENCY_TTL", value)
		assert.Equal(t, time.Hour, getDuration("IDEMPOTENCY_TTL", time.Hour), value)
	}
}
