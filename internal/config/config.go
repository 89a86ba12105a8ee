package config

import (
	"os"
	"time"

	"github.com/yukikurage/case-billing-api/internal/constants"
	"github.com/yukikurage/case-billing-api/internal/logger"
)

type Config struct {
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSQLitePath  string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	SessionSecret string
	GinMode       string
	HTTPAddr      string
	OpenAIAPIKey  string

	// IdempotencyBackend is "redis", "memory" or "none"
	IdempotencyBackend string
	IdempotencyTTL     time.Duration

	LogLevel  string
	LogFormat string
	LogOutput string
}

func Load() *Config {
	return &Config{
		DBDriver:           getEnv("DB_DRIVER", "mysql"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBUser:             getEnv("DB_USER", "billinguser"),
		DBPassword:         getEnv("DB_PASSWORD", "billingpassword"),
		DBName:             getEnv("DB_NAME", "case_billing"),
		DBSQLitePath:       getEnv("DB_SQLITE_PATH", "case_billing.db"),
		RedisHost:          getEnv("REDIS_HOST", "localhost"),
		RedisPort:          getEnv("REDIS_PORT", "6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		SessionSecret:      getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		IdempotencyBackend: getEnv("IDEMPOTENCY_BACKEND", "redis"),
		IdempotencyTTL:     getDuration("IDEMPOTENCY_TTL", constants.DefaultIdempotencyTTL),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "console"),
		LogOutput:          getEnv("LOG_OUTPUT", "stdout"),
	}
}

// RedisAddr returns host:port of the Redis server used for sessions and idempotency keys.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// GetLoggerConfig maps the logging settings onto logger.LogConfig.
func (c *Config) GetLoggerConfig() logger.LogConfig {
	cfg := logger.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Format = c.LogFormat
	cfg.Output = c.LogOutput
	return cfg
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
