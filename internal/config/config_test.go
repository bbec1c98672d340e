package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_URL", "http://localhost:8090")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("S3_BUCKET", "")

	cfg := Load()

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 168*time.Hour, cfg.SessionExpiry)
	assert.Equal(t, 5, cfg.AuthRateLimit)
	assert.Equal(t, "goalstash.events", cfg.AMQPExchange)
	assert.Empty(t, cfg.S3Bucket)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_URL", "http://localhost:8090")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SESSION_EXPIRY", "2h")
	t.Setenv("AUTH_RATE_LIMIT", "50")
	t.Setenv("DB_DRIVER", "pgx")

	cfg := Load()

	assert.Equal(t, 2*time.Hour, cfg.SessionExpiry)
	assert.Equal(t, 50, cfg.AuthRateLimit)
	assert.Equal(t, "pgx", cfg.DBDriver)
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("SESSION_EXPIRY", "soon")
	t.Setenv("AUTH_RATE_LIMIT", "many")

	assert.Equal(t, time.Hour, envDuration("SESSION_EXPIRY", time.Hour))
	assert.Equal(t, 5, envInt("AUTH_RATE_LIMIT", 5))
}

func TestSanitizedDropsSecrets(t *testing.T) {
	cfg := &Config{
		AppName:      "Goalstash",
		AppEnv:       "production",
		JWTSecret:    "secret",
		ResendAPIKey: "re_123",
		S3SecretKey:  "s3",
	}

	safe := cfg.Sanitized()

	assert.Equal(t, "Goalstash", safe.AppName)
	assert.True(t, safe.IsProduction())
	assert.Empty(t, safe.JWTSecret)
	assert.Empty(t, safe.ResendAPIKey)
	assert.Empty(t, safe.S3SecretKey)
}
