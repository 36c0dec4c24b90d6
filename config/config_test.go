package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	for _, key := range []string{"DATABASE_URL", "PORT", "JWT_SECRET", "TOKEN_EXPIRY", "REDIS_ADDR", "CORS_ALLOWED_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "TRUSTED_PROXIES", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "MINIO_ENDPOINT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenExpiry)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.False(t, cfg.Google.Enabled())
	assert.Empty(t, cfg.Minio.Endpoint)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Empty(t, cfg.RateLimit.TrustedProxies)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TOKEN_EXPIRY", "2h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.1")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.TokenExpiry)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.Minio.UseSSL)
	assert.InDelta(t, 0.5, cfg.RateLimit.RPS, 1e-9)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.1"}, cfg.RateLimit.TrustedProxies)
	assert.True(t, cfg.Google.Enabled())
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("TOKEN_EXPIRY", "forever")
	t.Setenv("REDIS_DB", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOKEN_EXPIRY")
	assert.Contains(t, err.Error(), "REDIS_DB")
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "production", "warn")

	logger.Info("dropped")
	logger.Warn("kept", "k", "v")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "eventplanner", record["service"])
	assert.Equal(t, slog.LevelWarn.String(), record["level"])
}
