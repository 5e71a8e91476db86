package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "./aster.db", cfg.DatabasePath)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, "HS256", cfg.TokenAlgorithm)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenExpires)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30, cfg.AuditRetentionDays)
	assert.NotEmpty(t, cfg.SecretKey, "a signing key must be generated when none is configured")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ASTER_SERVER_PORT", "9999")
	t.Setenv("ASTER_DATABASE_PATH", "/tmp/other.db")
	t.Setenv("ASTER_SECRET_KEY", "fixed-secret")
	t.Setenv("ASTER_ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("ASTER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.ServerPort)
	assert.Equal(t, "/tmp/other.db", cfg.DatabasePath)
	assert.Equal(t, "fixed-secret", cfg.SecretKey)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenExpires)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("ASTER_SERVER_PORT", "not-a-port")

	_, err := Load()
	assert.Error(t, err)
}

func TestRandomSecretIsUnique(t *testing.T) {
	a, err := randomSecret()
	require.NoError(t, err)
	b, err := randomSecret()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
}
