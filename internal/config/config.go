package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every configuration variable name.
const EnvPrefix = "ASTER_"

// Config holds the application configuration. It is built once at startup and
// passed into component constructors; nothing mutates it afterwards.
type Config struct {
	ServerPort   int
	DatabasePath string
	RedisURL     string // empty disables the cache
	CORSOrigins  []string

	SecretKey          string
	TokenAlgorithm     string
	AccessTokenExpires time.Duration

	LogLevel           string
	AuditRetentionDays int
}

// Load reads configuration from ASTER_-prefixed environment variables,
// consulting a .env file first if one exists.
func Load() (*Config, error) {
	// Missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid %sSERVER_PORT: %w", EnvPrefix, err)
	}

	expireMinutes, err := strconv.Atoi(getEnv("ACCESS_TOKEN_EXPIRE_MINUTES", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid %sACCESS_TOKEN_EXPIRE_MINUTES: %w", EnvPrefix, err)
	}

	retentionDays, err := strconv.Atoi(getEnv("AUDIT_RETENTION_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid %sAUDIT_RETENTION_DAYS: %w", EnvPrefix, err)
	}

	secret := getEnv("SECRET_KEY", "")
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return nil, fmt.Errorf("generate secret key: %w", err)
		}
	}

	return &Config{
		ServerPort:         port,
		DatabasePath:       getEnv("DATABASE_PATH", "./aster.db"),
		RedisURL:           getEnv("REDIS_URL", ""),
		CORSOrigins:        splitOrigins(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		SecretKey:          secret,
		TokenAlgorithm:     getEnv("TOKEN_ALGORITHM", "HS256"),
		AccessTokenExpires: time.Duration(expireMinutes) * time.Minute,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		AuditRetentionDays: retentionDays,
	}, nil
}

// Helper to get a prefixed environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(EnvPrefix + key); exists {
		return value
	}
	return fallback
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// randomSecret produces an ephemeral signing key for processes started without
// an explicit one. Tokens do not survive a restart in that mode.
func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
