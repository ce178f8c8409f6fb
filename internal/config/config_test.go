package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORAGE_DRIVER", "JWT_EXPIRATION", "REFRESH_TOKEN_EXPIRATION",
		"STATS_LOCALE", "STATS_TIMEZONE", "SEED_ENABLED", "SEED_USERNAME"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 168*time.Hour, cfg.JWT.RefreshTokenExpiration)
	assert.Equal(t, "ru_RU", cfg.Stats.Locale)
	assert.NotNil(t, cfg.Stats.Location)
	assert.True(t, cfg.Seed.Enabled)
	assert.Equal(t, "user", cfg.Seed.Username)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/notes.db")
	t.Setenv("JWT_EXPIRATION", "15m")
	t.Setenv("STATS_TIMEZONE", "UTC")
	t.Setenv("STATS_LOCALE", "en_US")
	t.Setenv("SEED_ENABLED", "false")
	t.Setenv("WS_MAX_CONN_PER_USER", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/notes.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 15*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, time.UTC, cfg.Stats.Location)
	assert.Equal(t, "en_US", cfg.Stats.Locale)
	assert.False(t, cfg.Seed.Enabled)
	assert.Equal(t, 2, cfg.WebSocket.MaxConnPerUser)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad jwt expiration", key: "JWT_EXPIRATION", value: "soon"},
		{name: "bad refresh expiration", key: "REFRESH_TOKEN_EXPIRATION", value: "-"},
		{name: "bad timezone", key: "STATS_TIMEZONE", value: "Mars/Olympus"},
		{name: "bad storage driver", key: "STORAGE_DRIVER", value: "mongo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("NOTES_TEST_INT", "not-a-number")
	t.Setenv("NOTES_TEST_BOOL", "yes-please")

	assert.Equal(t, 7, getEnvAsInt("NOTES_TEST_INT", 7))
	assert.True(t, getEnvAsBool("NOTES_TEST_BOOL", true))
	assert.Equal(t, "fallback", getEnv("NOTES_TEST_MISSING", "fallback"))
}
