package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_PORT", "DB_DRIVER", "SHARE_DEFAULT_TTL_HOURS", "SHARE_MAX_TTL_HOURS",
		"CLEANUP_INTERVAL", "CLEANUP_ENABLED", "JWT_EXPIRATION_HOURS", "OTEL_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "", cfg.App.Port, "explicitly empty env wins over default")
	assert.Equal(t, 24*time.Hour, cfg.Notes.ShareDefaultTTL)
	assert.Equal(t, 720*time.Hour, cfg.Notes.ShareMaxTTL)
	assert.Equal(t, time.Hour, cfg.Cleanup.Interval)
	assert.True(t, cfg.Cleanup.Enabled)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Security.JWTExpiration)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("APP_BASE_URL", "https://notes.example.com/")
	t.Setenv("SHARE_MAX_TTL_HOURS", "48")
	t.Setenv("CLEANUP_INTERVAL", "15m")
	t.Setenv("CLEANUP_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "https://notes.example.com", cfg.App.BaseURL)
	assert.Equal(t, 48*time.Hour, cfg.Notes.ShareMaxTTL)
	assert.Equal(t, 15*time.Minute, cfg.Cleanup.Interval)
	assert.False(t, cfg.Cleanup.Enabled)
}

func TestLoadRejectsOverflowingHours(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("APP_ENCRYPTION_KEY", "k")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("SHARE_MAX_TTL_HOURS", "5124096")

	cfg := Load()

	assert.Zero(t, cfg.Notes.ShareMaxTTL)
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TTLs must be positive")
}

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: DriverMemory},
		Security: SecurityConfig{EncryptionKey: "k", JWTSecret: "s", JWTExpiration: time.Hour},
		Notes:    NotesConfig{ShareDefaultTTL: time.Hour, ShareMaxTTL: 2 * time.Hour, NoteMaxTTL: time.Hour},
		Cleanup:  CleanupConfig{Enabled: true, Interval: time.Hour},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{name: "missing key", mutate: func(c *Config) { c.Security.EncryptionKey = "" }, want: "APP_ENCRYPTION_KEY"},
		{name: "missing jwt secret", mutate: func(c *Config) { c.Security.JWTSecret = "" }, want: "JWT_SECRET"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Database.Driver = DriverPostgres }, want: "DB_CONNECTION_STRING"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "sqlite" }, want: "DB_DRIVER"},
		{name: "default above max", mutate: func(c *Config) { c.Notes.ShareDefaultTTL = 3 * time.Hour }, want: "SHARE_DEFAULT_TTL_HOURS"},
		{name: "zero interval", mutate: func(c *Config) { c.Cleanup.Interval = 0 }, want: "CLEANUP_INTERVAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
