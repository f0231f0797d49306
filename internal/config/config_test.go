package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every configuration variable so a test sees only
// what it sets itself.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"STASHD_DATA_DIR", "STASHD_PORT", "DEV_MODE", "LOG_LEVEL",
		"STASHD_TIMEZONE", "STASHD_WAKE_SCHEDULE",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD", "SMTP_FROM",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dataDir := t.TempDir()
	t.Setenv("STASHD_DATA_DIR", dataDir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, 8000, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "@hourly", cfg.WakeSchedule)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Empty(t, cfg.SMTP.Host)
	assert.Empty(t, cfg.SMTP.From)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STASHD_DATA_DIR", t.TempDir())
	t.Setenv("STASHD_PORT", "9001")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STASHD_WAKE_SCHEDULE", "0 3 * * *")
	t.Setenv("SMTP_HOST", "mail.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SMTP_USER", "reports")
	t.Setenv("SMTP_PASSWORD", "secret")
	t.Setenv("SMTP_FROM", "stashd@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "0 3 * * *", cfg.WakeSchedule)
	assert.Equal(t, "mail.example.com", cfg.SMTP.Host)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.Equal(t, "reports", cfg.SMTP.User)
	assert.Equal(t, "secret", cfg.SMTP.Password)
	assert.Equal(t, "stashd@example.com", cfg.SMTP.From)
}

func TestLoad_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("STASHD_DATA_DIR", t.TempDir())
	t.Setenv("STASHD_PORT", "70000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}

func TestLoad_InvalidTimezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("STASHD_DATA_DIR", t.TempDir())
	t.Setenv("STASHD_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timezone")
}

func TestValidate(t *testing.T) {
	valid := Config{Port: 8000, Timezone: "UTC", WakeSchedule: "@hourly"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Port = 0 }},
		{"port above range", func(c *Config) { c.Port = 70000 }},
		{"unknown timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"empty wake schedule", func(c *Config) { c.WakeSchedule = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := Config{Timezone: "UTC"}
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.Timezone = "Mars/Olympus"
	assert.Equal(t, time.UTC, cfg.Location(), "unknown zones fall back to UTC")
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("STASHD_TEST_INT", "42")
	assert.Equal(t, 42, getEnvAsInt("STASHD_TEST_INT", 7))

	t.Setenv("STASHD_TEST_INT", "not a number")
	assert.Equal(t, 7, getEnvAsInt("STASHD_TEST_INT", 7))

	t.Setenv("STASHD_TEST_BOOL", "1")
	assert.True(t, getEnvAsBool("STASHD_TEST_BOOL", false))

	t.Setenv("STASHD_TEST_BOOL", "not a bool")
	assert.False(t, getEnvAsBool("STASHD_TEST_BOOL", false))

	t.Setenv("STASHD_TEST_STR", "")
	assert.Equal(t, "fallback", getEnv("STASHD_TEST_STR", "fallback"))
}
