package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setLocalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_BACKEND", BackendMemory)
	t.Setenv("NOTIFIER_BACKEND", BackendLog)
	t.Setenv("PUBLISHER_BACKEND", BackendLog)
}

func TestLoadConfig_Defaults(t *testing.T) {
	setLocalEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "automation.bot", cfg.EventSource)
	assert.Equal(t, 30*24*time.Hour, cfg.ReminderTTL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.True(t, cfg.IsLocal())
}

func TestLoadConfig_OriginalEnvNames(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SESSIONS_TABLE", "automation-sessions")
	t.Setenv("EVENT_BUS_NAME", "automation-bus")
	t.Setenv("SES_FROM_ADDRESS", "bot@example.com")
	t.Setenv("SES_DEFAULT_RECIPIENT", "support@example.com")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("NOTIFIER_BACKEND", "")
	t.Setenv("PUBLISHER_BACKEND", "")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("CLAIM_LEASE", "90s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "automation-sessions", cfg.SessionsTable)
	assert.Equal(t, "automation-bus", cfg.EventBusName)
	assert.Equal(t, "bot@example.com", cfg.SenderAddress)
	assert.Equal(t, "support@example.com", cfg.DefaultRecipient)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 90*time.Second, cfg.ClaimLease)
	assert.False(t, cfg.IsLocal())
}

func TestLoadConfig_YAMLOverlayThenEnv(t *testing.T) {
	setLocalEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timezone: America/New_York
dispatchConcurrency: 8
callTimeout: 2s
logLevel: debug
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "America/New_York", cfg.Location().String())
	assert.Equal(t, 8, cfg.DispatchConcurrency)
	assert.Equal(t, 2*time.Second, cfg.CallTimeout)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	setLocalEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_BadDuration(t *testing.T) {
	setLocalEnv(t)
	t.Setenv("CALL_TIMEOUT", "soon")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "CALL_TIMEOUT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "dynamodb needs a table",
			mutate: func(c *Config) {
				c.EventBusName = "bus"
				c.SenderAddress = "bot@example.com"
			},
			wantErr: "SESSIONS_TABLE is required",
		},
		{
			name: "eventbridge needs a bus",
			mutate: func(c *Config) {
				c.StoreBackend = BackendMemory
				c.SenderAddress = "bot@example.com"
			},
			wantErr: "EVENT_BUS_NAME is required",
		},
		{
			name: "ses needs a sender",
			mutate: func(c *Config) {
				c.StoreBackend = BackendMemory
				c.PublisherBackend = BackendLog
			},
			wantErr: "SES_FROM_ADDRESS is required",
		},
		{
			name: "unknown timezone",
			mutate: func(c *Config) {
				c.StoreBackend = BackendMemory
				c.PublisherBackend = BackendLog
				c.NotifierBackend = BackendLog
				c.Timezone = "Mars/Olympus"
			},
			wantErr: "timezone must be an IANA time zone",
		},
		{
			name: "unknown backend",
			mutate: func(c *Config) {
				c.StoreBackend = "postgres"
			},
			wantErr: "storebackend must be one of",
		},
		{
			name: "bad recipient",
			mutate: func(c *Config) {
				c.DefaultRecipient = "not-an-email"
			},
			wantErr: "defaultrecipient must be a valid email",
		},
		{
			name: "local",
			mutate: func(c *Config) {
				c.StoreBackend = BackendMemory
				c.PublisherBackend = BackendLog
				c.NotifierBackend = BackendLog
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
