package config

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "UTC", cfg.Server.Timezone)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ProviderSQLite, cfg.Storage.Provider)
	assert.Equal(t, AuthModeHeader, cfg.Auth.Mode)
	assert.Equal(t, "session", cfg.Auth.SessionCookieName)
	assert.Equal(t, 5*24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 50, cfg.Events.FeedSize)
	assert.Equal(t, "1M", cfg.Limits.BodyLimit)

	require.NoError(t, cfg.Validate())
}

func TestDefault_ProductionUsesFirebase(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Production: true}}
	applyDefaults(cfg)
	assert.Equal(t, AuthModeFirebase, cfg.Auth.Mode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"port too high", func(c *Config) { c.Server.Port = 65536 }, "invalid server port"},
		{"bad timezone", func(c *Config) { c.Server.Timezone = "Mars/Olympus" }, "invalid timezone"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
		{"unknown provider", func(c *Config) { c.Storage.Provider = "postgres" }, "unsupported storage provider"},
		{"mongo without uri", func(c *Config) { c.Storage.Provider = ProviderMongo }, "mongo_uri is required"},
		{"mongo with uri", func(c *Config) {
			c.Storage.Provider = ProviderMongo
			c.Storage.MongoURI = "mongodb://localhost:27017"
		}, ""},
		{"seed on sqlite", func(c *Config) { c.Storage.SeedDemo = true }, "seed_demo"},
		{"seed on memory", func(c *Config) {
			c.Storage.Provider = ProviderMemory
			c.Storage.SeedDemo = true
		}, ""},
		{"firebase without project", func(c *Config) { c.Auth.Mode = AuthModeFirebase }, "firebase_project_id"},
		{"header in production", func(c *Config) { c.Server.Production = true }, "cannot be used in production"},
		{"otel logs without telemetry", func(c *Config) { c.Log.OTEL = true }, "log.otel requires telemetry"},
		{"otel logs with telemetry", func(c *Config) {
			c.Log.OTEL = true
			c.Telemetry.Enabled = true
		}, ""},
		{"zero burst while limiting", func(c *Config) { c.Limits.Burst = 0 }, "limits.burst"},
		{"limiting off", func(c *Config) {
			c.Limits.RequestsPerSecond = 0
			c.Limits.Burst = 0
		}, ""},
		{"unknown auth", func(c *Config) { c.Auth.Mode = "basic" }, "unsupported auth mode"},
		{"session ttl too short", func(c *Config) { c.Auth.SessionTTL = time.Minute }, "session_ttl"},
		{"session ttl too long", func(c *Config) { c.Auth.SessionTTL = 15 * 24 * time.Hour }, "session_ttl"},
		{"nats without url", func(c *Config) {
			c.Events.NATSEnabled = true
			c.Events.NATSURL = ""
		}, "nats_url"},
		{"negative rps", func(c *Config) { c.Limits.RequestsPerSecond = -1 }, "cannot be negative"},
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
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("mongodb://admin:pw@host")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))
	assert.Equal(t, "mongodb://admin:pw@host", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(struct{ URI Secret }{s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"URI":"[REDACTED]"}`, string(data))

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}

func TestRedactURI(t *testing.T) {
	assert.Equal(t, "mongodb://admin:xxxxx@db:27017/ceo", RedactURI("mongodb://admin:pw@db:27017/ceo"))
	assert.Equal(t, "mongodb://db:27017", RedactURI("mongodb://db:27017"))
	assert.Equal(t, "", RedactURI(""))
}
