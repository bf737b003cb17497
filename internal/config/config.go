// Package config provides configuration loading for the CEO Assistant daemon.
//
// Configuration is layered: hardcoded defaults, then an optional YAML file,
// then CEO_-prefixed environment variables. See LoadWithFile.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Storage provider names.
const (
	ProviderMongo  = "mongo"
	ProviderSQLite = "sqlite"
	ProviderMemory = "memory"
)

// Auth modes.
const (
	AuthModeFirebase = "firebase"
	AuthModeHeader   = "header"
)

// Config holds the complete ceod configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Storage   StorageConfig   `koanf:"storage"`
	Auth      AuthConfig      `koanf:"auth"`
	Events    EventsConfig    `koanf:"events"`
	Limits    LimitsConfig    `koanf:"limits"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"http_host"`
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Production      bool          `koanf:"production"`
	// Timezone used to compute day and week windows for date queries.
	Timezone    string   `koanf:"timezone"`
	CORSOrigins []string `koanf:"cors_origins"`
}

// LogConfig selects level and encoding for the process logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// OTEL also ships entries to the OTLP collector. Requires telemetry.
	OTEL bool `koanf:"otel"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"`
	Protocol    string `koanf:"protocol"`
	ServiceName string `koanf:"service_name"`
	Insecure    bool   `koanf:"insecure"`
}

// StorageConfig selects and configures the document store.
type StorageConfig struct {
	Provider string `koanf:"provider"`

	MongoURI      Secret `koanf:"mongo_uri"`
	MongoDatabase string `koanf:"mongo_database"`

	SQLitePath string `koanf:"sqlite_path"`

	// SeedDemo loads the demo data set on startup (memory provider only).
	SeedDemo bool `koanf:"seed_demo"`
}

// AuthConfig configures request authentication.
type AuthConfig struct {
	Mode string `koanf:"mode"`

	FirebaseProjectID       string `koanf:"firebase_project_id"`
	FirebaseCredentialsFile string `koanf:"firebase_credentials_file"`
	FirebaseCredentialsJSON Secret `koanf:"firebase_credentials_json"`
	CheckRevoked            bool   `koanf:"check_revoked"`

	SessionCookieName string        `koanf:"session_cookie_name"`
	SessionTTL        time.Duration `koanf:"session_ttl"`
}

// EventsConfig configures domain event publishing.
type EventsConfig struct {
	NATSEnabled   bool   `koanf:"nats_enabled"`
	NATSURL       string `koanf:"nats_url"`
	SubjectPrefix string `koanf:"subject_prefix"`
	FeedSize      int    `koanf:"feed_size"`
}

// LimitsConfig holds request limits.
type LimitsConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
	BodyLimit         string  `koanf:"body_limit"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Shutdown timeout is not positive
//   - Storage provider or auth mode is unknown
//   - Mongo provider is selected without a URI
//   - Header auth is enabled in production
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if _, err := time.LoadLocation(c.Server.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Server.Timezone, err)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be 'json' or 'console', got %q", c.Log.Format)
	}
	if c.Log.OTEL && !c.Telemetry.Enabled {
		return errors.New("log.otel requires telemetry.enabled")
	}

	switch c.Storage.Provider {
	case ProviderMongo:
		if !c.Storage.MongoURI.IsSet() {
			return errors.New("storage.mongo_uri is required for the mongo provider")
		}
		if c.Storage.MongoDatabase == "" {
			return errors.New("storage.mongo_database is required for the mongo provider")
		}
	case ProviderSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite provider")
		}
	case ProviderMemory:
	default:
		return fmt.Errorf("unsupported storage provider: %s (supported: mongo, sqlite, memory)", c.Storage.Provider)
	}
	if c.Storage.SeedDemo && c.Storage.Provider != ProviderMemory {
		return errors.New("storage.seed_demo is only allowed with the memory provider")
	}

	switch c.Auth.Mode {
	case AuthModeFirebase:
		if c.Auth.FirebaseProjectID == "" {
			return errors.New("auth.firebase_project_id is required for firebase auth")
		}
	case AuthModeHeader:
		if c.Server.Production {
			return errors.New("header auth trusts X-User-Id and cannot be used in production")
		}
	default:
		return fmt.Errorf("unsupported auth mode: %s (supported: firebase, header)", c.Auth.Mode)
	}
	if c.Auth.SessionTTL < 5*time.Minute || c.Auth.SessionTTL > 14*24*time.Hour {
		return fmt.Errorf("auth.session_ttl must be between 5m and 336h, got %s", c.Auth.SessionTTL)
	}

	if c.Events.NATSEnabled && c.Events.NATSURL == "" {
		return errors.New("events.nats_url is required when nats is enabled")
	}
	if c.Events.FeedSize < 1 {
		return fmt.Errorf("events.feed_size must be positive, got %d", c.Events.FeedSize)
	}

	if c.Limits.RequestsPerSecond < 0 {
		return errors.New("limits.requests_per_second cannot be negative")
	}
	if c.Limits.RequestsPerSecond > 0 && c.Limits.Burst < 1 {
		return fmt.Errorf("limits.burst must be at least 1 when rate limiting is on, got %d", c.Limits.Burst)
	}

	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	staticDefaults(cfg)
	resolveDefaults(cfg)
}

// staticDefaults fills zero fields with fixed defaults. LoadWithFile applies
// it before the file and environment layers, so an explicit zero there
// (limits.requests_per_second: 0) is kept.
func staticDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.Timezone == "" {
		cfg.Server.Timezone = "UTC"
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "ceo-assistant"
	}

	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = ProviderSQLite
	}
	if cfg.Storage.MongoDatabase == "" {
		cfg.Storage.MongoDatabase = "ceo-assistant"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "~/.config/ceo-assistant/ceo.db"
	}

	if cfg.Auth.SessionCookieName == "" {
		cfg.Auth.SessionCookieName = "session"
	}
	if cfg.Auth.SessionTTL == 0 {
		cfg.Auth.SessionTTL = 5 * 24 * time.Hour
	}

	if cfg.Events.NATSURL == "" {
		cfg.Events.NATSURL = "nats://localhost:4222"
	}
	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = "ceo"
	}
	if cfg.Events.FeedSize == 0 {
		cfg.Events.FeedSize = 50
	}

	if cfg.Limits.RequestsPerSecond == 0 {
		cfg.Limits.RequestsPerSecond = 20
	}
	if cfg.Limits.Burst == 0 {
		cfg.Limits.Burst = 40
	}
	if cfg.Limits.BodyLimit == "" {
		cfg.Limits.BodyLimit = "1M"
	}
}

// resolveDefaults fills defaults that depend on other loaded settings.
func resolveDefaults(cfg *Config) {
	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = AuthModeHeader
		if cfg.Server.Production {
			cfg.Auth.Mode = AuthModeFirebase
		}
	}
}
