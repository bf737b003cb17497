package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/fyrsmithlabs/ceo-assistant/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig(), nil)
	require.NoError(t, err)

	assert.Nil(t, tel.LoggerProvider())
	assert.Equal(t, HealthStatus{Healthy: true}, tel.Health())
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = ""

	tel, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Nil(t, tel)
	assert.Contains(t, err.Error(), "invalid telemetry config")
}

func TestNew_LogsEnabled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.LogsEnabled = true

	tel, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, tel.LoggerProvider())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = tel.Shutdown(ctx)
}

func TestNew_LogsOffWithoutSwitch(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true

	tel, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, tel.LoggerProvider())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = tel.Shutdown(ctx)
}

func TestTelemetry_NilSafe(t *testing.T) {
	var tel *Telemetry

	assert.Nil(t, tel.LoggerProvider())
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.True(t, tel.Health().Degraded)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"disabled skips checks", func(c *Config) { c.Enabled = false; c.Endpoint = "" }, ""},
		{"local insecure grpc", func(c *Config) {}, ""},
		{"local insecure ipv6", func(c *Config) { c.Endpoint = "[::1]:4317" }, ""},
		{"remote insecure", func(c *Config) { c.Endpoint = "otel.example.com:4317" }, "insecure connections"},
		{"remote tls", func(c *Config) {
			c.Endpoint = "https://otel.example.com:4318"
			c.Protocol = ProtocolHTTP
			c.Insecure = false
		}, ""},
		{"bad protocol", func(c *Config) { c.Protocol = "udp" }, "protocol must be"},
		{"no service", func(c *Config) { c.ServiceName = "" }, "service_name"},
		{"bad sample rate", func(c *Config) { c.SampleRate = 2 }, "sample rate"},
		{"zero interval", func(c *Config) { c.ExportInterval = 0 }, "export interval"},
		{"zero shutdown", func(c *Config) { c.ShutdownTimeout = 0 }, "shutdown timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			cfg.Enabled = true
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

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(&config.Config{
		Log: config.LogConfig{OTEL: true},
		Telemetry: config.TelemetryConfig{
			Enabled:     true,
			Endpoint:    "collector:4318",
			Protocol:    ProtocolHTTP,
			ServiceName: "ceod",
		},
	}, "1.2.3")

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "collector:4318", cfg.Endpoint)
	assert.Equal(t, ProtocolHTTP, cfg.Protocol)
	assert.Equal(t, "ceod", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.False(t, cfg.Insecure)
	assert.Equal(t, 15*time.Second, cfg.ExportInterval)
	assert.True(t, cfg.LogsEnabled)
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "host:4318", stripScheme("https://host:4318"))
	assert.Equal(t, "host:4318", stripScheme("http://host:4318"))
	assert.Equal(t, "host:4317", stripScheme("host:4317"))
}

func TestTestTelemetry_RecordsSpansAndMetrics(t *testing.T) {
	tt := NewTestTelemetry()
	ctx := context.Background()

	_, span := tt.Tracer("test").Start(ctx, "task.create")
	span.SetAttributes(attribute.String("task.category", "Strategy"))
	span.End()

	counter, err := tt.Meter("test").Int64Counter("ceo.tasks.created")
	require.NoError(t, err)
	counter.Add(ctx, 2)
	counter.Add(ctx, 1)

	tt.AssertSpanExists(t, "task.create")
	tt.AssertSpanAttribute(t, "task.create", "task.category", "Strategy")
	assert.Equal(t, int64(3), tt.SumValue(t, "ceo.tasks.created"))
	assert.Equal(t, int64(-1), tt.SumValue(t, "ceo.missing"))
}
