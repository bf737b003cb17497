package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/fyrsmithlabs/ceo-assistant/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferedLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Sampling.Enabled = false

	core, err := newCore(cfg, zapcore.AddSync(&buf), nil)
	require.NoError(t, err)
	return &Logger{zap: zap.New(core), config: cfg}, &buf
}

func TestRedactingEncoder_SensitiveKeys(t *testing.T) {
	logger, buf := newBufferedLogger(t)

	logger.Info(context.Background(), "session issued",
		zap.String("session_cookie", "abc.def.ghi"),
		zap.String("Authorization", "Basic Zm9vOmJhcg=="),
		zap.Any("credentials", map[string]string{"k": "v"}),
		zap.String("user.id", "u1"),
	)

	out := buf.String()
	assert.NotContains(t, out, "abc.def.ghi")
	assert.NotContains(t, out, "Zm9vOmJhcg")
	assert.NotContains(t, out, `"k":"v"`)
	assert.Contains(t, out, `"user.id":"u1"`)
}

func TestRedactingEncoder_SensitivePatterns(t *testing.T) {
	logger, buf := newBufferedLogger(t)

	logger.Warn(context.Background(), "connect failed",
		zap.String("uri", "mongodb://admin:hunter2@db:27017/ceo"),
		zap.String("header", "Bearer eyJhbGciOiJSUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"),
		zap.Error(errors.New("dial mongodb://root:pw@db failed")),
	)

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "eyJzdWIiOiIxMjM0NTY3ODkwIn0")
	assert.NotContains(t, out, "root:pw")
	assert.Contains(t, out, "[REDACTED:pattern]")
}

func TestRedactingEncoder_ChildLoggerFields(t *testing.T) {
	logger, buf := newBufferedLogger(t)

	logger.With(zap.String("token", "raw-token")).Info(context.Background(), "child")

	assert.NotContains(t, buf.String(), "raw-token")
}

func TestRedactingEncoder_Disabled(t *testing.T) {
	enc, err := NewRedactingEncoder(newEncoder("json"), RedactionConfig{Enabled: false})
	require.NoError(t, err)

	buf, err := enc.EncodeEntry(zapcore.Entry{Message: "m"}, []zapcore.Field{zap.String("password", "plain")})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "plain")
}

func TestNewRedactingEncoder_BadPattern(t *testing.T) {
	_, err := NewRedactingEncoder(newEncoder("json"), RedactionConfig{Enabled: true, Patterns: []string{"("}})
	assert.Error(t, err)
}

func TestSecretField(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "loaded", Secret("mongo", config.Secret("mongodb://x")))

	tl.AssertField(t, "loaded", "mongo", "[REDACTED:11]")
}
