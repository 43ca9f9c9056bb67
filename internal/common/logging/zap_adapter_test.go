package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZapAdapter(t *testing.T) {
	t.Run("basic logging", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewZapLogger(LogConfig{Level: DebugLevel, Output: &buf})
		require.NoError(t, err)

		logger.Debug("debug message", Field{"key", "value"})
		logger.Info("info message", Int("count", 42))
		logger.Warn("warn message", Bool("enabled", true))
		logger.Error("error message", errors.New("test error"), String("code", "ERR123"))

		output := buf.String()
		assert.Contains(t, output, "DEBUG")
		assert.Contains(t, output, "debug message")
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "WARN")
		assert.Contains(t, output, "ERROR")
		assert.Contains(t, output, "test error")
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewZapLogger(LogConfig{Level: WarnLevel, Output: &buf})
		require.NoError(t, err)

		logger.Info("hidden")
		logger.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("json format with fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewZapLogger(LogConfig{Level: InfoLevel, Output: &buf, Format: "json"})
		require.NoError(t, err)

		logger.WithFields(String("service", "paysign")).Info("verified", String("api_key", "pk_1"))

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
		assert.Equal(t, "verified", entry["msg"])
		assert.Equal(t, "paysign", entry["service"])
		assert.Equal(t, "pk_1", entry["api_key"])
	})

	t.Run("with context", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewZapLogger(LogConfig{Level: InfoLevel, Output: &buf})
		require.NoError(t, err)

		ctx := ContextWithRequestID(context.Background(), "req-123")
		logger.WithContext(ctx).Info("handled")

		assert.Contains(t, buf.String(), "req-123")
		assert.Same(t, logger, logger.WithContext(context.Background()))
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel("nonsense"))
	assert.Equal(t, "WARN", WarnLevel.String())
}

func TestRedacted(t *testing.T) {
	assert.Equal(t, "[REDACTED]", Redacted("secret_key", "s3cr3t").Value)
	assert.Equal(t, "", Redacted("secret_key", "").Value)
}

func TestGlobalLogger(t *testing.T) {
	SetGlobalLogger(nil)
	defaultLogger := GetGlobalLogger()
	require.NotNil(t, defaultLogger)
	assert.Same(t, defaultLogger, GetGlobalLogger())

	nop := NewNopLogger()
	SetGlobalLogger(nop)
	t.Cleanup(func() { SetGlobalLogger(nil) })
	assert.Same(t, nop, GetGlobalLogger())
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
	assert.Equal(t, "abc", RequestIDFromContext(ContextWithRequestID(context.Background(), "abc")))
}
