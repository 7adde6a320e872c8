package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlinecompany/LetsEcrypt/core/logger"
)

func TestNewProductionWritesJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := logger.New(logger.WithProduction("svc"), logger.WithOutput(&buf))

	log.Info("hello", logger.Domain("example.com"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "svc", rec["service"])
	assert.Equal(t, "production", rec["env"])
	assert.Equal(t, "example.com", rec["domain"])
}

func TestNewDevelopmentLogsDebug(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := logger.New(logger.WithDevelopment("svc"), logger.WithOutput(&buf))

	log.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
	assert.Contains(t, buf.String(), "service=svc")
}

func TestWithLevelFilters(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := logger.New(logger.WithLevel(slog.LevelWarn), logger.WithOutput(&buf))

	log.Info("dropped")
	assert.Empty(t, buf.String())
	log.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, logger.ParseLevel(in), in)
	}
}

func TestError(t *testing.T) {
	t.Parallel()
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestErrors(t *testing.T) {
	t.Parallel()
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "0", g[0].Key)
	assert.Equal(t, "2", g[1].Key)

	assert.True(t, logger.Errors(nil, nil).Equal(slog.Attr{}))
}

func TestEmptyIdentifiersAreDropped(t *testing.T) {
	t.Parallel()
	for _, attr := range []slog.Attr{
		logger.Domain(""),
		logger.RequestID(""),
		logger.SessionID(""),
		logger.UserID(""),
		logger.Challenge(""),
		logger.ClientIP(""),
		logger.Key("k", nil),
	} {
		assert.True(t, attr.Equal(slog.Attr{}))
	}
}

func TestCertificateAttrs(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "dns-01", logger.Challenge("dns-01").Value.String())
	assert.Equal(t, int64(3), logger.Attempt(3).Value.Int64())
	assert.Equal(t, 30*time.Second, logger.Delay(30*time.Second).Value.Duration())
	assert.Equal(t, "pending", logger.Status("pending").Value.String())
}
