package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)

	log := Logger("test/output")
	log.Info("test message", "key", "value")

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.Contains(t, output, "key=value")
	assert.Contains(t, output, "subsystem=test/output")
}

func TestSetOutput_ExistingLogger(t *testing.T) {
	log := Logger("test/existing")

	// 切换输出后，已存在的 logger 也写入新目标
	buf := &bytes.Buffer{}
	SetOutput(buf)

	log.Info("after switch")
	assert.Contains(t, buf.String(), "after switch")
}

func TestLogger_Cached(t *testing.T) {
	assert.Same(t, Logger("test/cached"), Logger("test/cached"))
}

func TestSetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)

	log := Logger("test/level")
	SetLevel("test/level", slog.LevelWarn)

	log.Info("hidden")
	assert.NotContains(t, buf.String(), "hidden")

	SetLevel("test/level", slog.LevelDebug)
	log.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "level=debug")
}

func TestParseConfig(t *testing.T) {
	env := map[string]string{
		EnvLogLevel:     "core/peerindex=debug, core/acceptor=warn ,error,bogus=nope",
		EnvLogFormat:    "JSON",
		EnvLogAddSource: "1",
	}
	cfg := parseConfig(func(k string) string { return env[k] })

	require.NotNil(t, cfg)
	assert.Equal(t, slog.LevelError, cfg.DefaultLevel)
	assert.Equal(t, slog.LevelDebug, cfg.LevelForSubsystem("core/peerindex"))
	assert.Equal(t, slog.LevelWarn, cfg.LevelForSubsystem("core/acceptor"))
	assert.Equal(t, slog.LevelError, cfg.LevelForSubsystem("other"))
	assert.NotContains(t, cfg.SubsystemLevels, "bogus")
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.True(t, cfg.AddSource)
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg := parseConfig(func(string) string { return "" })
	assert.Equal(t, slog.LevelInfo, cfg.DefaultLevel)
	assert.Equal(t, FormatText, cfg.Format)
	assert.False(t, cfg.AddSource)
}

func TestDiscard(t *testing.T) {
	log := Discard()
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
