package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	l, err := New(Config{Level: "WARN", Encoding: "json", Service: "powerlink"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.ErrorContains(t, err, `invalid level "loud"`)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_ENCODING", "")

	cfg := FromEnv("powerlink")
	assert.False(t, cfg.Development)
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "powerlink", cfg.Service)
}

func TestLevelColor(t *testing.T) {
	assert.Equal(t, colorCyan, levelColor(zapcore.DebugLevel))
	assert.Equal(t, colorGreen, levelColor(zapcore.InfoLevel))
	assert.Equal(t, colorRed, levelColor(zapcore.ErrorLevel))
	assert.Equal(t, colorMagenta, levelColor(zapcore.PanicLevel))
	assert.Equal(t, colorRed, levelColor(zapcore.FatalLevel))
}
