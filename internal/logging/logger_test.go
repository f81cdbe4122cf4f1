package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		l, err := New(mode, "debug")
		require.NoError(t, err, mode)
		require.NotNil(t, l.SugaredLogger)
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("dev", "loud")
	assert.Error(t, err)
}

func TestRedaction(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Wrap(zap.New(core))

	l.Info("provider configured",
		"api_key", "sk-live",
		"access_token", "abc",
		"input_tokens", 42,
		"model", "llama-3.3-70b-versatile",
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["api_key"])
	assert.Equal(t, "[REDACTED]", fields["access_token"])
	assert.EqualValues(t, 42, fields["input_tokens"])
	assert.Equal(t, "llama-3.3-70b-versatile", fields["model"])
}

func TestWith_CarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Wrap(zap.New(core)).With("stage", "generate")
	l.Debug("start")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "generate", logs.All()[0].ContextMap()["stage"])
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("ignored", "k", "v")
	l.Sync()
}
