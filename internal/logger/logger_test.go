package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNew(t *testing.T) {
	log, err := New(Config{Level: "debug", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)

	child := log.With(String("signal_id", "sig_001"))
	child.Info("processing", Int("entities", 2), Error(errors.New("boom")))
	assert.NotNil(t, child)
}

func TestNop(t *testing.T) {
	log := NewNop()
	log.Error("ignored", String("k", "v"))
	assert.Same(t, log, log.With(Bool("b", true)))
	assert.NoError(t, log.Sync())
}
