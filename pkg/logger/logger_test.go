package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit_Modes(t *testing.T) {
	for _, mode := range []string{"debug", "release", "test"} {
		require.NoError(t, Init(mode), mode)
		assert.NotNil(t, L())
	}
}

func TestPackageLevelHelpers(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Set(zap.New(core))
	defer Set(zap.NewNop())

	Info("upload stored", zap.String("filename", "a.jpg"))
	Warn("rate limited", zap.String("client", "1.2.3.4"))
	Error("encode failed")
	Debug("noop")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "upload stored", entries[0].Message)
	assert.Equal(t, "a.jpg", entries[0].ContextMap()["filename"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
}
