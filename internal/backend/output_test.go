package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLineLoggerSplitsAndClassifies(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := newLineLogger(zap.New(core).Sugar(), "stderr")

	n, err := l.Write([]byte("Running on http://127.0.0.1:5001\nTrace"))
	require.NoError(t, err)
	assert.Equal(t, 38, n)
	_, _ = l.Write([]byte("back (most recent call last):\r\n"))
	_, _ = l.Write([]byte("partial"))
	l.Flush()

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "Running on http://127.0.0.1:5001", entries[0].ContextMap()["line"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "Traceback (most recent call last):", entries[1].ContextMap()["line"])
	assert.Equal(t, "partial", entries[2].ContextMap()["line"])
}
