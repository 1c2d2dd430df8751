package logger

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("debug %d", 1)
	l.Info("info %s", "msg")
	l.Warn("warn")
	l.Error("error")

	require.Len(t, l.Messages, 4)
	assert.Equal(t, "debug 1", l.Messages[0].Message)
	assert.Equal(t, "info msg", l.Messages[1].Message)
	assert.True(t, l.HasLevel("warn"))
	assert.True(t, l.HasLevel("error"))
	assert.False(t, l.HasLevel("fatal"))

	l.Clear()
	assert.Empty(t, l.Messages)
}

func TestNoopLogger(t *testing.T) {
	l := Noop()

	// Should not panic and produce no observable output
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodetop.log")

	l, err := NewFileLogger(path)
	require.NoError(t, err)

	l.Info("started %s", "dashboard")
	l.Warn("rpc reconnect")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "started dashboard")
	assert.Contains(t, string(data), "rpc reconnect")
}

func TestEnvLogger(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	t.Setenv("NODETOP_DEBUG", "")
	l := NewEnvLogger("[status]")
	l.Debug("hidden")
	l.Info("shown %d", 1)
	l.Warn("careful")
	l.Error("broken")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[status] shown 1")
	assert.Contains(t, out, "[status] WARN: careful")
	assert.Contains(t, out, "[status] ERROR: broken")

	t.Setenv("NODETOP_DEBUG", "1")
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "[status] now visible")
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	buf := NewBufferLogger()
	SetDefault(buf)

	Default().Info("hello")
	assert.True(t, buf.HasLevel("info"))
}
