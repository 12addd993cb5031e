package log

import (
	"bytes"
	"testing"

	"github.com/kataras/golog"
	"github.com/stretchr/testify/assert"
)

func TestNewGologLogger(t *testing.T) {
	g := golog.New()
	logger := NewGologLogger(g)

	assert.Same(t, g, logger.Golog())
	assert.Equal(t, LogLevelInfo, logger.GetLevel())
}

func TestGologLogger_LevelControl(t *testing.T) {
	logger := NewGologLogger(golog.New())

	logger.SetLevel(LogLevelDebug)
	assert.Equal(t, LogLevelDebug, logger.GetLevel())

	logger.SetLevel(LogLevelError)
	assert.Equal(t, LogLevelError, logger.GetLevel())

	logger.SetLevel(LogLevelNone)
	assert.Equal(t, LogLevelNone, logger.GetLevel())
}

func TestNewLogger_WritesFormattedMessages(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogLevelDebug)

	logger.Debug("round %d for session %s", 2, "s1")
	logger.Error("store failure: %v", "boom")

	out := buf.String()
	assert.Contains(t, out, "round 2 for session s1")
	assert.Contains(t, out, "store failure: boom")
	assert.Contains(t, out, "[ragagent]")
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogLevelWarn)

	logger.Debug("hidden debug")
	logger.Info("hidden info")
	logger.Warn("visible warn")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible warn")
}

func TestNewLogger_None(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogLevelNone)

	logger.Error("nothing")
	assert.Empty(t, buf.String())
}
