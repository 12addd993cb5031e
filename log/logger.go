package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// LogLevel orders messages by severity. Messages below the configured level
// are dropped.
type LogLevel int

const (
	// LogLevelDebug traces each round of a turn.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo reports turn and session lifecycle.
	LogLevelInfo
	// LogLevelWarn reports recovered failures such as retried model calls.
	LogLevelWarn
	// LogLevelError reports failures that end a turn.
	LogLevelError
	// LogLevelNone silences the logger.
	LogLevelNone
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "NONE"}

// Logger is the leveled, printf-style logging interface used across ragagent.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

func (l LogLevel) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel converts a level name from configuration ("debug", "warning", ...)
// into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	case "none", "off", "disable", "disabled":
		return LogLevelNone, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// NoOpLogger discards everything. Tests and embedders that bring their own
// logging use it.
type NoOpLogger struct{}

func (*NoOpLogger) Debug(string, ...any) {}
func (*NoOpLogger) Info(string, ...any)  {}
func (*NoOpLogger) Warn(string, ...any)  {}
func (*NoOpLogger) Error(string, ...any) {}

var (
	defaultMu     sync.RWMutex
	current Logger = NewLogger(os.Stderr, LogLevelInfo)
)

// NewLogger creates a golog-backed logger writing to out at the given level.
func NewLogger(out io.Writer, level LogLevel) *GologLogger {
	l := NewGologLogger(newGolog(out))
	l.SetLevel(level)
	return l
}

// SetDefaultLogger sets the package-level logger used by components that were
// not given one explicitly.
func SetDefaultLogger(logger Logger) {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	defaultMu.Lock()
	current = logger
	defaultMu.Unlock()
}

// GetDefaultLogger returns the logger installed by SetDefaultLogger.
func GetDefaultLogger() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return current
}

// SetLogLevel replaces the package-level logger with a stderr logger at level.
func SetLogLevel(level LogLevel) {
	SetDefaultLogger(NewLogger(os.Stderr, level))
}

// Package-level shortcuts for the default logger.

func Debug(format string, v ...any) { GetDefaultLogger().Debug(format, v...) }
func Info(format string, v ...any)  { GetDefaultLogger().Info(format, v...) }
func Warn(format string, v ...any)  { GetDefaultLogger().Warn(format, v...) }
func Error(format string, v ...any) { GetDefaultLogger().Error(format, v...) }
