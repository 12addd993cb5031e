package log

import (
	"io"

	"github.com/kataras/golog"
)

// gologLevels maps a LogLevel to the level name golog understands.
var gologLevels = map[LogLevel]string{
	LogLevelDebug: "debug",
	LogLevelInfo:  "info",
	LogLevelWarn:  "warn",
	LogLevelError: "error",
	LogLevelNone:  "disable",
}

// GologLogger is the default Logger, printing through kataras/golog.
type GologLogger struct {
	logger *golog.Logger
	level  LogLevel
}

var _ Logger = (*GologLogger)(nil)

func newGolog(out io.Writer) *golog.Logger {
	g := golog.New()
	g.SetOutput(out)
	g.SetPrefix("[ragagent] ")
	return g
}

// NewGologLogger wraps g at info level.
func NewGologLogger(g *golog.Logger) *GologLogger {
	l := &GologLogger{logger: g}
	l.SetLevel(LogLevelInfo)
	return l
}

func (l *GologLogger) enabled(level LogLevel) bool {
	return l.level != LogLevelNone && l.level <= level
}

func (l *GologLogger) Debug(format string, v ...any) {
	if l.enabled(LogLevelDebug) {
		l.logger.Debugf(format, v...)
	}
}

func (l *GologLogger) Info(format string, v ...any) {
	if l.enabled(LogLevelInfo) {
		l.logger.Infof(format, v...)
	}
}

func (l *GologLogger) Warn(format string, v ...any) {
	if l.enabled(LogLevelWarn) {
		l.logger.Warnf(format, v...)
	}
}

func (l *GologLogger) Error(format string, v ...any) {
	if l.enabled(LogLevelError) {
		l.logger.Errorf(format, v...)
	}
}

// SetLevel changes the threshold of the wrapper and of the golog logger.
func (l *GologLogger) SetLevel(level LogLevel) {
	name, ok := gologLevels[level]
	if !ok {
		name = "info"
		level = LogLevelInfo
	}
	l.level = level
	l.logger.SetLevel(name)
}

// GetLevel returns the current threshold.
func (l *GologLogger) GetLevel() LogLevel {
	return l.level
}

// Golog exposes the underlying golog logger so callers can tune its output
// (time format, extra writers) beyond what Logger offers.
func (l *GologLogger) Golog() *golog.Logger {
	return l.logger
}
