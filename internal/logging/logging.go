// Package logging provides a leveled logfmt logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	levelNone
)

type levelSpec struct {
	name   string
	allow  func() level.Option
	prefix func(log.Logger) log.Logger
}

var levels = [...]levelSpec{
	LevelDebug: {"DEBUG", level.AllowDebug, level.Debug},
	LevelInfo:  {"INFO", level.AllowInfo, level.Info},
	LevelWarn:  {"WARN", level.AllowWarn, level.Warn},
	LevelError: {"ERROR", level.AllowError, level.Error},
}

func (l Level) valid() bool { return l >= LevelDebug && l < levelNone }

func (l Level) String() string {
	if !l.valid() {
		return "UNKNOWN"
	}
	return levels[l].name
}

// ParseLevel parses a level name, case-insensitively. "warning" is accepted
// for warn; anything unknown is info.
func ParseLevel(s string) Level {
	s = strings.ToUpper(s)
	if s == "WARNING" {
		return LevelWarn
	}
	for lvl, spec := range levels {
		if spec.name == s {
			return Level(lvl)
		}
	}
	return LevelInfo
}

func (l Level) filter() level.Option {
	if !l.valid() {
		return level.AllowNone()
	}
	return levels[l].allow()
}

// Logger writes logfmt lines through go-kit/log. Messages are printf-style
// and land in the msg key; extra context is attached with With.
type Logger struct {
	mu      sync.Mutex
	level   Level
	base    log.Logger
	context []interface{}
	logger  log.Logger
}

// New creates a new logger writing to stderr.
func New(lvl Level) *Logger {
	l := &Logger{level: lvl}
	l.SetOutput(os.Stderr)
	return l
}

// SetOutput sets the log output destination.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	base := log.NewLogfmtLogger(log.NewSyncWriter(w))
	l.base = log.With(base, "ts", log.DefaultTimestampUTC)
	l.rebuild()
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(lvl Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = lvl
	l.rebuild()
}

func (l *Logger) rebuild() {
	logger := l.base
	if len(l.context) > 0 {
		logger = log.With(logger, l.context...)
	}
	l.logger = level.NewFilter(logger, l.level.filter())
}

// With returns a child logger that adds keyvals to every line.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	child := &Logger{
		level:   l.level,
		base:    l.base,
		context: append(append([]interface{}{}, l.context...), keyvals...),
	}
	child.rebuild()
	return child
}

// Kit returns the underlying go-kit logger, filtered at the current level.
func (l *Logger) Kit() log.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logger
}

func (l *Logger) log(lvl Level, format string, args ...interface{}) {
	_ = levels[lvl].prefix(l.Kit()).Log("msg", fmt.Sprintf(format, args...))
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Discard returns a logger that discards all output.
func Discard() *Logger {
	l := &Logger{level: levelNone, base: log.NewNopLogger()}
	l.rebuild()
	return l
}
