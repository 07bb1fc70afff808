package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Level is a zerolog level.
type Level = zerolog.Level

const (
	LevelDebug = zerolog.DebugLevel
	LevelInfo  = zerolog.InfoLevel
	LevelWarn  = zerolog.WarnLevel
	LevelError = zerolog.ErrorLevel
)

// Fields are structured key/value pairs attached to a log line.
type Fields map[string]interface{}

// Logger wraps a zerolog.Logger so callers can log with a Fields map.
type Logger struct {
	Z zerolog.Logger
}

var (
	stdMu sync.RWMutex
	std   = NewConsole(os.Stdout, LevelInfo)
)

// New builds a logger writing to out. format is "json" or "console".
func New(out io.Writer, level, format string) *Logger {
	lvl := ParseLevel(level)
	if strings.EqualFold(format, "json") {
		return &Logger{Z: zerolog.New(out).With().Timestamp().Logger().Level(lvl)}
	}
	return NewConsole(out, lvl)
}

// NewConsole creates a ConsoleWriter-backed logger.
func NewConsole(out io.Writer, level Level) *Logger {
	cw := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05", NoColor: out != os.Stdout}
	return &Logger{Z: zerolog.New(cw).With().Timestamp().Logger().Level(level)}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{Z: zerolog.Nop()}
}

// ParseLevel falls back to info for unknown names.
func ParseLevel(level string) Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return LevelInfo
	}
	return lvl
}

// SetStd replaces the package logger used by the wrapper functions.
func SetStd(l *Logger) {
	stdMu.Lock()
	defer stdMu.Unlock()
	if l == nil {
		l = NewNop()
	}
	std = l
}

// Std returns the package logger.
func Std() *Logger {
	stdMu.RLock()
	defer stdMu.RUnlock()
	return std
}

// With returns a child logger carrying f on every entry.
func (l *Logger) With(f Fields) *Logger {
	return &Logger{Z: l.Z.With().Fields(map[string]interface{}(f)).Logger()}
}

// Writer exposes the logger as an io.Writer for components that only take one.
func (l *Logger) Writer() io.Writer {
	return l.Z
}

func (l *Logger) Info(msg string, f Fields) {
	emit(l.Z.Info(), msg, f)
}

func (l *Logger) Debug(msg string, f Fields) {
	emit(l.Z.Debug(), msg, f)
}

func (l *Logger) Warn(msg string, f Fields) {
	emit(l.Z.Warn(), msg, f)
}

func (l *Logger) Error(msg string, f Fields) {
	emit(l.Z.Error(), msg, f)
}

func Info(msg string, f Fields)  { Std().Info(msg, f) }
func Debug(msg string, f Fields) { Std().Debug(msg, f) }
func Warn(msg string, f Fields)  { Std().Warn(msg, f) }
func Error(msg string, f Fields) { Std().Error(msg, f) }

func emit(e *zerolog.Event, msg string, f Fields) {
	if f != nil {
		e = e.Fields(map[string]interface{}(f))
	}
	e.Msg(msg)
}
