// Package logging is a small leveled logger on top of the standard log
// package. A nil *Logger discards everything.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level orders message severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config value to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger writes "[LEVEL] message" lines.
type Logger struct {
	logger *log.Logger
	level  Level
	file   *os.File
}

// New returns a logger writing to w.
func New(w io.Writer, level Level) *Logger {
	return &Logger{logger: log.New(w, "", log.LstdFlags), level: level}
}

// Open returns a logger appending to path, or writing to stderr when path
// is empty.
func Open(path string, level Level) (*Logger, error) {
	if path == "" {
		return New(os.Stderr, level), nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l := New(file, level)
	l.file = file
	return l, nil
}

// Nop returns a logger that discards all output.
func Nop() *Logger {
	return New(io.Discard, LevelError+1)
}

func (l *Logger) printf(level Level, tag, format string, args ...any) {
	if l == nil || level < l.level {
		return
	}
	l.logger.Printf("["+tag+"] "+format, args...)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) { l.printf(LevelDebug, "DEBUG", format, args...) }

// Info logs an info message.
func (l *Logger) Info(format string, args ...any) { l.printf(LevelInfo, "INFO", format, args...) }

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...any) { l.printf(LevelWarn, "WARN", format, args...) }

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) { l.printf(LevelError, "ERROR", format, args...) }

// Close closes the underlying file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
