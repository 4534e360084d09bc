// Package logging provides structured logging for weft built on log/slog.
// Engine components receive a Logger and report recovery paths (descriptor
// degradation, fetch failures, circular references) without ever aborting a
// build themselves.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LogLevel represents different log levels.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a LogLevel, defaulting to info.
func ParseLevel(name string) LogLevel {
	switch name {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is the structured logging interface used across the engine.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...interface{})
	Info(ctx context.Context, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
	Error(ctx context.Context, err error, msg string, fields ...interface{})

	With(fields ...interface{}) Logger
	WithComponent(component string) Logger
}

// WeftLogger implements Logger over an slog handler.
type WeftLogger struct {
	logger *slog.Logger
	level  LogLevel
}

// Config holds logger configuration.
type Config struct {
	Level  LogLevel
	Format string // "json" or "text"
	Output io.Writer
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Format: "text",
		Output: os.Stderr,
	}
}

// NewLogger creates a new structured logger.
func NewLogger(config *Config) *WeftLogger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Output == nil {
		config.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: slogLevel(config.Level)}

	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(config.Output, opts)
	} else {
		handler = slog.NewTextHandler(config.Output, opts)
	}

	return &WeftLogger{
		logger: slog.New(handler),
		level:  config.Level,
	}
}

// NewNop returns a logger that discards everything. Used by tests and as the
// fallback when a component is constructed without a logger.
func NewNop() *WeftLogger {
	return NewLogger(&Config{Level: LevelError, Format: "text", Output: io.Discard})
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs a debug message.
func (l *WeftLogger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	l.logger.DebugContext(ctx, msg, fields...)
}

// Info logs an informational message.
func (l *WeftLogger) Info(ctx context.Context, msg string, fields ...interface{}) {
	l.logger.InfoContext(ctx, msg, fields...)
}

// Warn logs a warning with an optional causing error.
func (l *WeftLogger) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {
	l.logger.WarnContext(ctx, msg, withError(err, fields)...)
}

// Error logs an error.
func (l *WeftLogger) Error(ctx context.Context, err error, msg string, fields ...interface{}) {
	l.logger.ErrorContext(ctx, msg, withError(err, fields)...)
}

// With returns a child logger carrying additional fields.
func (l *WeftLogger) With(fields ...interface{}) Logger {
	return &WeftLogger{logger: l.logger.With(fields...), level: l.level}
}

// WithComponent returns a child logger scoped to an engine component.
func (l *WeftLogger) WithComponent(component string) Logger {
	return l.With("component", component)
}

func withError(err error, fields []interface{}) []interface{} {
	if err == nil {
		return fields
	}

	return append(fields, "error", err.Error())
}
