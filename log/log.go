// Package log provides structured logging for the dvrpc-node gateway. It
// wraps Go's log/slog with gateway-specific conveniences such as
// per-component child loggers and optional file rotation.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps slog.Logger with gateway-specific context.
type Logger struct {
	inner *slog.Logger
}

var defaultLogger = New(Config{Level: "info", Format: "pretty"})

// Config controls how New builds a Logger, mirroring the gateway's
// [logging] TOML section.
type Config struct {
	// Level is one of debug, info, warn, error (case-insensitive).
	Level string
	// Format selects the slog handler: "json" for machine-readable
	// output, anything else for slog's default text handler.
	Format string
	// File, when set, also writes logs to a rotating file via
	// lumberjack instead of stderr alone.
	File string
}

func levelFromString(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a Logger per cfg. An empty cfg.File logs to stderr only.
func New(cfg Config) *Logger {
	var w io.Writer = os.Stderr
	if cfg.File != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		})
	}

	opts := &slog.HandlerOptions{Level: levelFromString(cfg.Level)}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{inner: slog.New(handler)}
}

// NewWithHandler builds a Logger backed by an arbitrary slog.Handler,
// useful for tests that want to capture output.
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{inner: slog.New(h)}
}

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the current package-level default logger.
func Default() *Logger {
	return defaultLogger
}

// Component returns a child logger tagged with the given component name
// (e.g. "consensus", "upstream", "rpc").
func (l *Logger) Component(name string) *Logger {
	return &Logger{inner: l.inner.With("component", name)}
}

// With returns a child logger with additional key-value context.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.inner.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.inner.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }
func Info(msg string, args ...any)  { defaultLogger.Info(msg, args...) }
func Warn(msg string, args ...any)  { defaultLogger.Warn(msg, args...) }
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }
