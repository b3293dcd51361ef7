// Package logger provides structured logging for gradfetch.
//
// All packages log through the package-level functions so the CLI can
// configure level and format once, and library callers can hand in their
// own *slog.Logger.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
}

// Options configures the logger.
type Options struct {
	Debug  bool         // Enable debug level logging
	Quiet  bool         // Only show errors; wins over Debug
	Level  string       // Explicit level name; overrides Debug (not Quiet)
	JSON   bool         // Output as JSON
	Output io.Writer    // Output destination (default: stderr)
	Logger *slog.Logger // Custom logger (overrides all other options)
}

// Init initializes the logger with the specified options.
func Init(opts Options) error {
	if opts.Logger != nil {
		current.Store(opts.Logger)
		return nil
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	if opts.Level != "" {
		l, err := ParseLevel(opts.Level)
		if err != nil {
			return err
		}
		level = l
	}
	if opts.Quiet {
		level = slog.LevelError
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(output, handlerOpts)
	}

	current.Store(slog.New(handler))
	return nil
}

// ParseLevel converts debug, info, warn or error into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// SetLogger sets a custom slog.Logger to be used by gradfetch.
func SetLogger(l *slog.Logger) {
	current.Store(l)
}

// Get returns the current logger.
func Get() *slog.Logger {
	return current.Load()
}

// Component returns a logger tagged with the component name.
func Component(name string) *slog.Logger {
	return Get().With("component", name)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return Get().With(args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) { Get().Debug(msg, args...) }

// Info logs an info message.
func Info(msg string, args ...any) { Get().Info(msg, args...) }

// Warn logs a warning message.
func Warn(msg string, args ...any) { Get().Warn(msg, args...) }

// Error logs an error message.
func Error(msg string, args ...any) { Get().Error(msg, args...) }

// DebugContext logs a debug message with context.
func DebugContext(ctx context.Context, msg string, args ...any) {
	Get().DebugContext(ctx, msg, args...)
}

// InfoContext logs an info message with context.
func InfoContext(ctx context.Context, msg string, args ...any) {
	Get().InfoContext(ctx, msg, args...)
}

// WarnContext logs a warning message with context.
func WarnContext(ctx context.Context, msg string, args ...any) {
	Get().WarnContext(ctx, msg, args...)
}

// ErrorContext logs an error message with context.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	Get().ErrorContext(ctx, msg, args...)
}
