package uvio

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with uvio-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogInitialize logs container creation.
func (l *Logger) LogInitialize(ctx context.Context, path string, nblts, nfreqs, npols int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "initialize failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "container initialized",
			"path", path,
			"nblts", nblts,
			"nfreqs", nfreqs,
			"npols", npols,
		)
	}
}

// LogWritePart logs a partial write.
func (l *Logger) LogWritePart(ctx context.Context, path string, nblts, nfreqs, npols int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "partial write failed",
			"path", path,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "partial write completed",
			"path", path,
			"nblts", nblts,
			"nfreqs", nfreqs,
			"npols", npols,
		)
	}
}

// LogRead logs a container read.
func (l *Logger) LogRead(ctx context.Context, path string, metaOnly bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "read failed",
			"path", path,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "read completed",
			"path", path,
			"metadata_only", metaOnly,
		)
	}
}

// LogWarning logs a non-fatal finding.
func (l *Logger) LogWarning(ctx context.Context, w Warning) {
	l.WarnContext(ctx, w.Message, "category", string(w.Category))
}
