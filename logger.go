package visearch

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with visearch-specific context.
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
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogAdd logs an add operation. Failures here are caller faults
// (bad dimension, empty id), so they log at Warn rather than Error.
func (l *Logger) LogAdd(ctx context.Context, productID string, dimension int, err error) {
	if err != nil {
		l.WarnContext(ctx, "add failed",
			"product_id", productID,
			"dimension", dimension,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add completed",
			"product_id", productID,
			"dimension", dimension,
		)
	}
}

// LogSearch logs a search operation. Failures here are caller faults
// (invalid top_k or threshold, bad query dimension), so they log at Warn
// rather than Error.
func (l *Logger) LogSearch(ctx context.Context, topK int, threshold float64, matches int, err error) {
	if err != nil {
		l.WarnContext(ctx, "search failed",
			"top_k", topK,
			"threshold", threshold,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"top_k", topK,
			"threshold", threshold,
			"matches", matches,
		)
	}
}

// LogSave logs a snapshot save operation.
func (l *Logger) LogSave(ctx context.Context, version uint64, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot save failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"version", version,
			"count", count,
		)
	}
}

// LogLoad logs a snapshot load operation.
func (l *Logger) LogLoad(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot load failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot loaded",
			"count", count,
		)
	}
}
