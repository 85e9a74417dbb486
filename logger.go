package dbow

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with dbow-specific context.
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
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// With returns a Logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// LogCreate logs a vocabulary build.
func (l *Logger) LogCreate(ctx context.Context, k, levels, words int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "vocabulary creation failed",
			"k", k,
			"levels", levels,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "vocabulary created",
		"k", k,
		"levels", levels,
		"words", words,
		"elapsed", elapsed,
	)
}

// LogAdd logs a document insertion.
func (l *Logger) LogAdd(ctx context.Context, id uint32, words int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed",
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "document added",
		"id", id,
		"words", words,
	)
}

// LogBatchAdd logs a batch insertion.
func (l *Logger) LogBatchAdd(ctx context.Context, count int, err error) {
	if err != nil {
		l.WarnContext(ctx, "batch add aborted",
			"total", count,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "batch add completed",
		"count", count,
	)
}

// LogQuery logs a database query.
func (l *Logger) LogQuery(ctx context.Context, topK, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"top_k", topK,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "query completed",
		"top_k", topK,
		"results", resultsFound,
	)
}

// LogSave logs a save operation.
func (l *Logger) LogSave(ctx context.Context, kind, target string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"kind", kind,
			"target", target,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "saved",
		"kind", kind,
		"target", target,
		"bytes", size,
	)
}

// LogLoad logs a load operation.
func (l *Logger) LogLoad(ctx context.Context, kind, source string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"kind", kind,
			"source", source,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "loaded",
		"kind", kind,
		"source", source,
	)
}
