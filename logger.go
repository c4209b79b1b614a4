package worldmodel

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/worldmodel/model"
)

// Logger wraps slog.Logger with world-model specific helpers.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithEntity adds an entity id field to the logger.
func (l *Logger) WithEntity(id model.EntityID) *Logger {
	return &Logger{
		Logger: l.Logger.With("entity", uint64(id)),
	}
}

// LogInsert logs an entity or factor insertion.
func (l *Logger) LogInsert(ctx context.Context, kind string, id uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"kind", kind,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "insert completed",
		"kind", kind,
		"id", id,
	)
}

// LogUnload logs the outcome of unloading one entity.
func (l *Logger) LogUnload(ctx context.Context, id model.EntityID, bytes int64, err error) {
	if err != nil {
		l.WarnContext(ctx, "unload failed, entity stays resident",
			"entity", uint64(id),
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "entity unloaded",
		"entity", uint64(id),
		"bytes", bytes,
	)
}

// LogSweep logs an eviction sweep.
func (l *Logger) LogSweep(ctx context.Context, r SweepReport, err error) {
	if err != nil {
		l.WarnContext(ctx, "sweep completed with failures",
			"expired", r.Expired,
			"unloaded", r.Unloaded,
			"failed", r.Failed,
			"error", err,
		)
		return
	}
	if r.Expired == 0 {
		return
	}
	l.InfoContext(ctx, "sweep completed",
		"expired", r.Expired,
		"unloaded", r.Unloaded,
		"skipped", r.Skipped,
		"bytes", r.BytesWritten,
		"duration", r.Duration,
	)
}

// LogSnapshot logs a snapshot save or open.
func (l *Logger) LogSnapshot(ctx context.Context, op, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"op", op,
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot completed",
		"op", op,
		"name", name,
	)
}
