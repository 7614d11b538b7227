package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	loggerKey contextKey = "logger"
)

// WithRunID tags the context with the id of the current monitor run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID returns the run id stored in ctx, if any.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// WithLogger adds logger to context
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or the global logger
// decorated with the context's run id.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}

	// direct calls on the returned logger bypass the package wrappers
	l := Logger.WithOptions(zap.AddCallerSkip(-1))
	if id := RunID(ctx); id != "" {
		l = l.With(zap.String("run_id", id))
	}
	return l
}

// WithChannel creates a logger tagged with a notification channel name.
func WithChannel(l *zap.Logger, channel string) *zap.Logger {
	if l == nil {
		l = Logger
	}
	return l.With(zap.String("channel", channel))
}

// AttemptField returns a zap field for the scan attempt counter
func AttemptField(attempt int) zap.Field {
	return zap.Int("attempt", attempt)
}
