// Package logging moves a request scoped *slog.Logger through context so the
// HTTP layer and the services underneath it log with the same request
// attributes.
package logging

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// ContextWithLogger attaches logger to the context. A nil context or a nil
// logger leaves the context as it was.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored by ContextWithLogger, or nil when the
// context carries none. Callers decide their own fallback.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return nil
}
