package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// handlerLogger resolves the logger for a request, preferring the one the
// request middleware stored in the context over the handler's fallback, and
// scopes it with handler and operation attributes.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	pairs := make([]any, 0, 4+len(attrs))
	pairs = append(pairs, "handler", handlerName)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	pairs = append(pairs, attrs...)
	return logger.With(pairs...)
}
