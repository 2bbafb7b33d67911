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

// handlerLogger resolves the logger for one request: the request-scoped
// logger when the middleware attached one, the handler's own otherwise,
// tagged with the handler name and operation.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	tags := make([]any, 0, 4+len(attrs))
	tags = append(tags, "handler", handlerName)
	if operation != "" {
		tags = append(tags, "operation", operation)
	}
	tags = append(tags, attrs...)
	return logger.With(tags...)
}
