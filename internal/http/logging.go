package http

import (
	"log/slog"
	"net/http"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger scopes the request logger, or fallback when the request
// carries none, to one handler operation and its matched route pattern.
func handlerLogger(r *http.Request, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(r.Context())
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	pairs := []any{"handler", handlerName, "operation", operation}
	if r.Pattern != "" {
		pairs = append(pairs, "route", r.Pattern)
	}
	return logger.With(append(pairs, attrs...)...)
}
