package http

import (
	"context"
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/example/campus-reservation/internal/logging"
)

type contextKey string

const (
	userIDContextKey  contextKey = "user_id"
	printerContextKey contextKey = "printer"
)

// ContextWithUserID returns a derived context carrying the acting user's identifier.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext extracts the acting user's identifier resolved by RequireIdentity.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok && id != ""
}

// ContextWithLogger attaches a request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

func contextWithPrinter(ctx context.Context, printer *message.Printer) context.Context {
	return context.WithValue(ctx, printerContextKey, printer)
}

// printerFromContext returns the printer chosen by Localize, falling back to English.
func printerFromContext(ctx context.Context) *message.Printer {
	if ctx != nil {
		if p, ok := ctx.Value(printerContextKey).(*message.Printer); ok && p != nil {
			return p
		}
	}
	return newPrinter(language.English)
}
