package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

const (
	// LoggerContextKey is the context key for storing the request-scoped logger
	LoggerContextKey contextKey = "logger"
)

// WithRequestLogger stores a logger on the request context that carries the
// request id, client IP, cart id and user. Place it after RequestID,
// WithClientIP, CartSession and WithUser so those values are known.
func WithRequestLogger(baseLogger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			}
			for _, field := range [...]struct{ key, value string }{
				{"request_id", GetRequestID(ctx)},
				{"client_ip", GetClientIPFromContext(ctx)},
				{"cart_id", GetCartID(ctx)},
			} {
				if field.value != "" {
					attrs = append(attrs, slog.String(field.key, field.value))
				}
			}
			if user := GetUserFromContext(ctx); user != nil {
				attrs = append(attrs, slog.String("user_id", user.ID), slog.String("role", string(user.Role)))
			}

			next.ServeHTTP(w, r.WithContext(WithLogger(ctx, baseLogger.With(attrs...))))
		})
	}
}

// WithLogger stores logger on ctx for GetLogger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// GetLogger retrieves the request-scoped logger from the context, else the
// first non-nil fallback, else slog.Default().
func GetLogger(ctx context.Context, fallback ...*slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*slog.Logger); ok {
		return logger
	}
	if len(fallback) > 0 && fallback[0] != nil {
		return fallback[0]
	}
	return slog.Default()
}
