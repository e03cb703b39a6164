package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

// LoggerContextKey is the context key for the request-scoped logger
const LoggerContextKey ContextKey = "logger"

// NewContext returns ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts the request-scoped logger, or a logger over the
// slog default when ctx carries none.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
		base:      slog.Default().Handler(),
	}
}

// AccessLogger writes one line per completed HTTP request.
type AccessLogger struct {
	logger *Logger
}

func NewAccessLogger(logger *Logger) *AccessLogger {
	return &AccessLogger{logger: OrDiscard(logger)}
}

// LogHTTPEnd logs at warn for 4xx and error for 5xx responses.
func (a *AccessLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP)

	a.logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}
