// Package trace tags every request with an ID, attaches a request-scoped
// logger and records request logs and metrics.
package trace

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"playdash/internal/log"
	"playdash/internal/observability"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"
	// HeaderRequestID carries the request ID in and out.
	HeaderRequestID = "X-Request-ID"
)

// Middleware handles request tracing and logging
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *log.Logger
	access    *log.AccessLogger
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(extractIP func(*http.Request) string, logger *log.Logger) *Middleware {
	logger = log.OrDiscard(logger).WithComponent(log.ComponentHTTP)
	return &Middleware{
		extractIP: extractIP,
		logger:    logger,
		access:    log.NewAccessLogger(logger),
	}
}

// Middleware returns HTTP middleware for request tracing
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := requestIDFrom(r)
		w.Header().Set(HeaderRequestID, requestID)

		reqLogger := m.logger.With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = log.NewContext(ctx, reqLogger)
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		observability.RecordHTTPRequest(r.Method, r.Pattern, rw.statusCode, duration)
		m.access.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	})
}

// requestIDFrom honors a well-formed incoming ID and generates one otherwise.
func requestIDFrom(r *http.Request) string {
	if id := r.Header.Get(HeaderRequestID); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	return GenerateRequestID()
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return uuid.NewString()
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
