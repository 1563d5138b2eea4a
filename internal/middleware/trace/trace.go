// Package trace logs request start and completion through the request-scoped
// logger, attaching one when log.Middleware has not. Request IDs come from
// chi's RequestID middleware, which must run first.
package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"coinjar/internal/log"
)

// Middleware handles request tracing and logging
type Middleware struct {
	logger    *log.Logger
	extractIP func(*http.Request) string
	metrics   *Metrics
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests    int64
	LastResponseTime int64 // in microseconds
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	return &Middleware{
		logger:    logger,
		extractIP: extractIP,
		metrics:   &Metrics{},
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
		reqLogger, ok := r.Context().Value(log.LoggerContextKey).(*log.Logger)
		if !ok {
			reqLogger = m.logger.With(log.FieldRequestID, GetRequestID(r.Context()))
			r = r.WithContext(context.WithValue(r.Context(), log.LoggerContextKey, reqLogger))
		}
		ctx := r.Context()
		events := log.NewStructuredLogger(reqLogger)

		events.LogHTTPStart(ctx, r, clientIP)
		atomic.AddInt64(&m.metrics.TotalRequests, 1)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		atomic.StoreInt64(&m.metrics.LastResponseTime, duration.Microseconds())
		events.LogHTTPEnd(ctx, r, status, duration.Milliseconds(), clientIP)
	})
}

// GetRequestID extracts the request ID set by chi's RequestID middleware.
func GetRequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:    atomic.LoadInt64(&m.metrics.TotalRequests),
		LastResponseTime: atomic.LoadInt64(&m.metrics.LastResponseTime),
	}
}
