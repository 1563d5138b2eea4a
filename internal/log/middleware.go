package log

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"
)

// ContextKey namespaces values this package stores on a context.
type ContextKey string

const LoggerContextKey ContextKey = "logger"

// Middleware puts logger on every request context for FromContext.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), LoggerContextKey, logger)))
		})
	}
}

// FromContext returns the request logger, or one over slog.Default tagged
// "unknown" when no middleware installed it.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// ComponentMiddleware retags the request logger. It must run after Middleware.
func ComponentMiddleware(component string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).WithComponent(component)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), LoggerContextKey, logger)))
		})
	}
}

// RequestIDMiddleware adds the id returned by extractRequestID to every
// record the request logs.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).With(FieldRequestID, extractRequestID(r))
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), LoggerContextKey, logger)))
		})
	}
}

// StructuredLogger writes the ledger's recurring events with a fixed field set.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.InfoContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd picks the level from the status: warn for 4xx, error for 5xx.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogTransactionAdded logs a posted transaction together with the balance it produced.
func (sl *StructuredLogger) LogTransactionAdded(ctx context.Context, id, accountID, source string, amount, balance decimal.Decimal) {
	fields := NewFields().
		WithTransaction(id, accountID, source, amount).
		WithOperation(OpCreate).
		WithComponent(ComponentLedger)
	fields[FieldBalance] = balance.String()

	sl.logger.InfoContext(ctx, "Transaction added", fields.ToSlice()...)
}

// LogHistoryBuilt logs a reconstructed series.
func (sl *StructuredLogger) LogHistoryBuilt(ctx context.Context, scope, window string, points int) {
	fields := NewFields().
		WithOperation(OpRead).
		WithComponent(ComponentHistory)
	fields[FieldWindow] = window
	fields[FieldPoints] = points
	fields["scope"] = scope

	sl.logger.DebugContext(ctx, "Balance history built", fields.ToSlice()...)
}

// LogError adds err, operation and component to fields and logs at error level.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
