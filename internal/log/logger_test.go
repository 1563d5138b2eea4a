package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func bufferLogger(buf *bytes.Buffer) *Logger {
	return New(Config{Component: "test", Handler: slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		" WARN ":   slog.LevelWarn,
		"warning":  slog.LevelWarn,
		"error":    slog.LevelError,
		"":         slog.LevelInfo,
		"nonsense": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := bufferLogger(&buf).WithComponent(ComponentLedger)

	logger.Info("account created", FieldAccountID, "abc")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "account_id=abc") {
		t.Errorf("output = %q", out)
	}
	if logger.Component() != ComponentLedger {
		t.Errorf("Component() = %q", logger.Component())
	}
}

func TestLogFields(t *testing.T) {
	fields := NewFields().
		WithOperation(OpParse).
		WithError(errors.New("boom")).
		WithError(nil).
		WithTransaction("t1", "a1", "Payroll", decimal.RequireFromString("12.50"))

	if fields[FieldError] != "boom" {
		t.Errorf("error field = %v", fields[FieldError])
	}
	if fields[FieldAmount] != "12.5" {
		t.Errorf("amount field = %v, want string 12.5", fields[FieldAmount])
	}
	if got := len(fields.ToSlice()); got != 2*len(fields) {
		t.Errorf("ToSlice() len = %d, want %d", got, 2*len(fields))
	}
}

func TestMiddleware_RequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := bufferLogger(&buf)

	var got *Logger
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
		got.InfoContext(r.Context(), "handled")
	})
	requestID := RequestIDMiddleware(func(r *http.Request) string { return r.Header.Get("X-Request-Id") })
	h := Middleware(logger)(ComponentMiddleware(ComponentHTTP)(requestID(inner)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("logger from context = %+v", got)
	}
	if out := buf.String(); !strings.Contains(out, "request_id=req-42") || !strings.Contains(out, "component=http") {
		t.Errorf("output = %q", out)
	}
	if fallback := FromContext(context.Background()); fallback.Component() != "unknown" {
		t.Errorf("fallback component = %q", fallback.Component())
	}
}

func TestStructuredLogger_LogError(t *testing.T) {
	var buf bytes.Buffer
	NewStructuredLogger(bufferLogger(&buf)).LogError(context.Background(), "Request failed",
		errors.New("boom"), ComponentHTTP, OpDelete, nil)

	out := buf.String()
	for _, want := range []string{"level=ERROR", "error=boom", "operation=delete", "component=http"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}
