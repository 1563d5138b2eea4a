package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"

	"coinjar/internal/log"
)

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil)})
	m := NewMiddleware(logger, func(*http.Request) string { return "203.0.113.9" })

	var seenID string
	var scoped *log.Logger
	h := chimw.RequestID(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		scoped = log.FromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/account?x=1", nil))

	if seenID == "" {
		t.Fatal("request id not propagated")
	}
	if scoped == nil || scoped.Component() != log.ComponentHTTP {
		t.Errorf("request logger component = %v", scoped)
	}

	out := buf.String()
	for _, want := range []string{
		"HTTP request started",
		"HTTP request completed",
		"status_code=404",
		"client_ip=203.0.113.9",
		"level=WARN",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}

	if m.GetMetrics().TotalRequests != 1 {
		t.Errorf("TotalRequests = %d, want 1", m.GetMetrics().TotalRequests)
	}
}

func TestMiddleware_DefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil)}), nil)

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if !strings.Contains(buf.String(), "status_code=200") {
		t.Errorf("log output missing 200 status:\n%s", buf.String())
	}
}

func TestMiddleware_ReusesContextLogger(t *testing.T) {
	var own, scoped bytes.Buffer
	m := NewMiddleware(log.New(log.Config{Handler: slog.NewTextHandler(&own, nil)}), nil)
	reqLogger := log.New(log.Config{Component: log.ComponentHTTP, Handler: slog.NewTextHandler(&scoped, nil)}).
		With(log.FieldRequestID, "req-7")

	var seen *log.Logger
	h := log.Middleware(reqLogger)(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = log.FromContext(r.Context())
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if seen != reqLogger {
		t.Errorf("handler logger was replaced")
	}
	if own.Len() != 0 {
		t.Errorf("fallback logger used: %s", own.String())
	}
	if out := scoped.String(); !strings.Contains(out, "HTTP request completed") || !strings.Contains(out, "request_id=req-7") {
		t.Errorf("request logger output = %q", out)
	}
}
