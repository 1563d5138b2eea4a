package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"coinjar/internal/core"
	"coinjar/internal/history"
	"coinjar/internal/log"
)

const (
	defaultTransactionLimit = 200
	maxTransactionLimit     = 500
	maxBodyBytes            = 1 << 20
)

var errInvalidID = errors.New("invalid id: expected a UUID")

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", log.FieldError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: http.StatusText(status), Message: message})
}

// writeServiceError maps ledger errors onto status codes. Anything it does
// not recognize is logged and reported as a 500 without details.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		fields := log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "")
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, log.ComponentHTTP, operationFor(r.Method), fields)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func operationFor(method string) string {
	switch method {
	case http.MethodPost:
		return log.OpCreate
	case http.MethodDelete:
		return log.OpDelete
	default:
		return log.OpRead
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrAccountNotFound), errors.Is(err, core.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrBalanceNotTracked),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrNameTooLong),
		errors.Is(err, core.ErrEmptySource),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidCategory),
		errors.Is(err, core.ErrInvalidAccountType),
		errors.Is(err, core.ErrInvalidCompounding),
		errors.Is(err, core.ErrInvalidRate),
		errors.Is(err, core.ErrInvalidPosition),
		errors.Is(err, core.ErrMissingDate),
		errors.Is(err, errValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errInvalidID),
		errors.Is(err, errMalformedBody),
		errors.Is(err, history.ErrInvalidPeriod),
		errors.Is(err, history.ErrInvalidDate),
		errors.Is(err, history.ErrWindowTooLong):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// idParam parses the {id} route parameter.
func idParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		return uuid.Nil, errInvalidID
	}
	return id, nil
}

// parseLimit reads ?limit=, defaulting to 200 and capping at 500.
func parseLimit(r *http.Request) int {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return defaultTransactionLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultTransactionLimit
	}
	if n > maxTransactionLimit {
		return maxTransactionLimit
	}
	return n
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// dollars renders d as "$12.34", or "-$12.34" when negative.
func dollars(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + core.FormatAmount(d.Neg())
	}
	return "$" + core.FormatAmount(d)
}

// axisLabel renders a chart axis label such as "$1.5K".
func axisLabel(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + core.AbbreviateAmount(d.Neg())
	}
	return "$" + core.AbbreviateAmount(d)
}
