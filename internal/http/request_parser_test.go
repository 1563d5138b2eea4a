package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"coinjar/internal/core"
	"coinjar/internal/history"
)

func TestFlexAmount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want flexAmount
	}{
		{"string", `{"amount":"12.34"}`, "12.34"},
		{"comma string", `{"amount":"-12,5"}`, "-12,5"},
		{"number", `{"amount":42.1}`, "42.1"},
		{"null", `{"amount":null}`, ""},
		{"missing", `{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				Amount flexAmount `json:"amount"`
			}
			if err := json.Unmarshal([]byte(tt.in), &v); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if v.Amount != tt.want {
				t.Errorf("Amount = %q, want %q", v.Amount, tt.want)
			}
		})
	}
}

func TestCreateAccountRequest_Account(t *testing.T) {
	liability := -1
	bad := 0

	tests := []struct {
		name    string
		req     CreateAccountRequest
		wantErr error
		check   func(t *testing.T, a core.Account)
	}{
		{
			name: "defaults to checking asset",
			req:  CreateAccountRequest{Name: "  Everyday\x00 ", Balance: "12,50"},
			check: func(t *testing.T, a core.Account) {
				if a.Name != "Everyday" || a.Category != core.Asset || a.Type() != core.TypeChecking {
					t.Errorf("account = %+v", a)
				}
				if b, _ := a.Balance(); !b.Equal(decimal.RequireFromString("12.5")) {
					t.Errorf("balance = %s", b)
				}
			},
		},
		{
			name: "savings liability",
			req:  CreateAccountRequest{Name: "Loan", Type: "Savings", Category: &liability, Balance: "1000", InterestRate: "4.5", Compounding: 12},
			check: func(t *testing.T, a core.Account) {
				s, ok := a.Variant.(core.Savings)
				if !ok || a.Category != core.Liability || s.Compounding != 12 || !s.InterestRate.Equal(decimal.RequireFromString("4.5")) {
					t.Errorf("account = %+v", a)
				}
			},
		},
		{
			name: "brokerage keeps positions",
			req:  CreateAccountRequest{Name: "Stocks", Type: "brokerage", Positions: []core.Position{{Symbol: "VTI", Quantity: decimal.NewFromInt(3)}}},
			check: func(t *testing.T, a core.Account) {
				if _, ok := a.Balance(); ok {
					t.Error("brokerage should not carry a balance")
				}
			},
		},
		{name: "empty name", req: CreateAccountRequest{Name: " \t"}, wantErr: core.ErrEmptyName},
		{name: "bad category", req: CreateAccountRequest{Name: "x", Category: &bad}, wantErr: core.ErrInvalidCategory},
		{name: "bad type", req: CreateAccountRequest{Name: "x", Type: "crypto"}, wantErr: core.ErrInvalidAccountType},
		{name: "bad balance", req: CreateAccountRequest{Name: "x", Balance: "1e"}, wantErr: errValidation},
		{name: "negative rate", req: CreateAccountRequest{Name: "x", Type: "savings", InterestRate: "-1", Compounding: 12}, wantErr: core.ErrInvalidRate},
		{name: "rate above 100", req: CreateAccountRequest{Name: "x", Type: "savings", InterestRate: "250", Compounding: 12}, wantErr: core.ErrInvalidRate},
		{name: "sub-cent balance", req: CreateAccountRequest{Name: "x", Balance: "0.001"}, wantErr: core.ErrInvalidAmount},
		{name: "huge exponent balance", req: CreateAccountRequest{Name: "x", Balance: "1e-30000000"}, wantErr: core.ErrInvalidAmount},
		{name: "fractional quantity", req: CreateAccountRequest{Name: "x", Type: "brokerage", Positions: []core.Position{{Symbol: "VTI", Quantity: decimal.New(1, -30000000)}}}, wantErr: core.ErrInvalidPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := tt.req.Account()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Account() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Account() error = %v", err)
			}
			tt.check(t, a)
		})
	}
}

func TestAddTransactionRequest_Transaction(t *testing.T) {
	const id = "7b1f8f5e-3a1c-4a55-9b7e-0c6f2f1d2e3a"

	tests := []struct {
		name     string
		req      AddTransactionRequest
		wantErr  error
		wantDate time.Time
	}{
		{
			name:     "date only is midnight UTC",
			req:      AddTransactionRequest{AccountID: id, Source: "Shop", Amount: "-3.20", Date: "2025-01-03"},
			wantDate: time.Date(2025, time.January, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "RFC 3339 is normalized to UTC",
			req:      AddTransactionRequest{AccountID: id, Source: "Shop", Amount: "1", Date: "2025-01-03T01:30:00+02:00"},
			wantDate: time.Date(2025, time.January, 2, 23, 30, 0, 0, time.UTC),
		},
		{name: "bad account id", req: AddTransactionRequest{AccountID: "x", Source: "Shop", Amount: "1"}, wantErr: errInvalidID},
		{name: "empty source", req: AddTransactionRequest{AccountID: id, Amount: "1"}, wantErr: core.ErrEmptySource},
		{name: "long source", req: AddTransactionRequest{AccountID: id, Source: strings.Repeat("s", 201), Amount: "1"}, wantErr: errValidation},
		{name: "long note", req: AddTransactionRequest{AccountID: id, Source: "s", Note: strings.Repeat("n", 501), Amount: "1"}, wantErr: errValidation},
		{name: "zero amount", req: AddTransactionRequest{AccountID: id, Source: "s", Amount: "0.00"}, wantErr: core.ErrInvalidAmount},
		{name: "missing amount", req: AddTransactionRequest{AccountID: id, Source: "s"}, wantErr: core.ErrInvalidAmount},
		{name: "bad date", req: AddTransactionRequest{AccountID: id, Source: "s", Amount: "1", Date: "yesterday"}, wantErr: errValidation},
		{name: "tiny exponent amount", req: AddTransactionRequest{AccountID: id, Source: "s", Amount: "1e-30000000"}, wantErr: core.ErrInvalidAmount},
		{name: "huge amount", req: AddTransactionRequest{AccountID: id, Source: "s", Amount: "1e400"}, wantErr: core.ErrInvalidAmount},
		{name: "sub-cent amount", req: AddTransactionRequest{AccountID: id, Source: "s", Amount: "0.001"}, wantErr: core.ErrInvalidAmount},
		{name: "reserved interest source", req: AddTransactionRequest{AccountID: id, Source: " interest ", Amount: "5"}, wantErr: errValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, err := tt.req.Transaction()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Transaction() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Transaction() error = %v", err)
			}
			if !txn.Date.Equal(tt.wantDate) || txn.Date.Location() != time.UTC {
				t.Errorf("Date = %s, want %s", txn.Date, tt.wantDate)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"x"}`, false},
		{"empty", ``, true},
		{"truncated", `{"name":`, true},
		{"wrong type", `{"name":5}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst CreateAccountRequest
			err := decodeJSON(httptest.NewRecorder(), req, &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errMalformedBody) {
				t.Errorf("error %v should wrap errMalformedBody", err)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrAccountNotFound, http.StatusNotFound},
		{core.ErrTransactionNotFound, http.StatusNotFound},
		{core.ErrBalanceNotTracked, http.StatusUnprocessableEntity},
		{core.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{errValidation, http.StatusUnprocessableEntity},
		{errInvalidID, http.StatusBadRequest},
		{history.ErrWindowTooLong, http.StatusBadRequest},
		{history.ErrInvalidDate, http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		wrapped := errors.Join(errors.New("context"), tt.err)
		if got := statusFor(wrapped); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 200},
		{"limit=10", 10},
		{"limit=500", 500},
		{"limit=501", 500},
		{"limit=0", 200},
		{"limit=-3", 200},
		{"limit=abc", 200},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		if got := parseLimit(req); got != tt.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestDollarFormatting(t *testing.T) {
	tests := []struct {
		in        string
		wantMoney string
		wantLabel string
	}{
		{"0", "$0.00", "$0.00"},
		{"999", "$999.00", "$999.00"},
		{"1500", "$1500.00", "$1.5K"},
		{"-42.129", "-$42.13", "-$42.13"},
		{"-2500", "-$2500.00", "-$2.5K"},
	}
	for _, tt := range tests {
		d := decimal.RequireFromString(tt.in)
		if got := dollars(d); got != tt.wantMoney {
			t.Errorf("dollars(%s) = %q, want %q", tt.in, got, tt.wantMoney)
		}
		if got := axisLabel(d); got != tt.wantLabel {
			t.Errorf("axisLabel(%s) = %q, want %q", tt.in, got, tt.wantLabel)
		}
	}
}
