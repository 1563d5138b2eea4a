package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"coinjar/internal/core"
	"coinjar/internal/ledger"
)

var (
	errMalformedBody = errors.New("malformed JSON body")
	errValidation    = errors.New("validation failed")
)

// flexAmount accepts an amount either as a JSON number or as a string in
// any form core.ParseAmount understands ("12.34", "-12,5").
type flexAmount string

func (a *flexAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = flexAmount(s)
		return nil
	}
	*a = flexAmount(data)
	return nil
}

// CreateAccountRequest is the body of POST /api/v1/account.
type CreateAccountRequest struct {
	Name         string           `json:"name"`
	Type         core.AccountType `json:"type"`
	Category     *int             `json:"category"`
	Balance      flexAmount       `json:"balance"`
	InterestRate flexAmount       `json:"interest_rate"`
	Compounding  int              `json:"compounding"`
	Positions    []core.Position  `json:"positions"`
}

// AddTransactionRequest is the body of POST /api/v1/transaction/add.
type AddTransactionRequest struct {
	AccountID string     `json:"account_id"`
	Source    string     `json:"source"`
	Amount    flexAmount `json:"amount"`
	Date      string     `json:"date"`
	Note      string     `json:"note"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errMalformedBody)
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

// optionalDecimal parses a possibly empty decimal with parse; empty is zero.
func optionalDecimal(field string, v flexAmount, parse func(string) (decimal.Decimal, error)) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := parse(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w: %s %q", errValidation, err, field, string(v))
	}
	return d, nil
}

// Account converts the request into a new account. Type defaults to
// checking and category to asset.
func (req CreateAccountRequest) Account() (core.Account, error) {
	name := sanitizeInput(req.Name)
	if name == "" {
		return core.Account{}, core.ErrEmptyName
	}

	category := core.Asset
	if req.Category != nil {
		category = core.Category(*req.Category)
		if err := category.Validate(); err != nil {
			return core.Account{}, err
		}
	}

	typ := core.AccountType(strings.ToLower(strings.TrimSpace(string(req.Type))))
	if typ == "" {
		typ = core.TypeChecking
	}
	if !typ.IsValid() {
		return core.Account{}, fmt.Errorf("%w: %q", core.ErrInvalidAccountType, req.Type)
	}

	balance, err := optionalDecimal("balance", req.Balance, core.ParseMoney)
	if err != nil {
		return core.Account{}, err
	}
	rate, err := optionalDecimal("interest_rate", req.InterestRate, core.ParseRate)
	if err != nil {
		return core.Account{}, err
	}

	variant, err := core.NewVariant(core.VariantSpec{
		Type:         typ,
		Balance:      balance,
		InterestRate: rate,
		Compounding:  req.Compounding,
		Positions:    req.Positions,
	})
	if err != nil {
		return core.Account{}, err
	}

	return core.Account{Name: name, Category: category, Variant: variant}, nil
}

// Transaction converts the request into a new transaction. A missing date
// means now; a bare YYYY-MM-DD is taken as midnight UTC.
func (req AddTransactionRequest) Transaction() (core.Transaction, error) {
	accountID, err := uuid.Parse(strings.TrimSpace(req.AccountID))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: account_id", errInvalidID)
	}

	source := sanitizeInput(req.Source)
	if source == "" {
		return core.Transaction{}, core.ErrEmptySource
	}
	if len(source) > 200 {
		return core.Transaction{}, fmt.Errorf("%w: source too long (max 200 characters)", errValidation)
	}
	if strings.EqualFold(source, core.SourceInterest) {
		return core.Transaction{}, fmt.Errorf("%w: source %q is reserved for interest postings", errValidation, core.SourceInterest)
	}
	note := sanitizeInput(req.Note)
	if len(note) > 500 {
		return core.Transaction{}, fmt.Errorf("%w: note too long (max 500 characters)", errValidation)
	}

	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		return core.Transaction{}, err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	return core.Transaction{
		AccountID: accountID,
		Source:    source,
		Date:      date,
		Amount:    amount,
		Note:      note,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ledger.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD or RFC 3339", errValidation, s)
}
