package core

import (
	"errors"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Asset     Category = 1
	Liability Category = -1
)

const (
	TypeChecking  AccountType = "checking"
	TypeSavings   AccountType = "savings"
	TypeBrokerage AccountType = "brokerage"
)

// SourceInterest labels transactions posted by the interest processor.
const SourceInterest = "Interest"

type (
	// Category is the sign an account contributes to net worth.
	Category int

	AccountType string

	Account struct {
		ID        uuid.UUID
		Name      string
		Category  Category
		CreatedAt time.Time
		Variant   Variant
	}

	Transaction struct {
		ID        uuid.UUID
		AccountID uuid.UUID
		Source    string // Counterparty or origin of the funds
		Date      time.Time
		Amount    decimal.Decimal // Positive credits, negative debits
		Note      string
	}
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBalanceNotTracked   = errors.New("account does not track a balance")
	ErrEmptyName           = errors.New("empty account name")
	ErrNameTooLong         = errors.New("account name too long (max 100 characters)")
	ErrEmptySource         = errors.New("empty transaction source")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidCategory     = errors.New("invalid category: must be 1 or -1")
	ErrInvalidAccountType  = errors.New("invalid account type")
	ErrInvalidCompounding  = errors.New("invalid compounding periods")
	ErrInvalidRate         = errors.New("invalid interest rate")
	ErrInvalidPosition     = errors.New("invalid position")
	ErrMissingDate         = errors.New("date cannot be zero")
)

func (c Category) Validate() error {
	if c != Asset && c != Liability {
		return ErrInvalidCategory
	}
	return nil
}

// Sign returns +1 or -1 as a decimal.
func (c Category) Sign() decimal.Decimal {
	if c == Liability {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

func (t AccountType) IsValid() bool {
	switch t {
	case TypeChecking, TypeSavings, TypeBrokerage:
		return true
	}
	return false
}

// DayOf returns the UTC calendar day of t.
func DayOf(t time.Time) civil.Date {
	return civil.DateOf(t.UTC())
}

// StartOfDay returns midnight UTC of d.
func StartOfDay(d civil.Date) time.Time {
	return d.In(time.UTC)
}

// Type returns the account's variant tag. A nil variant reports checking.
func (a Account) Type() AccountType {
	if a.Variant == nil {
		return TypeChecking
	}
	return a.Variant.Type()
}

// Balance returns the scalar balance and whether the account carries one.
func (a Account) Balance() (decimal.Decimal, bool) {
	return ScalarBalance(a.Variant)
}

// SignedBalance is the account's contribution to net worth.
func (a Account) SignedBalance() (decimal.Decimal, bool) {
	b, ok := a.Balance()
	if !ok {
		return decimal.Zero, false
	}
	return b.Mul(a.Category.Sign()), true
}

func (a Account) Validate() error {
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 100 {
		return ErrNameTooLong
	}
	if err := a.Category.Validate(); err != nil {
		return err
	}
	if a.Variant == nil {
		return ErrInvalidAccountType
	}
	return a.Variant.validate()
}

// Day returns the UTC calendar day the transaction is dated on.
func (t Transaction) Day() civil.Date {
	return DayOf(t.Date)
}

func (t Transaction) Validate() error {
	if t.AccountID == uuid.Nil {
		return ErrAccountNotFound
	}
	if strings.TrimSpace(t.Source) == "" {
		return ErrEmptySource
	}
	if len(t.Source) > 200 {
		return errors.New("source too long (max 200 characters)")
	}
	if len(t.Note) > 500 {
		return errors.New("note too long (max 500 characters)")
	}
	if t.Amount.IsZero() || !FitsCents(t.Amount) {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// Apply returns a with delta added to its scalar balance.
func (a Account) Apply(delta decimal.Decimal) (Account, error) {
	b, ok := a.Balance()
	if !ok {
		return a, ErrBalanceNotTracked
	}
	v, err := WithBalance(a.Variant, b.Add(delta))
	if err != nil {
		return a, err
	}
	a.Variant = v
	return a, nil
}

// SortTransactions orders txns by date, breaking ties by ID so equal inputs
// always sort identically.
func SortTransactions(txns []Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.Before(txns[j].Date)
		}
		return txns[i].ID.String() < txns[j].ID.String()
	})
}
