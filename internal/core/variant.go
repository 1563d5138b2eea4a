package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Variant is the closed set of account kinds. Only the types in this file
// implement it.
type Variant interface {
	Type() AccountType
	validate() error
}

type (
	Checking struct {
		Balance decimal.Decimal
	}

	Savings struct {
		Balance      decimal.Decimal
		InterestRate decimal.Decimal // Annual percentage, e.g. 4.5
		Compounding  int             // Periods per year
	}

	Brokerage struct {
		Positions []Position
	}

	Position struct {
		Symbol   string          `json:"symbol"`
		Quantity decimal.Decimal `json:"quantity"`
	}
)

func (Checking) Type() AccountType  { return TypeChecking }
func (Savings) Type() AccountType   { return TypeSavings }
func (Brokerage) Type() AccountType { return TypeBrokerage }

func (c Checking) validate() error {
	if !FitsCents(c.Balance) {
		return ErrInvalidAmount
	}
	return nil
}

func (s Savings) validate() error {
	if !FitsCents(s.Balance) {
		return ErrInvalidAmount
	}
	if !validRate(s.InterestRate) {
		return ErrInvalidRate
	}
	if s.Compounding < 1 || s.Compounding > 365 {
		return ErrInvalidCompounding
	}
	return nil
}

func (b Brokerage) validate() error {
	for _, p := range b.Positions {
		if strings.TrimSpace(p.Symbol) == "" || !validQuantity(p.Quantity) {
			return ErrInvalidPosition
		}
	}
	return nil
}

// ScalarBalance reports the variant's balance, if it carries one.
func ScalarBalance(v Variant) (decimal.Decimal, bool) {
	switch v := v.(type) {
	case Checking:
		return v.Balance, true
	case Savings:
		return v.Balance, true
	default:
		return decimal.Zero, false
	}
}

// WithBalance returns v with its scalar balance replaced.
func WithBalance(v Variant, balance decimal.Decimal) (Variant, error) {
	switch v := v.(type) {
	case Checking:
		v.Balance = balance
		return v, nil
	case Savings:
		v.Balance = balance
		return v, nil
	default:
		return v, ErrBalanceNotTracked
	}
}

// VariantSpec is the flat form of a variant used by storage rows and
// request payloads.
type VariantSpec struct {
	Type         AccountType
	Balance      decimal.Decimal
	InterestRate decimal.Decimal
	Compounding  int
	Positions    []Position
}

// NewVariant builds the variant named by spec.Type. Fields that do not
// belong to the variant are ignored.
func NewVariant(spec VariantSpec) (Variant, error) {
	var v Variant
	switch spec.Type {
	case TypeChecking, "":
		v = Checking{Balance: spec.Balance}
	case TypeSavings:
		v = Savings{Balance: spec.Balance, InterestRate: spec.InterestRate, Compounding: spec.Compounding}
	case TypeBrokerage:
		v = Brokerage{Positions: append([]Position(nil), spec.Positions...)}
	default:
		return nil, ErrInvalidAccountType
	}
	if err := v.validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// SpecOf flattens v. It is the inverse of NewVariant.
func SpecOf(v Variant) VariantSpec {
	switch v := v.(type) {
	case Checking:
		return VariantSpec{Type: TypeChecking, Balance: v.Balance}
	case Savings:
		return VariantSpec{Type: TypeSavings, Balance: v.Balance, InterestRate: v.InterestRate, Compounding: v.Compounding}
	case Brokerage:
		return VariantSpec{Type: TypeBrokerage, Positions: v.Positions}
	default:
		return VariantSpec{Type: TypeChecking}
	}
}
