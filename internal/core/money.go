// Package core provides money parsing and formatting utilities.
//
// Amounts are decimal.Decimal end to end; rounding happens only when a
// value is rendered for display or posted as a cent-rounded payout.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var thousand = decimal.NewFromInt(1000)

const (
	maxAmountLen = 32
	// Exponents outside this range are rejected before any rescaling, so a
	// short input like "1e-30000000" never expands into millions of digits.
	maxExponent = 20
)

var (
	// MaxAmount bounds the magnitude of amounts and balances.
	MaxAmount = decimal.New(1, 12)
	maxRate   = decimal.NewFromInt(100)
)

// ParseAmount converts a signed decimal string to a transaction amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. Zero is rejected since a zero transaction carries no
// information, and so is anything that is not a whole number of cents or
// whose magnitude reaches MaxAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("-12,5")  -> -12.5, nil
//	ParseAmount("0")      -> 0, ErrInvalidAmount
//	ParseAmount("0.001")  -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := ParseMoney(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsZero() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseMoney is ParseAmount without the zero check, for balances.
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil || !FitsCents(d) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseRate parses an annual percentage rate in [0, 100] with at most four
// decimals.
func ParseRate(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil || !validRate(d) {
		return decimal.Zero, ErrInvalidRate
	}
	return d, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxAmountLen {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}

// FitsCents reports whether d is a whole number of cents below MaxAmount.
func FitsCents(d decimal.Decimal) bool {
	return fitsScale(d, 2) && d.Abs().LessThan(MaxAmount)
}

func validRate(d decimal.Decimal) bool {
	return fitsScale(d, 4) && !d.IsNegative() && d.LessThanOrEqual(maxRate)
}

func validQuantity(d decimal.Decimal) bool {
	return fitsScale(d, 8) && !d.IsNegative() && d.LessThan(MaxAmount)
}

// fitsScale reports whether d has at most places fractional digits once
// trailing zeros are dropped.
func fitsScale(d decimal.Decimal, places int32) bool {
	if e := d.Exponent(); e < -maxExponent || e > maxExponent {
		return false
	}
	return d.Equal(d.Round(places))
}

// FormatAmount renders d with exactly two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// AbbreviateAmount renders axis labels: values above 999 become thousands
// with one decimal and a "K" suffix (1500 -> "1.5K"), everything else is
// rendered with two decimals.
func AbbreviateAmount(d decimal.Decimal) string {
	if d.GreaterThan(decimal.NewFromInt(999)) {
		return d.Div(thousand).StringFixed(1) + "K"
	}
	return FormatAmount(d)
}

// Cents rounds d half away from zero to two decimals.
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
