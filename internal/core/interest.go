package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// PeriodicRate is the interest rate applied per compounding period, as a
// fraction.
func (s Savings) PeriodicRate() decimal.Decimal {
	if s.Compounding < 1 {
		return decimal.Zero
	}
	return s.InterestRate.Div(hundred).Div(decimal.NewFromInt(int64(s.Compounding)))
}

// InterestPayout is the interest earned for one compounding period at the
// current balance. The result is not rounded.
func InterestPayout(s Savings) decimal.Decimal {
	return s.Balance.Mul(s.PeriodicRate())
}

// APY is the annual percentage yield, (1 + r/n)^n - 1, as a percentage.
func APY(s Savings) decimal.Decimal {
	if s.Compounding < 1 {
		return decimal.Zero
	}
	growth := decimal.NewFromInt(1).Add(s.PeriodicRate()).Pow(decimal.NewFromInt(int64(s.Compounding)))
	return growth.Sub(decimal.NewFromInt(1)).Mul(hundred)
}
