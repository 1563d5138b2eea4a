package core

import "github.com/shopspring/decimal"

// NetWorth is the category-signed total over accounts that carry a scalar
// balance.
type NetWorth struct {
	Total       decimal.Decimal
	Assets      decimal.Decimal
	Liabilities decimal.Decimal // Reported as a positive magnitude
	Accounts    int             // Accounts that contributed
}

// SumNetWorth aggregates the current balances of accounts.
func SumNetWorth(accounts []Account) NetWorth {
	nw := NetWorth{Total: decimal.Zero, Assets: decimal.Zero, Liabilities: decimal.Zero}
	for _, a := range accounts {
		b, ok := a.Balance()
		if !ok {
			continue
		}
		nw.Accounts++
		if a.Category == Liability {
			nw.Liabilities = nw.Liabilities.Add(b)
			nw.Total = nw.Total.Sub(b)
			continue
		}
		nw.Assets = nw.Assets.Add(b)
		nw.Total = nw.Total.Add(b)
	}
	return nw
}
