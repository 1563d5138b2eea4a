// Package history reconstructs balance series from a current balance and the
// transactions that led to it.
//
// Two modes are provided. AccountSeries is transaction-indexed: one point at
// the start of the window, one per distinct transaction day inside it and a
// closing point at the end. NetWorthSeries is day-by-day: one point per
// calendar day, aggregating every account with its category sign.
//
// Both rest on the same law: the balance at the end of day D equals the
// current balance minus the amounts of all transactions dated after D.
// Days are UTC calendar days. Nothing here returns an error; degenerate
// windows produce empty series.
package history

import (
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"coinjar/internal/core"
)

// Point is one balance sample at the end of a calendar day.
type Point struct {
	Date    civil.Date
	Balance decimal.Decimal
}

// BalanceAt returns current minus the amounts of txns dated after day.
// The caller scopes txns to the account(s) that current belongs to.
func BalanceAt(current decimal.Decimal, txns []core.Transaction, day civil.Date) decimal.Decimal {
	after := decimal.Zero
	for _, t := range txns {
		if t.Day().After(day) {
			after = after.Add(t.Amount)
		}
	}
	return current.Sub(after)
}

// AccountSeries reconstructs one account's balance over [start, end].
// txns may contain other accounts' transactions; they are ignored.
func AccountSeries(account core.Account, txns []core.Transaction, start, end civil.Date) []Point {
	if start.After(end) {
		return []Point{}
	}
	current, ok := account.Balance()
	if !ok {
		return []Point{}
	}

	own := forAccount(account.ID, txns)
	if len(own) == 0 {
		return []Point{{Date: core.DayOf(account.CreatedAt), Balance: current}}
	}
	core.SortTransactions(own)

	running := BalanceAt(current, own, start)
	points := []Point{{Date: start, Balance: running}}
	for _, t := range own {
		day := t.Day()
		if !day.After(start) {
			continue
		}
		if day.After(end) {
			break
		}
		running = running.Add(t.Amount)
		if last := &points[len(points)-1]; last.Date == day {
			last.Balance = running
			continue
		}
		points = append(points, Point{Date: day, Balance: running})
	}

	if points[len(points)-1].Date != end {
		points = append(points, Point{Date: end, Balance: running})
	}
	return points
}

// NetWorthSeries reconstructs the category-signed total of all balance
// carrying accounts for every day in [start, end].
func NetWorthSeries(accounts []core.Account, txns []core.Transaction, start, end civil.Date) []Point {
	if start.After(end) {
		return []Point{}
	}

	signs := make(map[uuid.UUID]decimal.Decimal, len(accounts))
	total := decimal.Zero
	for _, a := range accounts {
		b, ok := a.SignedBalance()
		if !ok {
			continue
		}
		signs[a.ID] = a.Category.Sign()
		total = total.Add(b)
	}

	// Signed net change per day, for days after start only. Changes on or
	// before start are already folded into the opening balance.
	changes := make(map[civil.Date]decimal.Decimal)
	for _, t := range txns {
		sign, ok := signs[t.AccountID]
		if !ok {
			continue
		}
		day := t.Day()
		if !day.After(start) {
			continue
		}
		changes[day] = changes[day].Add(t.Amount.Mul(sign))
	}

	// Roll total back from now to the end of the window.
	for day, delta := range changes {
		if day.After(end) {
			total = total.Sub(delta)
		}
	}

	n := end.DaysSince(start) + 1
	points := make([]Point, n)
	for i := n - 1; i >= 0; i-- {
		day := start.AddDays(i)
		points[i] = Point{Date: day, Balance: total}
		total = total.Sub(changes[day])
	}
	return points
}

func forAccount(id uuid.UUID, txns []core.Transaction) []core.Transaction {
	var out []core.Transaction
	for _, t := range txns {
		if t.AccountID == id {
			out = append(out, t)
		}
	}
	return out
}
