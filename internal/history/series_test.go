package history

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"coinjar/internal/core"
)

func day(n int) civil.Date {
	return civil.Date{Year: 2025, Month: time.January, Day: 1}.AddDays(n - 1)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func checking(balance string, cat core.Category) core.Account {
	return core.Account{
		ID:        uuid.New(),
		Name:      "acct",
		Category:  cat,
		CreatedAt: core.StartOfDay(day(1)),
		Variant:   core.Checking{Balance: dec(balance)},
	}
}

func txn(account uuid.UUID, d int, amount string) core.Transaction {
	return core.Transaction{
		ID:        uuid.New(),
		AccountID: account,
		Source:    "test",
		Date:      core.StartOfDay(day(d)).Add(12 * time.Hour),
		Amount:    dec(amount),
	}
}

func assertNonDecreasing(t *testing.T, points []Point) {
	t.Helper()
	for i := 1; i < len(points); i++ {
		if points[i].Date.Before(points[i-1].Date) {
			t.Fatalf("dates out of order at %d: %v before %v", i, points[i].Date, points[i-1].Date)
		}
	}
}

func TestBalanceAt_ExcludesTransactionsOnOrBeforeDay(t *testing.T) {
	a := checking("100.00", core.Asset)
	txns := []core.Transaction{txn(a.ID, 5, "20.00")}

	if got := BalanceAt(dec("100.00"), txns, day(3)); !got.Equal(dec("80.00")) {
		t.Fatalf("balance at day 3 = %s, want 80.00", got)
	}
	if got := BalanceAt(dec("100.00"), txns, day(5)); !got.Equal(dec("100.00")) {
		t.Fatalf("balance at day 5 = %s, want 100.00", got)
	}
}

func TestAccountSeries_WindowBeforeTransaction(t *testing.T) {
	a := checking("100.00", core.Asset)
	txns := []core.Transaction{txn(a.ID, 5, "20.00")}

	points := AccountSeries(a, txns, day(1), day(3))
	if len(points) != 2 {
		t.Fatalf("expected start and end points, got %v", points)
	}
	for _, p := range points {
		if !p.Balance.Equal(dec("80.00")) {
			t.Fatalf("point %v = %s, want 80.00", p.Date, p.Balance)
		}
	}
	if points[1].Date != day(3) {
		t.Fatalf("final point at %v, want %v", points[1].Date, day(3))
	}
}

func TestAccountSeries_NoTransactions(t *testing.T) {
	a := checking("42.10", core.Asset)
	a.CreatedAt = time.Date(2024, 6, 15, 22, 30, 0, 0, time.UTC)
	other := txn(uuid.New(), 2, "5")

	points := AccountSeries(a, []core.Transaction{other}, day(1), day(30))
	if len(points) != 1 {
		t.Fatalf("expected one point, got %v", points)
	}
	want := civil.Date{Year: 2024, Month: time.June, Day: 15}
	if points[0].Date != want || !points[0].Balance.Equal(dec("42.10")) {
		t.Fatalf("got %+v, want creation day %v at 42.10", points[0], want)
	}
}

func TestAccountSeries_InvertedWindow(t *testing.T) {
	a := checking("10", core.Asset)
	if points := AccountSeries(a, nil, day(5), day(4)); len(points) != 0 {
		t.Fatalf("expected empty series, got %v", points)
	}
}

func TestAccountSeries_BrokerageExcluded(t *testing.T) {
	a := core.Account{ID: uuid.New(), Name: "stocks", Category: core.Asset, Variant: core.Brokerage{}}
	if points := AccountSeries(a, []core.Transaction{txn(a.ID, 2, "1")}, day(1), day(10)); len(points) != 0 {
		t.Fatalf("expected empty series, got %v", points)
	}
}

func TestAccountSeries_WalksTransactions(t *testing.T) {
	a := checking("250.00", core.Asset)
	txns := []core.Transaction{
		txn(a.ID, 12, "-30.00"), // after window
		txn(a.ID, 4, "100.00"),
		txn(a.ID, 2, "50.00"), // on start day, part of the opening balance
		txn(a.ID, 7, "-20.00"),
		txn(a.ID, 7, "10.00"), // same day as previous, collapsed
		txn(uuid.New(), 6, "999.00"),
	}

	points := AccountSeries(a, txns, day(2), day(10))
	want := []Point{
		{day(2), dec("190.00")},
		{day(4), dec("290.00")},
		{day(7), dec("280.00")},
		{day(10), dec("280.00")},
	}
	if len(points) != len(want) {
		t.Fatalf("got %d points %v, want %v", len(points), points, want)
	}
	for i := range want {
		if points[i].Date != want[i].Date || !points[i].Balance.Equal(want[i].Balance) {
			t.Fatalf("point %d = {%v %s}, want {%v %s}", i, points[i].Date, points[i].Balance, want[i].Date, want[i].Balance)
		}
	}

	own := txns[:5]
	for _, p := range points {
		if law := BalanceAt(dec("250.00"), own, p.Date); !law.Equal(p.Balance) {
			t.Fatalf("point %v = %s, backward law gives %s", p.Date, p.Balance, law)
		}
	}
	assertNonDecreasing(t, points)
}

func TestAccountSeries_LastTransactionOnEndDay(t *testing.T) {
	a := checking("10", core.Asset)
	points := AccountSeries(a, []core.Transaction{txn(a.ID, 5, "4")}, day(1), day(5))
	if len(points) != 2 || points[1].Date != day(5) || !points[1].Balance.Equal(dec("10")) {
		t.Fatalf("unexpected series %v", points)
	}
}

func TestAccountSeries_DoesNotReorderInput(t *testing.T) {
	a := checking("0", core.Asset)
	txns := []core.Transaction{txn(a.ID, 9, "1"), txn(a.ID, 3, "1")}
	first := txns[0].ID

	AccountSeries(a, txns, day(1), day(10))
	if txns[0].ID != first {
		t.Fatalf("input slice was reordered")
	}
}

func TestNetWorthSeries_SignedSumWithoutTransactions(t *testing.T) {
	accounts := []core.Account{
		checking("500.00", core.Asset),
		checking("200.00", core.Liability),
		{ID: uuid.New(), Name: "stocks", Category: core.Asset, Variant: core.Brokerage{}},
	}

	points := NetWorthSeries(accounts, nil, day(1), day(7))
	if len(points) != 7 {
		t.Fatalf("expected 7 daily points, got %d", len(points))
	}
	for i, p := range points {
		if p.Date != day(i+1) {
			t.Fatalf("point %d dated %v, want %v", i, p.Date, day(i+1))
		}
		if !p.Balance.Equal(dec("300.00")) {
			t.Fatalf("point %d = %s, want 300.00", i, p.Balance)
		}
	}
}

func TestNetWorthSeries_MatchesBackwardLaw(t *testing.T) {
	cash := checking("1000.00", core.Asset)
	card := checking("150.00", core.Liability)
	broker := core.Account{ID: uuid.New(), Name: "stocks", Category: core.Asset, Variant: core.Brokerage{}}
	accounts := []core.Account{cash, card, broker}

	txns := []core.Transaction{
		txn(cash.ID, 1, "500.00"),
		txn(cash.ID, 3, "-75.25"),
		txn(card.ID, 3, "40.00"),
		txn(card.ID, 6, "60.00"),
		txn(cash.ID, 9, "200.00"),
		txn(broker.ID, 4, "10000.00"),
		txn(uuid.New(), 5, "1.00"),
	}
	byAccount := map[uuid.UUID][]core.Transaction{}
	for _, tx := range txns {
		byAccount[tx.AccountID] = append(byAccount[tx.AccountID], tx)
	}

	points := NetWorthSeries(accounts, txns, day(2), day(7))
	if len(points) != 6 {
		t.Fatalf("expected 6 points, got %d", len(points))
	}
	for _, p := range points {
		want := BalanceAt(dec("1000.00"), byAccount[cash.ID], p.Date).
			Sub(BalanceAt(dec("150.00"), byAccount[card.ID], p.Date))
		if !p.Balance.Equal(want) {
			t.Fatalf("day %v = %s, want %s", p.Date, p.Balance, want)
		}
	}
	assertNonDecreasing(t, points)

	// Day 7: cash 1000-200=800, card 150; net 650.
	if last := points[len(points)-1]; !last.Balance.Equal(dec("650.00")) {
		t.Fatalf("final day = %s, want 650.00", last.Balance)
	}
}

func TestNetWorthSeries_InvertedWindow(t *testing.T) {
	if points := NetWorthSeries([]core.Account{checking("1", core.Asset)}, nil, day(3), day(1)); len(points) != 0 {
		t.Fatalf("expected empty series, got %v", points)
	}
}

func TestNetWorthSeries_SingleDay(t *testing.T) {
	a := checking("10", core.Asset)
	points := NetWorthSeries([]core.Account{a}, []core.Transaction{txn(a.ID, 2, "3")}, day(1), day(1))
	if len(points) != 1 || !points[0].Balance.Equal(dec("7")) {
		t.Fatalf("unexpected series %v", points)
	}
}
