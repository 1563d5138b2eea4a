package services

import (
	"context"
	"testing"
	"time"

	"coinjar/internal/core"
	"coinjar/internal/ledger"
)

func createSavings(t *testing.T, s *LedgerService, name, balance, rate string, compounding int, created time.Time) core.Account {
	t.Helper()
	a, err := s.CreateAccount(context.Background(), core.Account{
		Name:      name,
		Category:  core.Asset,
		CreatedAt: created,
		Variant:   core.Savings{Balance: dec(balance), InterestRate: dec(rate), Compounding: compounding},
	})
	if err != nil {
		t.Fatalf("CreateAccount(%s) error = %v", name, err)
	}
	return a
}

func interestPostings(t *testing.T, s *LedgerService, account core.Account) []core.Transaction {
	t.Helper()
	txns, err := s.ListTransactions(context.Background(), ledger.TransactionFilter{AccountID: account.ID})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	var out []core.Transaction
	for _, txn := range txns {
		if txn.Source == core.SourceInterest {
			out = append(out, txn)
		}
	}
	return out
}

func TestInterestProcessor_Monthly(t *testing.T) {
	pub := &fakePublisher{}
	s := newTestService(t, pub)
	p := NewInterestProcessor(s, testLogger())
	ctx := context.Background()

	savings := createSavings(t, s, "Rainy day", "1200", "12", 12, at(1, 15))
	createChecking(t, s, "Everyday", "1000", core.Asset, at(1, 15))

	posted, err := p.Process(ctx, at(2, 10))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if posted != 0 {
		t.Fatalf("Process() before anchor day posted %d, want 0", posted)
	}

	posted, err = p.Process(ctx, at(2, 15))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if posted != 1 {
		t.Fatalf("Process() on anchor day posted %d, want 1", posted)
	}

	got := interestPostings(t, s, savings)
	if len(got) != 1 {
		t.Fatalf("interest postings = %d, want 1", len(got))
	}
	if !got[0].Amount.Equal(dec("12")) {
		t.Errorf("payout = %s, want 12.00", got[0].Amount)
	}
	if got[0].Note != "12.68% APY" {
		t.Errorf("note = %q", got[0].Note)
	}

	account, err := s.GetAccount(ctx, savings.ID)
	if err != nil {
		t.Fatal(err)
	}
	if b, _ := account.Balance(); !b.Equal(dec("1212")) {
		t.Errorf("balance = %s, want 1212", b)
	}

	// Running again the same day is a no-op.
	posted, err = p.Process(ctx, at(2, 15).Add(6*time.Hour))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if posted != 0 {
		t.Errorf("second Process() posted %d, want 0", posted)
	}

	// The next payout compounds on the new balance.
	if _, err := p.Process(ctx, at(3, 15)); err != nil {
		t.Fatal(err)
	}
	got = interestPostings(t, s, savings)
	if len(got) != 2 || !got[1].Amount.Equal(dec("12.12")) {
		t.Fatalf("postings = %+v, want a second payout of 12.12", got)
	}

	events := 0
	for _, typ := range pub.types() {
		if typ == "transaction.added" {
			events++
		}
	}
	if events != 2 {
		t.Errorf("published %d transaction events, want 2", events)
	}
}

func TestInterestProcessor_DailyRoundsToCents(t *testing.T) {
	s := newTestService(t, nil)
	p := NewInterestProcessor(s, testLogger())

	savings := createSavings(t, s, "High yield", "1000", "3.65", 365, at(1, 1))

	if _, err := p.Process(context.Background(), at(1, 2)); err != nil {
		t.Fatal(err)
	}
	got := interestPostings(t, s, savings)
	if len(got) != 1 || !got[0].Amount.Equal(dec("0.10")) {
		t.Fatalf("postings = %+v, want one payout of 0.10", got)
	}
	if !got[0].Date.Equal(at(1, 2)) {
		t.Errorf("posting date = %s, want %s", got[0].Date, at(1, 2))
	}
}

func TestInterestProcessor_SkipsZeroPayout(t *testing.T) {
	s := newTestService(t, nil)
	p := NewInterestProcessor(s, testLogger())

	empty := createSavings(t, s, "Empty", "0", "5", 12, at(1, 1))
	tiny := createSavings(t, s, "Tiny", "0.10", "1", 12, at(1, 1))

	posted, err := p.Process(context.Background(), at(3, 1))
	if err != nil {
		t.Fatal(err)
	}
	if posted != 0 {
		t.Errorf("Process() posted %d, want 0", posted)
	}
	if n := len(interestPostings(t, s, empty)) + len(interestPostings(t, s, tiny)); n != 0 {
		t.Errorf("interest postings = %d, want 0", n)
	}
}

func TestInterestProcessor_NotInitialized(t *testing.T) {
	p := &InterestProcessor{}
	if _, err := p.Process(context.Background(), time.Now()); err == nil {
		t.Error("Process() without a ledger should fail")
	}
}
