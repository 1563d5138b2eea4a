// Package ledgertest holds the behavior every ledger.Store must share.
package ledgertest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"coinjar/internal/core"
	"coinjar/internal/ledger"
)

// Run exercises a store built by newStore. Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) ledger.Store) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s ledger.Store)
	}{
		{"create and get account", testCreateAndGet},
		{"variants round trip", testVariantsRoundTrip},
		{"add transaction updates balance", testAddTransaction},
		{"add transaction to missing account", testAddMissingAccount},
		{"add transaction to brokerage", testAddBrokerage},
		{"delete transaction reverses balance", testDeleteTransaction},
		{"delete account cascades", testDeleteAccount},
		{"list transactions filter and limit", testListTransactions},
		{"last transaction by source", testLastTransaction},
		{"snapshot is consistent", testSnapshot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustAccount(t *testing.T, s ledger.Store, name string, v core.Variant) core.Account {
	t.Helper()
	a, err := s.CreateAccount(context.Background(), core.Account{
		Name:      name,
		Category:  core.Asset,
		CreatedAt: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		Variant:   v,
	})
	if err != nil {
		t.Fatalf("create account %q: %v", name, err)
	}
	return a
}

func mustTxn(t *testing.T, s ledger.Store, account uuid.UUID, day int, amount, source string) core.Transaction {
	t.Helper()
	tx, _, err := s.AddTransaction(context.Background(), core.Transaction{
		AccountID: account,
		Source:    source,
		Date:      time.Date(2025, 1, day, 12, 0, 0, 0, time.UTC),
		Amount:    dec(amount),
		Note:      "note",
	})
	if err != nil {
		t.Fatalf("add transaction: %v", err)
	}
	return tx
}

func balanceOf(t *testing.T, s ledger.Store, id uuid.UUID) decimal.Decimal {
	t.Helper()
	a, err := s.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	b, ok := a.Balance()
	if !ok {
		t.Fatalf("account %s has no balance", id)
	}
	return b
}

func testCreateAndGet(t *testing.T, s ledger.Store) {
	a := mustAccount(t, s, "Checking", core.Checking{Balance: dec("10.50")})
	if a.ID == uuid.Nil {
		t.Fatalf("expected generated ID")
	}

	got, err := s.GetAccount(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Checking" || got.Category != core.Asset || !got.CreatedAt.Equal(a.CreatedAt) {
		t.Fatalf("unexpected account: %+v", got)
	}

	if _, err := s.GetAccount(context.Background(), uuid.New()); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	list, err := s.ListAccounts(context.Background())
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v (%d accounts)", err, len(list))
	}
}

func testVariantsRoundTrip(t *testing.T, s ledger.Store) {
	sav := mustAccount(t, s, "Savings", core.Savings{Balance: dec("1000"), InterestRate: dec("4.25"), Compounding: 12})
	brk := mustAccount(t, s, "Brokerage", core.Brokerage{Positions: []core.Position{{Symbol: "VTI", Quantity: dec("3.5")}}})

	got, err := s.GetAccount(context.Background(), sav.ID)
	if err != nil {
		t.Fatalf("get savings: %v", err)
	}
	sv, ok := got.Variant.(core.Savings)
	if !ok || sv.Compounding != 12 || !sv.InterestRate.Equal(dec("4.25")) || !sv.Balance.Equal(dec("1000")) {
		t.Fatalf("savings not restored: %#v", got.Variant)
	}

	got, err = s.GetAccount(context.Background(), brk.ID)
	if err != nil {
		t.Fatalf("get brokerage: %v", err)
	}
	bv, ok := got.Variant.(core.Brokerage)
	if !ok || len(bv.Positions) != 1 || bv.Positions[0].Symbol != "VTI" || !bv.Positions[0].Quantity.Equal(dec("3.5")) {
		t.Fatalf("brokerage not restored: %#v", got.Variant)
	}
}

func testAddTransaction(t *testing.T, s ledger.Store) {
	a := mustAccount(t, s, "Checking", core.Checking{Balance: dec("100")})

	tx, updated, err := s.AddTransaction(context.Background(), core.Transaction{
		AccountID: a.ID,
		Source:    "Payroll",
		Date:      time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		Amount:    dec("20.25"),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if tx.ID == uuid.Nil {
		t.Fatalf("expected generated transaction ID")
	}
	if b, _ := updated.Balance(); !b.Equal(dec("120.25")) {
		t.Fatalf("returned balance = %s, want 120.25", b)
	}
	if b := balanceOf(t, s, a.ID); !b.Equal(dec("120.25")) {
		t.Fatalf("stored balance = %s, want 120.25", b)
	}
}

func testAddMissingAccount(t *testing.T, s ledger.Store) {
	_, _, err := s.AddTransaction(context.Background(), core.Transaction{
		AccountID: uuid.New(),
		Source:    "Nowhere",
		Date:      time.Now(),
		Amount:    dec("1"),
	})
	if !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func testAddBrokerage(t *testing.T, s ledger.Store) {
	a := mustAccount(t, s, "Stocks", core.Brokerage{})
	_, _, err := s.AddTransaction(context.Background(), core.Transaction{
		AccountID: a.ID,
		Source:    "Deposit",
		Date:      time.Now(),
		Amount:    dec("1"),
	})
	if !errors.Is(err, core.ErrBalanceNotTracked) {
		t.Fatalf("expected ErrBalanceNotTracked, got %v", err)
	}
	txns, err := s.ListTransactions(context.Background(), ledger.TransactionFilter{AccountID: a.ID})
	if err != nil || len(txns) != 0 {
		t.Fatalf("expected no stored transactions, got %d (%v)", len(txns), err)
	}
}

func testDeleteTransaction(t *testing.T, s ledger.Store) {
	a := mustAccount(t, s, "Checking", core.Checking{Balance: dec("50")})
	tx := mustTxn(t, s, a.ID, 3, "-12.5", "Groceries")

	deleted, updated, err := s.DeleteTransaction(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.ID != tx.ID || !deleted.Amount.Equal(dec("-12.5")) {
		t.Fatalf("unexpected deleted transaction: %+v", deleted)
	}
	if b, _ := updated.Balance(); !b.Equal(dec("50")) {
		t.Fatalf("returned balance = %s, want 50", b)
	}
	if b := balanceOf(t, s, a.ID); !b.Equal(dec("50")) {
		t.Fatalf("stored balance = %s, want 50", b)
	}

	if _, _, err := s.DeleteTransaction(context.Background(), tx.ID); !errors.Is(err, core.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func testDeleteAccount(t *testing.T, s ledger.Store) {
	a := mustAccount(t, s, "Old", core.Checking{})
	keep := mustAccount(t, s, "Keep", core.Checking{})
	mustTxn(t, s, a.ID, 1, "1", "x")
	mustTxn(t, s, a.ID, 2, "2", "y")
	mustTxn(t, s, keep.ID, 2, "3", "z")

	del, err := s.DeleteAccount(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if del.Transactions != 2 || del.Account.Name != "Old" {
		t.Fatalf("unexpected deletion: %+v", del)
	}

	all, err := s.ListTransactions(context.Background(), ledger.TransactionFilter{})
	if err != nil || len(all) != 1 || all[0].AccountID != keep.ID {
		t.Fatalf("expected only the kept account's transaction, got %v (%v)", all, err)
	}

	if _, err := s.DeleteAccount(context.Background(), a.ID); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func testListTransactions(t *testing.T, s ledger.Store) {
	a := mustAccount(t, s, "A", core.Checking{})
	b := mustAccount(t, s, "B", core.Checking{})
	mustTxn(t, s, a.ID, 9, "1", "late")
	mustTxn(t, s, a.ID, 2, "1", "early")
	mustTxn(t, s, a.ID, 5, "1", "middle")
	mustTxn(t, s, b.ID, 1, "1", "other")

	txns, err := s.ListTransactions(context.Background(), ledger.TransactionFilter{AccountID: a.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 3 || txns[0].Source != "early" || txns[2].Source != "late" {
		t.Fatalf("expected ascending account transactions, got %v", txns)
	}
	if txns[0].Note != "note" {
		t.Fatalf("note not stored: %+v", txns[0])
	}

	limited, err := s.ListTransactions(context.Background(), ledger.TransactionFilter{Limit: 2})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 || limited[0].Source != "middle" || limited[1].Source != "late" {
		t.Fatalf("expected two most recent ascending, got %v", limited)
	}
}

func testLastTransaction(t *testing.T, s ledger.Store) {
	a := mustAccount(t, s, "Savings", core.Savings{Balance: dec("100"), InterestRate: dec("1"), Compounding: 12})
	if _, ok, err := s.LastTransaction(context.Background(), a.ID, core.SourceInterest); err != nil || ok {
		t.Fatalf("expected none, got ok=%v err=%v", ok, err)
	}

	mustTxn(t, s, a.ID, 3, "0.5", core.SourceInterest)
	mustTxn(t, s, a.ID, 10, "5", "Deposit")
	latest := mustTxn(t, s, a.ID, 7, "0.6", core.SourceInterest)

	got, ok, err := s.LastTransaction(context.Background(), a.ID, core.SourceInterest)
	if err != nil || !ok {
		t.Fatalf("expected a transaction, got ok=%v err=%v", ok, err)
	}
	if got.ID != latest.ID {
		t.Fatalf("got %v, want %v", got.ID, latest.ID)
	}
}

func testSnapshot(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	checking := mustAccount(t, s, "Checking", core.Checking{Balance: dec("0")})
	other := mustAccount(t, s, "Other", core.Checking{Balance: dec("5")})
	mustTxn(t, s, checking.ID, 3, "20.00", "Payroll")
	mustTxn(t, s, checking.ID, 1, "100.00", "Payroll")
	mustTxn(t, s, other.ID, 2, "7.00", "Gift")

	snap, err := s.Snapshot(ctx, checking.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Accounts) != 1 || snap.Accounts[0].ID != checking.ID {
		t.Fatalf("accounts = %+v", snap.Accounts)
	}
	if len(snap.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(snap.Transactions))
	}
	if snap.Transactions[0].Date.After(snap.Transactions[1].Date) {
		t.Errorf("transactions not ordered by date: %v, %v", snap.Transactions[0].Date, snap.Transactions[1].Date)
	}
	sum := decimal.Zero
	for _, tx := range snap.Transactions {
		sum = sum.Add(tx.Amount)
	}
	if b, _ := snap.Accounts[0].Balance(); !b.Equal(sum) {
		t.Errorf("balance %s does not match transaction sum %s", b, sum)
	}

	all, err := s.Snapshot(ctx, uuid.Nil)
	if err != nil {
		t.Fatalf("snapshot all: %v", err)
	}
	if len(all.Accounts) != 2 || len(all.Transactions) != 3 {
		t.Errorf("got %d accounts and %d transactions, want 2 and 3", len(all.Accounts), len(all.Transactions))
	}

	if _, err := s.Snapshot(ctx, uuid.New()); !errors.Is(err, core.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}
