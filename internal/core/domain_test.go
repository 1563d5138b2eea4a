package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestDayOf(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 2025-03-02 03:00 at +9 is still 2025-03-01 in UTC.
	ts := time.Date(2025, 3, 2, 3, 0, 0, 0, loc)
	want := civil.Date{Year: 2025, Month: time.March, Day: 1}
	if got := DayOf(ts); got != want {
		t.Fatalf("DayOf = %v, want %v", got, want)
	}
	if got := DayOf(StartOfDay(want)); got != want {
		t.Fatalf("StartOfDay round trip = %v, want %v", got, want)
	}
}

func TestScalarBalance(t *testing.T) {
	cases := []struct {
		v  Variant
		ok bool
	}{
		{Checking{Balance: decimal.NewFromInt(10)}, true},
		{Savings{Balance: decimal.NewFromInt(10), Compounding: 12}, true},
		{Brokerage{Positions: []Position{{Symbol: "VTI", Quantity: decimal.NewFromInt(3)}}}, false},
		{nil, false},
	}
	for i, tc := range cases {
		_, ok := ScalarBalance(tc.v)
		if ok != tc.ok {
			t.Fatalf("case %d: ScalarBalance ok = %v, want %v", i, ok, tc.ok)
		}
	}
}

func TestWithBalance(t *testing.T) {
	v, err := WithBalance(Savings{Balance: decimal.NewFromInt(1), InterestRate: decimal.NewFromInt(2), Compounding: 4}, decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := v.(Savings)
	if !s.Balance.Equal(decimal.NewFromInt(50)) || s.Compounding != 4 {
		t.Fatalf("unexpected savings after update: %+v", s)
	}

	if _, err := WithBalance(Brokerage{}, decimal.NewFromInt(1)); !errors.Is(err, ErrBalanceNotTracked) {
		t.Fatalf("expected ErrBalanceNotTracked, got %v", err)
	}
}

func TestNewVariant(t *testing.T) {
	cases := []struct {
		spec VariantSpec
		want error
	}{
		{VariantSpec{Type: TypeChecking}, nil},
		{VariantSpec{}, nil},
		{VariantSpec{Type: TypeSavings, Compounding: 12, InterestRate: decimal.NewFromInt(3)}, nil},
		{VariantSpec{Type: TypeSavings, Compounding: 0}, ErrInvalidCompounding},
		{VariantSpec{Type: TypeSavings, Compounding: 12, InterestRate: decimal.NewFromInt(-1)}, ErrInvalidRate},
		{VariantSpec{Type: TypeBrokerage, Positions: []Position{{Symbol: " "}}}, ErrInvalidPosition},
		{VariantSpec{Type: "crypto"}, ErrInvalidAccountType},
	}
	for i, tc := range cases {
		_, err := NewVariant(tc.spec)
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %d: err = %v, want %v", i, err, tc.want)
		}
	}
}

func TestAccountValidate(t *testing.T) {
	good := Account{ID: uuid.New(), Name: "Checking", Category: Asset, Variant: Checking{}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		a    Account
		want error
	}{
		{Account{Name: "  ", Category: Asset, Variant: Checking{}}, ErrEmptyName},
		{Account{Name: strings.Repeat("x", 101), Category: Asset, Variant: Checking{}}, ErrNameTooLong},
		{Account{Name: "Card", Category: 0, Variant: Checking{}}, ErrInvalidCategory},
		{Account{Name: "Card", Category: Liability}, ErrInvalidAccountType},
		{Account{Name: "Card", Category: Asset, Variant: Checking{Balance: decimal.New(1, -30000000)}}, ErrInvalidAmount},
		{Account{Name: "Save", Category: Asset, Variant: Savings{Compounding: 12, InterestRate: decimal.NewFromInt(101)}}, ErrInvalidRate},
		{Account{Name: "Stocks", Category: Asset, Variant: Brokerage{Positions: []Position{{Symbol: "VTI", Quantity: decimal.New(1, -9)}}}}, ErrInvalidPosition},
	}
	for i, tc := range bads {
		if err := tc.a.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: err = %v, want %v", i, err, tc.want)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		AccountID: uuid.New(),
		Source:    "Payroll",
		Date:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.NewFromInt(100),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	noSource := good
	noSource.Source = ""
	zero := good
	zero.Amount = decimal.Zero
	noDate := good
	noDate.Date = time.Time{}
	noAccount := good
	noAccount.AccountID = uuid.Nil
	subCent := good
	subCent.Amount = decimal.RequireFromString("0.001")
	tiny := good
	tiny.Amount = decimal.New(1, -30000000)

	for i, tx := range []Transaction{noSource, zero, noDate, noAccount, subCent, tiny} {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSignedBalanceAndNetWorth(t *testing.T) {
	accounts := []Account{
		{Name: "Checking", Category: Asset, Variant: Checking{Balance: decimal.NewFromInt(500)}},
		{Name: "Card", Category: Liability, Variant: Checking{Balance: decimal.NewFromInt(200)}},
		{Name: "Brokerage", Category: Asset, Variant: Brokerage{}},
	}
	if b, ok := accounts[1].SignedBalance(); !ok || !b.Equal(decimal.NewFromInt(-200)) {
		t.Fatalf("signed balance = %s (%v), want -200", b, ok)
	}

	nw := SumNetWorth(accounts)
	if !nw.Total.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("total = %s, want 300", nw.Total)
	}
	if !nw.Assets.Equal(decimal.NewFromInt(500)) || !nw.Liabilities.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("unexpected breakdown: %+v", nw)
	}
	if nw.Accounts != 2 {
		t.Fatalf("contributing accounts = %d, want 2", nw.Accounts)
	}
}

func TestAccountJSON(t *testing.T) {
	created := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	in := Account{
		ID:        uuid.New(),
		Name:      "Rainy day",
		Category:  Asset,
		CreatedAt: created,
		Variant:   Savings{Balance: decimal.RequireFromString("1000.50"), InterestRate: decimal.RequireFromString("4.5"), Compounding: 12},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"type":"savings"`) || !strings.Contains(string(data), `"balance":"1000.5"`) {
		t.Fatalf("unexpected encoding: %s", data)
	}

	var out Account
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s, ok := out.Variant.(Savings)
	if !ok || s.Compounding != 12 || !s.InterestRate.Equal(decimal.RequireFromString("4.5")) {
		t.Fatalf("variant not restored: %#v", out.Variant)
	}

	broker, err := json.Marshal(Account{Name: "Stocks", Category: Asset, Variant: Brokerage{}})
	if err != nil {
		t.Fatalf("marshal brokerage: %v", err)
	}
	if strings.Contains(string(broker), `"balance"`) {
		t.Fatalf("brokerage must not carry a balance: %s", broker)
	}
}
