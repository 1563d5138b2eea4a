// Package seed fills a running coinjar API with plausible sample data.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"coinjar/internal/apiclient"
	"coinjar/internal/core"
	"coinjar/internal/log"
)

// API is the subset of the client the seeder needs.
type API interface {
	CreateAccount(ctx context.Context, in apiclient.CreateAccountInput) (core.Account, error)
	AddTransaction(ctx context.Context, in apiclient.AddTransactionInput) (core.Transaction, error)
}

type Options struct {
	Seed            int64 // 0 picks a random seed
	TransactionsPer int
	Days            int // Transactions are spread over this many days before Today
	Today           time.Time
}

type Result struct {
	Accounts     int
	Transactions int
}

type Seeder struct {
	api    API
	faker  *gofakeit.Faker
	opts   Options
	logger *log.Logger
}

func New(api API, opts Options, logger *log.Logger) *Seeder {
	if opts.TransactionsPer <= 0 {
		opts.TransactionsPer = 20
	}
	if opts.Days <= 0 {
		opts.Days = 90
	}
	if opts.Today.IsZero() {
		opts.Today = time.Now().UTC()
	}
	return &Seeder{
		api:    api,
		faker:  gofakeit.New(opts.Seed),
		opts:   opts,
		logger: logger.WithComponent(log.ComponentSeed),
	}
}

// Accounts returns one account of each kind plus a credit card liability.
func (s *Seeder) Accounts() []apiclient.CreateAccountInput {
	f := s.faker
	return []apiclient.CreateAccountInput{
		{
			Name:    f.Company() + " Checking",
			Type:    core.TypeChecking,
			Balance: price(f, 500, 5000),
		},
		{
			Name:         f.Company() + " Savings",
			Type:         core.TypeSavings,
			Balance:      price(f, 1000, 20000),
			InterestRate: fmt.Sprintf("%.2f", f.Float64Range(0.5, 5)),
			Compounding:  12,
		},
		{
			Name: f.Company() + " Brokerage",
			Type: core.TypeBrokerage,
			Positions: []core.Position{
				{Symbol: "VTI", Quantity: decimal.NewFromInt(int64(f.Number(1, 50)))},
				{Symbol: "BND", Quantity: decimal.NewFromInt(int64(f.Number(1, 50)))},
			},
		},
		{
			Name:     f.CreditCardType() + " Credit Card",
			Type:     core.TypeChecking,
			Category: core.Liability,
			Balance:  price(f, 100, 2000),
		},
	}
}

// Transactions builds n transactions against accountID, dated within the
// configured window and sorted oldest first.
func (s *Seeder) Transactions(accountID uuid.UUID, n int) []apiclient.AddTransactionInput {
	f := s.faker
	start := s.opts.Today.AddDate(0, 0, -s.opts.Days)
	out := make([]apiclient.AddTransactionInput, 0, n)
	for i := 0; i < n; i++ {
		offset := f.Number(0, s.opts.Days)
		date := start.AddDate(0, 0, offset)
		amount := price(f, 5, 300)
		if f.Bool() {
			amount = "-" + amount
		}
		out = append(out, apiclient.AddTransactionInput{
			AccountID: accountID,
			Source:    f.Company(),
			Amount:    amount,
			Date:      date.Format(time.DateOnly),
			Note:      f.Sentence(5),
		})
	}
	return out
}

// Run creates the accounts and, for every account that tracks a balance,
// its transactions.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result
	for _, in := range s.Accounts() {
		acct, err := s.api.CreateAccount(ctx, in)
		if err != nil {
			return res, fmt.Errorf("create account %q: %w", in.Name, err)
		}
		res.Accounts++
		s.logger.Info("Seeded account", log.FieldAccountID, acct.ID.String(), "name", acct.Name, "type", string(in.Type))

		if in.Type == core.TypeBrokerage {
			continue
		}
		for _, txn := range s.Transactions(acct.ID, s.opts.TransactionsPer) {
			if _, err := s.api.AddTransaction(ctx, txn); err != nil {
				return res, fmt.Errorf("add transaction to %q: %w", acct.Name, err)
			}
			res.Transactions++
		}
	}
	return res, nil
}

func price(f *gofakeit.Faker, min, max float64) string {
	return fmt.Sprintf("%.2f", f.Price(min, max))
}
