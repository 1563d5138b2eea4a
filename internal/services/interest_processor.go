package services

import (
	"context"
	"fmt"
	"time"

	"coinjar/internal/core"
	"coinjar/internal/log"
)

// InterestProcessor posts interest payouts to savings accounts.
type InterestProcessor struct {
	ledger *LedgerService
	logger *log.Logger
}

func NewInterestProcessor(ledger *LedgerService, logger *log.Logger) *InterestProcessor {
	return &InterestProcessor{
		ledger: ledger,
		logger: logger.WithComponent(log.ComponentInterest),
	}
}

// Process posts one payout to every savings account that is due at now and
// returns how many were posted. Failures on one account are logged and do
// not stop the others.
func (p *InterestProcessor) Process(ctx context.Context, now time.Time) (int, error) {
	if p.ledger == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	accounts, err := p.ledger.ListAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}

	checked, posted := 0, 0
	for _, account := range accounts {
		savings, ok := account.Variant.(core.Savings)
		if !ok {
			continue
		}
		checked++

		due, err := p.isDue(ctx, account, savings, now)
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to check if interest is due",
				log.FieldAccountID, account.ID.String(),
				log.FieldError, err.Error())
			continue
		}
		if !due {
			continue
		}

		payout := core.Cents(core.InterestPayout(savings))
		if payout.IsZero() {
			continue
		}

		txn := core.Transaction{
			AccountID: account.ID,
			Source:    core.SourceInterest,
			Date:      now,
			Amount:    payout,
			Note:      fmt.Sprintf("%s%% APY", core.APY(savings).StringFixed(2)),
		}
		if _, _, err := p.ledger.AddTransaction(ctx, txn); err != nil {
			p.logger.ErrorContext(ctx, "Failed to post interest",
				log.FieldAccountID, account.ID.String(),
				log.FieldAmount, payout.String(),
				log.FieldError, err.Error())
			continue
		}
		posted++
	}

	p.logger.InfoContext(ctx, "Interest processing complete",
		"posted", posted,
		"savings_accounts", checked,
		"processing_date", now.UTC().Format("2006-01-02"))

	return posted, nil
}

func (p *InterestProcessor) isDue(ctx context.Context, account core.Account, savings core.Savings, now time.Time) (bool, error) {
	checker, err := GetDuenessChecker(savings.Compounding)
	if err != nil {
		return false, err
	}

	last := account.CreatedAt
	prev, ok, err := p.ledger.LastTransaction(ctx, account.ID, core.SourceInterest)
	if err != nil {
		return false, fmt.Errorf("last interest posting: %w", err)
	}
	if ok {
		last = prev.Date
	}
	return checker.IsDue(last, now, core.DayOf(account.CreatedAt)), nil
}
