package services

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"coinjar/internal/amqp"
	"coinjar/internal/cache"
	"coinjar/internal/core"
	"coinjar/internal/history"
	"coinjar/internal/ledger"
	"coinjar/internal/log"
)

// Publisher delivers ledger events to downstream consumers.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
	Close() error
}

// LedgerService orchestrates ledger operations across the store, the event
// publisher and the history memo.
type LedgerService struct {
	store     ledger.Store
	publisher Publisher
	memo      *history.Memo
	logger    *log.Logger
	events    *log.StructuredLogger
}

// NewLedgerService wires a service. publisher may be nil to disable event
// publishing; memo may be nil to compute every series from scratch.
func NewLedgerService(store ledger.Store, publisher Publisher, memo *history.Memo, logger *log.Logger) *LedgerService {
	logger = logger.WithComponent(log.ComponentLedger)
	return &LedgerService{
		store:     store,
		publisher: publisher,
		memo:      memo,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
	}
}

func (s *LedgerService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	created, err := s.store.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	s.logger.InfoContext(ctx, "Account created",
		log.NewFields().WithAccount(created.ID.String(), created.Name, string(created.Type())).ToSlice()...)
	s.publish(ctx, amqp.NewLedgerEvent(amqp.EventAccountCreated, created, nil))
	return created, nil
}

func (s *LedgerService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.store.ListAccounts(ctx)
}

func (s *LedgerService) GetAccount(ctx context.Context, id uuid.UUID) (core.Account, error) {
	return s.store.GetAccount(ctx, id)
}

// DeleteAccount removes the account together with its transactions.
func (s *LedgerService) DeleteAccount(ctx context.Context, id uuid.UUID) (ledger.Deletion, error) {
	del, err := s.store.DeleteAccount(ctx, id)
	if err != nil {
		return ledger.Deletion{}, fmt.Errorf("delete account: %w", err)
	}
	s.logger.InfoContext(ctx, "Account deleted",
		log.NewFields().
			WithAccount(del.Account.ID.String(), del.Account.Name, string(del.Account.Type())).
			WithOperation(log.OpDelete).
			ToSlice()...)
	s.publish(ctx, amqp.NewLedgerEvent(amqp.EventAccountDeleted, del.Account, nil))
	return del, nil
}

// AddTransaction posts t and returns it with the account's new state.
func (s *LedgerService) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, core.Account, error) {
	created, account, err := s.store.AddTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, core.Account{}, fmt.Errorf("add transaction: %w", err)
	}
	balance, _ := account.Balance()
	s.events.LogTransactionAdded(ctx, created.ID.String(), created.AccountID.String(), created.Source, created.Amount, balance)
	s.publish(ctx, amqp.NewLedgerEvent(amqp.EventTransactionAdded, account, &created))
	return created, account, nil
}

// DeleteTransaction removes a transaction and reverses its effect on the
// account balance.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, core.Account, error) {
	deleted, account, err := s.store.DeleteTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, core.Account{}, fmt.Errorf("delete transaction: %w", err)
	}
	s.logger.InfoContext(ctx, "Transaction deleted",
		log.NewFields().
			WithTransaction(deleted.ID.String(), deleted.AccountID.String(), deleted.Source, deleted.Amount).
			WithOperation(log.OpDelete).
			ToSlice()...)
	s.publish(ctx, amqp.NewLedgerEvent(amqp.EventTransactionDeleted, account, &deleted))
	return deleted, account, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, f ledger.TransactionFilter) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, f)
}

func (s *LedgerService) LastTransaction(ctx context.Context, accountID uuid.UUID, source string) (core.Transaction, bool, error) {
	return s.store.LastTransaction(ctx, accountID, source)
}

// AccountHistory reconstructs the balance of one account over w. The balance
// and the transactions come from one snapshot so the series obeys the
// backward law even while writes land.
func (s *LedgerService) AccountHistory(ctx context.Context, id uuid.UUID, w history.Window) (core.Account, []history.Point, error) {
	snap, err := s.store.Snapshot(ctx, id)
	if err != nil {
		return core.Account{}, nil, fmt.Errorf("account history: %w", err)
	}
	account := snap.Accounts[0]

	var points []history.Point
	if s.memo != nil {
		points = s.memo.AccountSeries(account, snap.Transactions, w)
	} else {
		points = history.AccountSeries(account, snap.Transactions, w.Start, w.End)
	}
	s.events.LogHistoryBuilt(ctx, account.ID.String(), w.String(), len(points))
	return account, points, nil
}

// NetWorth sums the signed balances of every account.
func (s *LedgerService) NetWorth(ctx context.Context) (core.NetWorth, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return core.NetWorth{}, fmt.Errorf("net worth: %w", err)
	}
	return core.SumNetWorth(accounts), nil
}

// NetWorthHistory reconstructs daily net worth over w.
func (s *LedgerService) NetWorthHistory(ctx context.Context, w history.Window) ([]history.Point, error) {
	snap, err := s.store.Snapshot(ctx, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("net worth history: %w", err)
	}

	var points []history.Point
	if s.memo != nil {
		points = s.memo.NetWorthSeries(snap.Accounts, snap.Transactions, w)
	} else {
		points = history.NetWorthSeries(snap.Accounts, snap.Transactions, w.Start, w.End)
	}
	s.events.LogHistoryBuilt(ctx, "networth", w.String(), len(points))
	return points, nil
}

// Today is the current UTC calendar day.
func (s *LedgerService) Today() civil.Date {
	return core.DayOf(ledger.Now())
}

// CacheStats reports the history memo counters. A service without a memo
// reports zeros.
func (s *LedgerService) CacheStats() cache.Stats {
	if s.memo == nil {
		return cache.Stats{}
	}
	return s.memo.Cache().Stats()
}

func (s *LedgerService) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldEvent, string(ev.Type),
			log.FieldAccountID, ev.Account.ID.String(),
			log.FieldError, err.Error())
	}
}

// Close closes both the store and the publisher.
func (s *LedgerService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}
