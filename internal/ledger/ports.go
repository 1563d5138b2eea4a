// Package ledger defines the persistence ports for accounts and
// transactions. Implementations live in ledger/memory, storage (SQLite) and
// storage/postgres.
//
// Every implementation keeps account balances consistent with the
// transaction log: adding a transaction adds its amount to the owning
// account's balance and deleting one subtracts it, atomically.
package ledger

import (
	"context"

	"github.com/google/uuid"

	"coinjar/internal/core"
)

type (
	AccountReader interface {
		ListAccounts(ctx context.Context) ([]core.Account, error)
		GetAccount(ctx context.Context, id uuid.UUID) (core.Account, error)
	}

	AccountWriter interface {
		CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
		// DeleteAccount removes the account and all of its transactions.
		DeleteAccount(ctx context.Context, id uuid.UUID) (Deletion, error)
	}

	TransactionReader interface {
		// ListTransactions returns matches ordered by date ascending.
		ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
		// LastTransaction returns the latest transaction of the account with
		// the given source. ok is false when there is none.
		LastTransaction(ctx context.Context, accountID uuid.UUID, source string) (t core.Transaction, ok bool, err error)
	}

	TransactionWriter interface {
		// AddTransaction stores t and applies its amount to the owning
		// account, returning both as persisted.
		AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, core.Account, error)
		// DeleteTransaction removes t and reverses its amount.
		DeleteTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, core.Account, error)
	}

	SnapshotReader interface {
		// Snapshot reads accounts and transactions as of one instant, so the
		// balances it returns equal the sum of the transactions behind them.
		// A non-nil accountID narrows both to that account and fails with
		// core.ErrAccountNotFound if it does not exist.
		Snapshot(ctx context.Context, accountID uuid.UUID) (Snapshot, error)
	}

	Store interface {
		AccountReader
		AccountWriter
		TransactionReader
		TransactionWriter
		SnapshotReader
		Close() error
	}
)

// TransactionFilter narrows ListTransactions. Zero values match everything.
type TransactionFilter struct {
	AccountID uuid.UUID
	// Limit keeps only the most recent matches; results stay ascending.
	Limit int
}

// Snapshot is a consistent view of the ledger. Transactions are ordered by
// date ascending.
type Snapshot struct {
	Accounts     []core.Account
	Transactions []core.Transaction
}

// Deletion describes what DeleteAccount removed.
type Deletion struct {
	Account      core.Account
	Transactions int
}
