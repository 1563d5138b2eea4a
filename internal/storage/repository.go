package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"coinjar/internal/core"
	"coinjar/internal/ledger"

	_ "modernc.org/sqlite"
)

var _ ledger.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Balance updates read then write; writers go through one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return listAccounts(ctx, r.queries)
}

func listAccounts(ctx context.Context, q *Queries) ([]core.Account, error) {
	rows, err := q.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]core.Account, 0, len(rows))
	for _, row := range rows {
		a, err := row.Decode()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id uuid.UUID) (core.Account, error) {
	return getAccount(ctx, r.queries, id)
}

func getAccount(ctx context.Context, q *Queries, id uuid.UUID) (core.Account, error) {
	row, err := q.GetAccount(ctx, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("get account %s: %w", id, core.ErrAccountNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %s: %w", id, err)
	}
	return row.Decode()
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a, err := ledger.PrepareAccount(a)
	if err != nil {
		return core.Account{}, err
	}
	row, err := ledger.EncodeAccount(a)
	if err != nil {
		return core.Account{}, err
	}
	if err := r.queries.CreateAccount(ctx, row); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id uuid.UUID) (ledger.Deletion, error) {
	var del ledger.Deletion
	err := r.inTx(ctx, func(q *Queries) error {
		a, err := getAccount(ctx, q, id)
		if err != nil {
			return err
		}
		n, err := q.DeleteAccountTransactions(ctx, id.String())
		if err != nil {
			return fmt.Errorf("delete transactions of %s: %w", id, err)
		}
		if _, err := q.DeleteAccount(ctx, id.String()); err != nil {
			return fmt.Errorf("delete account %s: %w", id, err)
		}
		del = ledger.Deletion{Account: a, Transactions: int(n)}
		return nil
	})
	return del, err
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f ledger.TransactionFilter) ([]core.Transaction, error) {
	return listTransactions(ctx, r.queries, f)
}

func listTransactions(ctx context.Context, q *Queries, f ledger.TransactionFilter) ([]core.Transaction, error) {
	p := ListTransactionsParams{Limit: f.Limit}
	if f.AccountID != uuid.Nil {
		p.AccountID = f.AccountID.String()
	}
	rows, err := q.ListTransactions(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.Decode()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Snapshot reads inside one deferred transaction; SQLite keeps its view
// fixed from the first read until commit.
func (r *SQLiteRepository) Snapshot(ctx context.Context, accountID uuid.UUID) (ledger.Snapshot, error) {
	var snap ledger.Snapshot
	err := r.inTx(ctx, func(q *Queries) error {
		if accountID != uuid.Nil {
			a, err := getAccount(ctx, q, accountID)
			if err != nil {
				return err
			}
			snap.Accounts = []core.Account{a}
		} else {
			accounts, err := listAccounts(ctx, q)
			if err != nil {
				return err
			}
			snap.Accounts = accounts
		}
		txns, err := listTransactions(ctx, q, ledger.TransactionFilter{AccountID: accountID})
		if err != nil {
			return err
		}
		snap.Transactions = txns
		return nil
	})
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	return snap, nil
}

func (r *SQLiteRepository) LastTransaction(ctx context.Context, accountID uuid.UUID, source string) (core.Transaction, bool, error) {
	row, err := r.queries.LastTransactionBySource(ctx, accountID.String(), source)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, false, nil
	}
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("last %s transaction of %s: %w", source, accountID, err)
	}
	t, err := row.Decode()
	if err != nil {
		return core.Transaction{}, false, err
	}
	return t, true, nil
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, core.Account, error) {
	t, err := ledger.PrepareTransaction(t)
	if err != nil {
		return core.Transaction{}, core.Account{}, err
	}

	var updated core.Account
	err = r.inTx(ctx, func(q *Queries) error {
		a, err := getAccount(ctx, q, t.AccountID)
		if err != nil {
			return fmt.Errorf("add transaction: %w", err)
		}
		if updated, err = a.Apply(t.Amount); err != nil {
			return fmt.Errorf("add transaction: %w", err)
		}
		if err := q.CreateTransaction(ctx, ledger.EncodeTransaction(t)); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return updateBalance(ctx, q, updated)
	})
	if err != nil {
		return core.Transaction{}, core.Account{}, err
	}
	return t, updated, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, core.Account, error) {
	var (
		deleted core.Transaction
		updated core.Account
	)
	err := r.inTx(ctx, func(q *Queries) error {
		row, err := q.GetTransaction(ctx, id.String())
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("delete transaction %s: %w", id, core.ErrTransactionNotFound)
		}
		if err != nil {
			return fmt.Errorf("get transaction %s: %w", id, err)
		}
		if deleted, err = row.Decode(); err != nil {
			return err
		}
		if err := q.DeleteTransaction(ctx, id.String()); err != nil {
			return fmt.Errorf("delete transaction %s: %w", id, err)
		}

		a, err := getAccount(ctx, q, deleted.AccountID)
		if err != nil {
			return err
		}
		if updated, err = a.Apply(deleted.Amount.Neg()); err != nil {
			// Nothing to reverse on an account without a balance.
			updated = a
			return nil
		}
		return updateBalance(ctx, q, updated)
	})
	if err != nil {
		return core.Transaction{}, core.Account{}, err
	}
	return deleted, updated, nil
}

func updateBalance(ctx context.Context, q *Queries, a core.Account) error {
	b, _ := a.Balance()
	if err := q.UpdateAccountBalance(ctx, a.ID.String(), b.String()); err != nil {
		return fmt.Errorf("update balance of %s: %w", a.ID, err)
	}
	return nil
}
