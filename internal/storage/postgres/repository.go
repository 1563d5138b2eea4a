// Package postgres stores the ledger in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"coinjar/internal/core"
	"coinjar/internal/ledger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ ledger.Store = (*Repository)(nil)

type Repository struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and applies pending migrations.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := RunMigrations(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repository{pool: pool}, nil
}

// RunMigrations applies the embedded schema through a database/sql handle
// borrowed from pool.
func RunMigrations(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create pgx migrate driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply ledger migrations: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return r.inTxWith(ctx, pgx.TxOptions{}, fn)
}

func (r *Repository) inTxWith(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const selectAccount = `SELECT id::text, name, category, type, balance::text, interest_rate::text,
       compounding, positions::text, created_at
FROM accounts`

func scanAccount(row pgx.Row) (core.Account, error) {
	var r ledger.AccountRow
	err := row.Scan(&r.ID, &r.Name, &r.Category, &r.Type, &r.Balance, &r.InterestRate,
		&r.Compounding, &r.Positions, &r.CreatedAt)
	if err != nil {
		return core.Account{}, err
	}
	return r.Decode()
}

const selectTransaction = `SELECT id::text, account_id::text, source, date, amount::text, note FROM transactions`

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var r ledger.TransactionRow
	if err := row.Scan(&r.ID, &r.AccountID, &r.Source, &r.Date, &r.Amount, &r.Note); err != nil {
		return core.Transaction{}, err
	}
	return r.Decode()
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	rowQuerier
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *Repository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return listAccounts(ctx, r.pool)
}

func listAccounts(ctx context.Context, q querier) ([]core.Account, error) {
	rows, err := q.Query(ctx, selectAccount+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) GetAccount(ctx context.Context, id uuid.UUID) (core.Account, error) {
	return getAccount(ctx, r.pool, id, false)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getAccount(ctx context.Context, q rowQuerier, id uuid.UUID, lock bool) (core.Account, error) {
	query := selectAccount + ` WHERE id = $1::text::uuid`
	if lock {
		query += ` FOR UPDATE`
	}
	a, err := scanAccount(q.QueryRow(ctx, query, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Account{}, fmt.Errorf("get account %s: %w", id, core.ErrAccountNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %s: %w", id, err)
	}
	return a, nil
}

func (r *Repository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a, err := ledger.PrepareAccount(a)
	if err != nil {
		return core.Account{}, err
	}
	row, err := ledger.EncodeAccount(a)
	if err != nil {
		return core.Account{}, err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO accounts
    (id, name, category, type, balance, interest_rate, compounding, positions, created_at)
VALUES ($1::text::uuid, $2, $3, $4, $5::text::numeric, $6::text::numeric, $7, $8::text::jsonb, $9)`,
		row.ID, row.Name, row.Category, row.Type, row.Balance, row.InterestRate,
		row.Compounding, row.Positions, row.CreatedAt)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

func (r *Repository) DeleteAccount(ctx context.Context, id uuid.UUID) (ledger.Deletion, error) {
	var del ledger.Deletion
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		a, err := getAccount(ctx, tx, id, true)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE account_id = $1::text::uuid`, id.String())
		if err != nil {
			return fmt.Errorf("delete transactions of %s: %w", id, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1::text::uuid`, id.String()); err != nil {
			return fmt.Errorf("delete account %s: %w", id, err)
		}
		del = ledger.Deletion{Account: a, Transactions: int(tag.RowsAffected())}
		return nil
	})
	return del, err
}

func (r *Repository) ListTransactions(ctx context.Context, f ledger.TransactionFilter) ([]core.Transaction, error) {
	return listTransactions(ctx, r.pool, f)
}

func listTransactions(ctx context.Context, q querier, f ledger.TransactionFilter) ([]core.Transaction, error) {
	var accountID, limit any
	if f.AccountID != uuid.Nil {
		accountID = f.AccountID.String()
	}
	if f.Limit > 0 {
		limit = f.Limit
	}
	rows, err := q.Query(ctx, `SELECT * FROM (`+selectTransaction+`
    WHERE $1::text IS NULL OR account_id = $1::text::uuid
    ORDER BY date DESC, id DESC
    LIMIT $2::integer
) recent ORDER BY date, id`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Snapshot reads in a read-only REPEATABLE READ transaction so every query
// sees the same committed state.
func (r *Repository) Snapshot(ctx context.Context, accountID uuid.UUID) (ledger.Snapshot, error) {
	var snap ledger.Snapshot
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := r.inTxWith(ctx, opts, func(tx pgx.Tx) error {
		if accountID != uuid.Nil {
			a, err := getAccount(ctx, tx, accountID, false)
			if err != nil {
				return err
			}
			snap.Accounts = []core.Account{a}
		} else {
			accounts, err := listAccounts(ctx, tx)
			if err != nil {
				return err
			}
			snap.Accounts = accounts
		}
		txns, err := listTransactions(ctx, tx, ledger.TransactionFilter{AccountID: accountID})
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

func (r *Repository) LastTransaction(ctx context.Context, accountID uuid.UUID, source string) (core.Transaction, bool, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx, selectTransaction+`
WHERE account_id = $1::text::uuid AND source = $2
ORDER BY date DESC, id DESC
LIMIT 1`, accountID.String(), source))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, false, nil
	}
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("last %s transaction of %s: %w", source, accountID, err)
	}
	return t, true, nil
}

func (r *Repository) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, core.Account, error) {
	t, err := ledger.PrepareTransaction(t)
	if err != nil {
		return core.Transaction{}, core.Account{}, err
	}

	var updated core.Account
	err = r.inTx(ctx, func(tx pgx.Tx) error {
		a, err := getAccount(ctx, tx, t.AccountID, true)
		if err != nil {
			return fmt.Errorf("add transaction: %w", err)
		}
		if updated, err = a.Apply(t.Amount); err != nil {
			return fmt.Errorf("add transaction: %w", err)
		}
		row := ledger.EncodeTransaction(t)
		if _, err := tx.Exec(ctx, `INSERT INTO transactions (id, account_id, source, date, amount, note)
VALUES ($1::text::uuid, $2::text::uuid, $3, $4, $5::text::numeric, $6)`,
			row.ID, row.AccountID, row.Source, row.Date, row.Amount, row.Note); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return updateBalance(ctx, tx, updated)
	})
	if err != nil {
		return core.Transaction{}, core.Account{}, err
	}
	return t, updated, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, core.Account, error) {
	var (
		deleted core.Transaction
		updated core.Account
	)
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		deleted, err = scanTransaction(tx.QueryRow(ctx, `DELETE FROM transactions WHERE id = $1::text::uuid
RETURNING id::text, account_id::text, source, date, amount::text, note`, id.String()))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("delete transaction %s: %w", id, core.ErrTransactionNotFound)
		}
		if err != nil {
			return fmt.Errorf("delete transaction %s: %w", id, err)
		}

		a, err := getAccount(ctx, tx, deleted.AccountID, true)
		if err != nil {
			return err
		}
		if updated, err = a.Apply(deleted.Amount.Neg()); err != nil {
			updated = a
			return nil
		}
		return updateBalance(ctx, tx, updated)
	})
	if err != nil {
		return core.Transaction{}, core.Account{}, err
	}
	return deleted, updated, nil
}

func updateBalance(ctx context.Context, tx pgx.Tx, a core.Account) error {
	b, _ := a.Balance()
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1::text::numeric WHERE id = $2::text::uuid`,
		b.String(), a.ID.String()); err != nil {
		return fmt.Errorf("update balance of %s: %w", a.ID, err)
	}
	return nil
}
