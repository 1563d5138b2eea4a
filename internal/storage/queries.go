package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"coinjar/internal/ledger"
)

// Timestamps are stored as fixed-width UTC text so that string order is
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const accountColumns = `id, name, category, type, balance, interest_rate, compounding, positions, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(s scanner) (ledger.AccountRow, error) {
	var (
		row     ledger.AccountRow
		created string
	)
	err := s.Scan(&row.ID, &row.Name, &row.Category, &row.Type, &row.Balance,
		&row.InterestRate, &row.Compounding, &row.Positions, &created)
	if err != nil {
		return row, err
	}
	if row.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return row, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	return row, nil
}

const transactionColumns = `id, account_id, source, date, amount, note`

func scanTransaction(s scanner) (ledger.TransactionRow, error) {
	var (
		row  ledger.TransactionRow
		date string
	)
	if err := s.Scan(&row.ID, &row.AccountID, &row.Source, &date, &row.Amount, &row.Note); err != nil {
		return row, err
	}
	var err error
	if row.Date, err = time.Parse(timeLayout, date); err != nil {
		return row, fmt.Errorf("parse date %q: %w", date, err)
	}
	return row, nil
}

const createAccount = `INSERT INTO accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateAccount(ctx context.Context, r ledger.AccountRow) error {
	_, err := q.db.ExecContext(ctx, createAccount, r.ID, r.Name, r.Category, r.Type, r.Balance,
		r.InterestRate, r.Compounding, r.Positions, r.CreatedAt.UTC().Format(timeLayout))
	return err
}

const getAccountSQL = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`

func (q *Queries) GetAccount(ctx context.Context, id string) (ledger.AccountRow, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getAccountSQL, id))
}

const listAccountsSQL = `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at, id`

func (q *Queries) ListAccounts(ctx context.Context) ([]ledger.AccountRow, error) {
	rows, err := q.db.QueryContext(ctx, listAccountsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ledger.AccountRow
	for rows.Next() {
		r, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const updateAccountBalance = `UPDATE accounts SET balance = ? WHERE id = ?`

func (q *Queries) UpdateAccountBalance(ctx context.Context, id, balance string) error {
	_, err := q.db.ExecContext(ctx, updateAccountBalance, balance, id)
	return err
}

const deleteAccount = `DELETE FROM accounts WHERE id = ?`

func (q *Queries) DeleteAccount(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteAccount, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteAccountTransactions = `DELETE FROM transactions WHERE account_id = ?`

func (q *Queries) DeleteAccountTransactions(ctx context.Context, accountID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteAccountTransactions, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createTransaction = `INSERT INTO transactions (` + transactionColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateTransaction(ctx context.Context, r ledger.TransactionRow) error {
	_, err := q.db.ExecContext(ctx, createTransaction, r.ID, r.AccountID, r.Source,
		r.Date.UTC().Format(timeLayout), r.Amount, r.Note)
	return err
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (ledger.TransactionRow, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteTransaction, id)
	return err
}

// ListTransactionsParams filters by account when AccountID is set and keeps
// the Limit most recent rows when Limit > 0.
type ListTransactionsParams struct {
	AccountID string
	Limit     int
}

const listTransactionsSQL = `SELECT ` + transactionColumns + ` FROM (
    SELECT ` + transactionColumns + ` FROM transactions
    WHERE (? = '' OR account_id = ?)
    ORDER BY date DESC, id DESC
    LIMIT ?
) ORDER BY date, id`

func (q *Queries) ListTransactions(ctx context.Context, p ListTransactionsParams) ([]ledger.TransactionRow, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}
	rows, err := q.db.QueryContext(ctx, listTransactionsSQL, p.AccountID, p.AccountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ledger.TransactionRow
	for rows.Next() {
		r, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const lastTransactionBySource = `SELECT ` + transactionColumns + ` FROM transactions
WHERE account_id = ? AND source = ?
ORDER BY date DESC, id DESC
LIMIT 1`

func (q *Queries) LastTransactionBySource(ctx context.Context, accountID, source string) (ledger.TransactionRow, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, lastTransactionBySource, accountID, source))
}
