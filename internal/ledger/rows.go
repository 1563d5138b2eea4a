package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"coinjar/internal/core"
)

// AccountRow is the column layout shared by the SQL stores. Variant fields
// that do not apply are NULL.
type AccountRow struct {
	ID           string
	Name         string
	Category     int64
	Type         string
	Balance      sql.NullString
	InterestRate sql.NullString
	Compounding  sql.NullInt64
	Positions    sql.NullString
	CreatedAt    time.Time
}

func EncodeAccount(a core.Account) (AccountRow, error) {
	spec := core.SpecOf(a.Variant)
	row := AccountRow{
		ID:        a.ID.String(),
		Name:      a.Name,
		Category:  int64(a.Category),
		Type:      string(spec.Type),
		CreatedAt: a.CreatedAt.UTC(),
	}
	switch spec.Type {
	case core.TypeChecking:
		row.Balance = sql.NullString{String: spec.Balance.String(), Valid: true}
	case core.TypeSavings:
		row.Balance = sql.NullString{String: spec.Balance.String(), Valid: true}
		row.InterestRate = sql.NullString{String: spec.InterestRate.String(), Valid: true}
		row.Compounding = sql.NullInt64{Int64: int64(spec.Compounding), Valid: true}
	case core.TypeBrokerage:
		positions := spec.Positions
		if positions == nil {
			positions = []core.Position{}
		}
		data, err := json.Marshal(positions)
		if err != nil {
			return AccountRow{}, fmt.Errorf("encode positions: %w", err)
		}
		row.Positions = sql.NullString{String: string(data), Valid: true}
	}
	return row, nil
}

func (r AccountRow) Decode() (core.Account, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return core.Account{}, fmt.Errorf("parse account id %q: %w", r.ID, err)
	}

	spec := core.VariantSpec{Type: core.AccountType(r.Type), Compounding: int(r.Compounding.Int64)}
	if r.Balance.Valid {
		if spec.Balance, err = decimal.NewFromString(r.Balance.String); err != nil {
			return core.Account{}, fmt.Errorf("parse balance of %s: %w", r.ID, err)
		}
	}
	if r.InterestRate.Valid {
		if spec.InterestRate, err = decimal.NewFromString(r.InterestRate.String); err != nil {
			return core.Account{}, fmt.Errorf("parse interest rate of %s: %w", r.ID, err)
		}
	}
	if r.Positions.Valid && r.Positions.String != "" {
		if err := json.Unmarshal([]byte(r.Positions.String), &spec.Positions); err != nil {
			return core.Account{}, fmt.Errorf("parse positions of %s: %w", r.ID, err)
		}
	}

	v, err := core.NewVariant(spec)
	if err != nil {
		return core.Account{}, fmt.Errorf("decode account %s: %w", r.ID, err)
	}
	return core.Account{
		ID:        id,
		Name:      r.Name,
		Category:  core.Category(r.Category),
		CreatedAt: r.CreatedAt.UTC(),
		Variant:   v,
	}, nil
}

// TransactionRow mirrors the transactions table.
type TransactionRow struct {
	ID        string
	AccountID string
	Source    string
	Date      time.Time
	Amount    string
	Note      string
}

func EncodeTransaction(t core.Transaction) TransactionRow {
	return TransactionRow{
		ID:        t.ID.String(),
		AccountID: t.AccountID.String(),
		Source:    t.Source,
		Date:      t.Date.UTC(),
		Amount:    t.Amount.String(),
		Note:      t.Note,
	}
}

func (r TransactionRow) Decode() (core.Transaction, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction id %q: %w", r.ID, err)
	}
	accountID, err := uuid.Parse(r.AccountID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse account id %q: %w", r.AccountID, err)
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount of %s: %w", r.ID, err)
	}
	return core.Transaction{
		ID:        id,
		AccountID: accountID,
		Source:    r.Source,
		Date:      r.Date.UTC(),
		Amount:    amount,
		Note:      r.Note,
	}, nil
}
