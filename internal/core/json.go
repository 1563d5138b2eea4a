package core

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type accountJSON struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	Type         AccountType      `json:"type"`
	Category     Category         `json:"category"`
	CreatedAt    time.Time        `json:"created_at"`
	Balance      *decimal.Decimal `json:"balance,omitempty"`
	InterestRate *decimal.Decimal `json:"interest_rate,omitempty"`
	Compounding  int              `json:"compounding,omitempty"`
	Positions    []Position       `json:"positions,omitempty"`
}

// MarshalJSON writes the account flat, with variant fields inlined. Accounts
// without a scalar balance omit "balance" entirely.
func (a Account) MarshalJSON() ([]byte, error) {
	spec := SpecOf(a.Variant)
	out := accountJSON{
		ID:        a.ID,
		Name:      a.Name,
		Type:      spec.Type,
		Category:  a.Category,
		CreatedAt: a.CreatedAt,
	}
	switch spec.Type {
	case TypeChecking:
		out.Balance = &spec.Balance
	case TypeSavings:
		out.Balance = &spec.Balance
		out.InterestRate = &spec.InterestRate
		out.Compounding = spec.Compounding
	case TypeBrokerage:
		out.Positions = spec.Positions
		if out.Positions == nil {
			out.Positions = []Position{}
		}
	}
	return json.Marshal(out)
}

func (a *Account) UnmarshalJSON(data []byte) error {
	var in accountJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	spec := VariantSpec{Type: in.Type, Compounding: in.Compounding, Positions: in.Positions}
	if in.Balance != nil {
		spec.Balance = *in.Balance
	}
	if in.InterestRate != nil {
		spec.InterestRate = *in.InterestRate
	}
	v, err := NewVariant(spec)
	if err != nil {
		return fmt.Errorf("decode account %s: %w", in.ID, err)
	}
	*a = Account{
		ID:        in.ID,
		Name:      in.Name,
		Category:  in.Category,
		CreatedAt: in.CreatedAt,
		Variant:   v,
	}
	return nil
}

type transactionJSON struct {
	ID        uuid.UUID       `json:"id"`
	AccountID uuid.UUID       `json:"account_id"`
	Source    string          `json:"source"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note,omitempty"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON(t))
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var in transactionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = Transaction(in)
	return nil
}
