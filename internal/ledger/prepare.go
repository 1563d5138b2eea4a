package ledger

import (
	"time"

	"github.com/google/uuid"

	"coinjar/internal/core"
)

// Now is the clock stores use to stamp new accounts.
var Now = time.Now

// PrepareAccount fills in a missing ID and creation time, then validates.
func PrepareAccount(a core.Account) (core.Account, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = Now()
	}
	a.CreatedAt = a.CreatedAt.UTC()
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

// PrepareTransaction fills in a missing ID, normalizes the date to UTC and
// validates.
func PrepareTransaction(t core.Transaction) (core.Transaction, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.Date = t.Date.UTC()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}
