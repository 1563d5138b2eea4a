package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"coinjar/internal/core"
	"coinjar/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

// Store keeps the ledger in process memory. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]core.Account
	order    []uuid.UUID
	txns     map[uuid.UUID]core.Transaction
}

func New() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]core.Account),
		txns:     make(map[uuid.UUID]core.Transaction),
	}
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Account, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.accounts[id])
	}
	return out, nil
}

func (s *Store) GetAccount(_ context.Context, id uuid.UUID) (core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, fmt.Errorf("get account %s: %w", id, core.ErrAccountNotFound)
	}
	return a, nil
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	a, err := ledger.PrepareAccount(a)
	if err != nil {
		return core.Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[a.ID]; exists {
		return core.Account{}, fmt.Errorf("create account %s: already exists", a.ID)
	}
	s.accounts[a.ID] = a
	s.order = append(s.order, a.ID)
	return a, nil
}

func (s *Store) DeleteAccount(_ context.Context, id uuid.UUID) (ledger.Deletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return ledger.Deletion{}, fmt.Errorf("delete account %s: %w", id, core.ErrAccountNotFound)
	}

	removed := 0
	for tid, t := range s.txns {
		if t.AccountID == id {
			delete(s.txns, tid)
			removed++
		}
	}
	delete(s.accounts, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return ledger.Deletion{Account: a, Transactions: removed}, nil
}

func (s *Store) ListTransactions(_ context.Context, f ledger.TransactionFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	out := make([]core.Transaction, 0, len(s.txns))
	for _, t := range s.txns {
		if f.AccountID != uuid.Nil && t.AccountID != f.AccountID {
			continue
		}
		out = append(out, t)
	}
	s.mu.RUnlock()

	core.SortTransactions(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

func (s *Store) Snapshot(_ context.Context, accountID uuid.UUID) (ledger.Snapshot, error) {
	s.mu.RLock()
	var snap ledger.Snapshot
	if accountID != uuid.Nil {
		a, ok := s.accounts[accountID]
		if !ok {
			s.mu.RUnlock()
			return ledger.Snapshot{}, fmt.Errorf("snapshot %s: %w", accountID, core.ErrAccountNotFound)
		}
		snap.Accounts = []core.Account{a}
	} else {
		snap.Accounts = make([]core.Account, 0, len(s.order))
		for _, id := range s.order {
			snap.Accounts = append(snap.Accounts, s.accounts[id])
		}
	}
	for _, t := range s.txns {
		if accountID == uuid.Nil || t.AccountID == accountID {
			snap.Transactions = append(snap.Transactions, t)
		}
	}
	s.mu.RUnlock()

	core.SortTransactions(snap.Transactions)
	return snap, nil
}

func (s *Store) LastTransaction(_ context.Context, accountID uuid.UUID, source string) (core.Transaction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		last  core.Transaction
		found bool
	)
	for _, t := range s.txns {
		if t.AccountID != accountID || t.Source != source {
			continue
		}
		if !found || t.Date.After(last.Date) {
			last, found = t, true
		}
	}
	return last, found, nil
}

func (s *Store) AddTransaction(_ context.Context, t core.Transaction) (core.Transaction, core.Account, error) {
	t, err := ledger.PrepareTransaction(t)
	if err != nil {
		return core.Transaction{}, core.Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[t.AccountID]
	if !ok {
		return core.Transaction{}, core.Account{}, fmt.Errorf("add transaction: %w", core.ErrAccountNotFound)
	}
	updated, err := a.Apply(t.Amount)
	if err != nil {
		return core.Transaction{}, core.Account{}, fmt.Errorf("add transaction: %w", err)
	}
	s.accounts[a.ID] = updated
	s.txns[t.ID] = t
	return t, updated, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id uuid.UUID) (core.Transaction, core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txns[id]
	if !ok {
		return core.Transaction{}, core.Account{}, fmt.Errorf("delete transaction %s: %w", id, core.ErrTransactionNotFound)
	}
	delete(s.txns, id)

	a, ok := s.accounts[t.AccountID]
	if !ok {
		return t, core.Account{}, nil
	}
	updated, err := a.Apply(t.Amount.Neg())
	if err != nil {
		return t, a, nil
	}
	s.accounts[a.ID] = updated
	return t, updated, nil
}

func (s *Store) Close() error { return nil }
