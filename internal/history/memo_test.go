package history

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"coinjar/internal/core"
)

func TestMemo_CachesIdenticalInputs(t *testing.T) {
	m := NewMemo(8, time.Minute)
	a := checking("100", core.Asset)
	txns := []core.Transaction{txn(a.ID, 3, "10")}
	w := Window{Start: day(1), End: day(5)}

	first := m.AccountSeries(a, txns, w)
	second := m.AccountSeries(a, txns, w)
	if len(first) != len(second) {
		t.Fatalf("cached series differs: %v vs %v", first, second)
	}
	if st := m.Cache().Stats(); st.Hits != 1 || st.Size != 1 {
		t.Fatalf("expected one cached entry and one hit, got %+v", st)
	}

	// Callers may modify what they receive.
	first[0].Balance = dec("-1")
	if again := m.AccountSeries(a, txns, w); again[0].Balance.Equal(dec("-1")) {
		t.Fatalf("cached series was mutated through a returned slice")
	}
}

func TestMemo_DistinguishesInputs(t *testing.T) {
	m := NewMemo(8, time.Minute)
	a := checking("100", core.Asset)
	w := Window{Start: day(1), End: day(5)}

	base := m.NetWorthSeries([]core.Account{a}, nil, w)

	moved := a
	moved.Variant = core.Checking{Balance: dec("150")}
	changed := m.NetWorthSeries([]core.Account{moved}, nil, w)
	if base[0].Balance.Equal(changed[0].Balance) {
		t.Fatalf("balance change did not invalidate memo")
	}

	withTxn := m.NetWorthSeries([]core.Account{a}, []core.Transaction{txn(a.ID, 3, "5")}, w)
	if withTxn[0].Balance.Equal(base[0].Balance) {
		t.Fatalf("transaction change did not invalidate memo")
	}

	// Same inputs in account mode must not collide with net worth mode.
	acct := m.AccountSeries(a, nil, w)
	if len(acct) != 1 {
		t.Fatalf("account mode returned %d points, want 1", len(acct))
	}
	if m.Cache().Size() != 4 {
		t.Fatalf("expected 4 entries, got %d", m.Cache().Size())
	}
}

func TestMemo_ConcurrentCallers(t *testing.T) {
	m := NewMemo(4, time.Minute)
	accounts := []core.Account{checking("10", core.Asset), checking("3", core.Liability)}
	txns := []core.Transaction{txn(accounts[0].ID, 2, "1"), txn(uuid.New(), 2, "1")}
	w := Window{Start: day(1), End: day(60)}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := m.NetWorthSeries(accounts, txns, w); len(got) != 60 {
				t.Errorf("expected 60 points, got %d", len(got))
			}
		}()
	}
	wg.Wait()

	if m.Cache().Size() != 1 {
		t.Fatalf("expected a single cached series, got %d", m.Cache().Size())
	}
}
