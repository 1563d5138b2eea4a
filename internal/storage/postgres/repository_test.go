package postgres

import (
	"context"
	"os"
	"testing"

	"coinjar/internal/ledger"
	"coinjar/internal/ledger/ledgertest"
)

// Set COINJAR_TEST_DATABASE_URL to a disposable database to run these.
func TestRepository(t *testing.T) {
	url := os.Getenv("COINJAR_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("COINJAR_TEST_DATABASE_URL not set")
	}

	ledgertest.Run(t, func(t *testing.T) ledger.Store {
		ctx := context.Background()
		repo, err := New(ctx, url)
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		if _, err := repo.pool.Exec(ctx, `TRUNCATE transactions, accounts`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return repo
	})
}
