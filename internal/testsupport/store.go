package testsupport

import (
	"context"
	"testing"

	"batchscribe/internal/config"
	"batchscribe/internal/history"
)

// MustOpenHistory opens the run ledger for cfg and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(context.Background(), cfg.HistoryPath())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
