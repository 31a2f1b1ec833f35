package testsupport

import (
	"testing"

	"audio-analyzer/internal/config"
	"audio-analyzer/internal/history"
)

// MustOpenStore opens the run-history store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
