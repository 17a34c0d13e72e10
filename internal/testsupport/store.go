package testsupport

import (
	"context"
	"testing"

	"podpipe/internal/config"
	"podpipe/internal/store"
)

// MustOpenStore opens the store at cfg.StorePath and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(context.Background(), cfg.StorePath())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// StartRun records a run so rows referencing it satisfy the foreign key.
func StartRun(t testing.TB, st *store.Store, command string) string {
	t.Helper()

	id := "run-" + command
	if err := st.StartRun(context.Background(), id, command); err != nil {
		t.Fatalf("store.StartRun: %v", err)
	}
	return id
}
