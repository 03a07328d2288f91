package testsupport

import (
	"testing"

	"kwdetect/internal/config"
	"kwdetect/internal/store"
)

// MustOpenStore opens the configured snapshot store and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}
