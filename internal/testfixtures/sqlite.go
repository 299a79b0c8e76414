package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/tabletop-booking/internal/persistence/sqlite"
)

// NewSQLiteStore opens a temporary SQLite store with the schema applied, for
// integration-style persistence tests. The store is closed automatically when
// the test finishes.
func NewSQLiteStore(tb testing.TB) *sqlite.Store {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "booking.db")

	store, err := sqlite.Open(context.Background(), path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	tb.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
