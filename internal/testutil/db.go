package testutil

import (
	"path/filepath"
	"testing"

	"github.com/roach88/rowmodel/internal/store"
)

// OpenStore opens a file-backed SQLite store in t.TempDir and closes it
// when the test ends.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
