package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new file-backed SQLite store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// acquire pins a connection and closes it when the test ends.
func acquire(t *testing.T, s *Store) Conn {
	t.Helper()
	c, err := s.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// mustExec executes a statement and fails the test on error.
func mustExec(t *testing.T, c Conn, query string, params ...any) *Cursor {
	t.Helper()
	cur, err := c.Execute(context.Background(), query, params...)
	if err != nil {
		t.Fatalf("Execute(%q) failed: %v", query, err)
	}
	return cur
}
