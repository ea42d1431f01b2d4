package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
	if s.Driver() != DriverSQLite {
		t.Errorf("Driver() = %q, want %q", s.Driver(), DriverSQLite)
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := createTestStore(t)

	checks := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"foreign_keys": "1",
	}
	for name, want := range checks {
		if err := s.verifyPragma(name, want); err != nil {
			t.Error(err)
		}
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := OpenSQLite(path)
		if err != nil {
			t.Fatalf("OpenSQLite() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle", Database: "x"})
	if err == nil || !strings.Contains(err.Error(), "unsupported database driver") {
		t.Fatalf("Open() error = %v, want unsupported driver", err)
	}
}

func TestOpen_SQLiteRequiresPath(t *testing.T) {
	if _, err := Open(Config{Driver: "sqlite"}); err == nil {
		t.Fatal("Open() without path succeeded")
	}
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(Config{
		Driver:   DriverMySQL,
		Database: "app",
		Host:     "db.internal",
		Port:     3307,
		Username: "svc",
		Password: "secret",
	})

	if !strings.HasPrefix(dsn, "svc:secret@tcp(db.internal:3307)/app?") {
		t.Errorf("unexpected DSN prefix: %s", dsn)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("DSN missing parseTime: %s", dsn)
	}
	if !strings.Contains(dsn, "clientFoundRows=true") {
		t.Errorf("DSN missing clientFoundRows: %s", dsn)
	}
}

func TestMySQLDSN_Defaults(t *testing.T) {
	dsn := MySQLDSN(Config{Driver: DriverMySQL, Database: "app"})
	if !strings.HasPrefix(dsn, "tcp(127.0.0.1:3306)/app") {
		t.Errorf("unexpected DSN: %s", dsn)
	}
}
