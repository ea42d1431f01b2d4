package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mysqlYAML = `
database:
  type: mysql
  database: app
  host: db.internal
  port: 3307
  username: svc
  password: secret
log:
  level: debug
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(mysqlYAML))
	require.NoError(t, err)

	assert.Equal(t, Database{
		Type:     "mysql",
		Database: "app",
		Host:     "db.internal",
		Port:     3307,
		Username: "svc",
		Password: "secret",
	}, cfg.Database)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestGet(t *testing.T) {
	cfg, err := Parse([]byte(mysqlYAML))
	require.NoError(t, err)

	v, ok := cfg.Get("database.type")
	assert.True(t, ok)
	assert.Equal(t, "mysql", v)

	v, ok = cfg.Get("database.port")
	assert.True(t, ok)
	assert.Equal(t, "3307", v)

	_, ok = cfg.Get("database")
	assert.False(t, ok, "non-scalar")

	_, ok = cfg.Get("database.missing")
	assert.False(t, ok)

	_, ok = cfg.Get("log.level.deeper")
	assert.False(t, ok)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("database:\n  type: sqlite3\n  databse: x.db\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name, yaml, want string
	}{
		{"missing type", "database:\n  database: x.db\n", "database.type is required"},
		{"missing database", "database:\n  type: sqlite3\n", "database.database or database.dsn is required"},
		{"bad port", "database:\n  type: mysql\n  database: a\n  port: 70000\n", "out of range"},
		{"bad level", "database:\n  type: sqlite3\n  database: x.db\nlog:\n  level: loud\n", "log.level"},
		{"empty", "", "database.type is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rowmodel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  type: sqlite3\n  database: ./app.db\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./app.db", cfg.Database.Database)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	v, ok := cfg.Get("database.type")
	assert.True(t, ok)
	assert.Equal(t, "sqlite3", v)
	assert.Equal(t, "rowmodel.db", cfg.Database.Database)
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}
