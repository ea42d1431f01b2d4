package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const blogModels = `package test

model: users: {
	primary_key: "id"
	fields: {
		id:        {type: "integer", signed: false}
		name:      {type: "string", max_length: 64, null: false}
		uniq_name: {type: "unique_index", columns: ["name"]}
	}
	default_rows: [[1, "root"]]
}

model: posts: {
	primary_key: "id"
	fields: {
		id:      {type: "integer"}
		user_id: {type: "integer"}
		title:   {type: "string", max_length: 128}
		fk_user: {
			type: "foreign_key"
			columns: ["user_id"]
			references: {table: "users", columns: ["id"]}
			on_delete: "cascade"
		}
	}
}
`

// writeModels writes each file into a fresh directory and returns it.
func writeModels(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

// writeConfig writes a config selecting a SQLite database in a fresh
// directory.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rowmodel.yaml")
	content := fmt.Sprintf("database:\n  type: sqlite3\n  database: %s\nlog:\n  level: error\n", filepath.Join(dir, "app.db"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
