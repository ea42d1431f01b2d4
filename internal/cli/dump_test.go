package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncedBlog returns a models directory and a config whose database holds
// the synchronized blog tables.
func syncedBlog(t *testing.T) (dir, cfg string) {
	t.Helper()
	dir = writeModels(t, map[string]string{"blog.cue": blogModels})
	cfg = writeConfig(t)
	_, err := execute(t, "--config", cfg, "sync", dir)
	require.NoError(t, err)
	return dir, cfg
}

func TestDumpAllRows(t *testing.T) {
	dir, cfg := syncedBlog(t)

	out, err := execute(t, "--config", cfg, "dump", dir, "users")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "root", rows[0]["name"])
	assert.EqualValues(t, 1, rows[0]["id"])
}

func TestDumpJSON(t *testing.T) {
	dir, cfg := syncedBlog(t)

	out, err := execute(t, "--config", cfg, "--format", "json", "dump", dir, "posts")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Model string           `json:"model"`
			Rows  []map[string]any `json:"rows"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "posts", resp.Data.Model)
	assert.NotNil(t, resp.Data.Rows)
	assert.Empty(t, resp.Data.Rows)
}

func TestDumpListFlags(t *testing.T) {
	dir, cfg := syncedBlog(t)

	out, err := execute(t, "--config", cfg, "dump", dir, "users", "--search", "name:roo", "--sort", "name:desc", "--range", "0,10")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "root"`)
	assert.Contains(t, out, "1 of 1 rows")

	out, err = execute(t, "--config", cfg, "dump", dir, "users", "--search", "name:nobody")
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 0 rows")
}

func TestDumpRejectsBadRequest(t *testing.T) {
	dir, cfg := syncedBlog(t)

	out, err := execute(t, "--config", cfg, "dump", dir, "users", "--sort", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeDatabase)
}

func TestDumpUnknownModel(t *testing.T) {
	dir, cfg := syncedBlog(t)

	out, err := execute(t, "--config", cfg, "dump", dir, "comments")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `unknown model "comments"`)
}
