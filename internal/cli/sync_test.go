package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncCreatesThenRebuilds(t *testing.T) {
	dir := writeModels(t, map[string]string{"blog.cue": blogModels})
	cfg := writeConfig(t)

	out, err := execute(t, "--config", cfg, "sync", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ users: created, 1 default rows")
	assert.Contains(t, out, "✓ posts: created")

	out, err = execute(t, "--config", cfg, "sync", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ users: rebuilt, 1/1 rows restored")
	assert.Contains(t, out, "✓ posts: rebuilt, 0/0 rows restored")
}

func TestSyncJSON(t *testing.T) {
	dir := writeModels(t, map[string]string{"blog.cue": blogModels})

	out, err := execute(t, "--config", writeConfig(t), "--format", "json", "sync", dir)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   SyncResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Reports, 2)
	assert.Equal(t, "users", resp.Data.Reports[0].Table)
	assert.False(t, resp.Data.Reports[0].Existed)
	assert.Equal(t, 1, resp.Data.Reports[0].Defaults)
}

func TestSyncSelectedModels(t *testing.T) {
	dir := writeModels(t, map[string]string{"blog.cue": blogModels})

	out, err := execute(t, "--config", writeConfig(t), "sync", "--model", "users", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ users")
	assert.NotContains(t, out, "posts")
}

func TestSyncUnknownModel(t *testing.T) {
	dir := writeModels(t, map[string]string{"blog.cue": blogModels})

	out, err := execute(t, "--config", writeConfig(t), "sync", "-m", "comments", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeUnknownModel)
}

func TestSyncRefusesInvalidModels(t *testing.T) {
	dir := writeModels(t, map[string]string{"bad.cue": `package test

model: logs: fields: line: {type: "text"}
`})

	out, err := execute(t, "--config", writeConfig(t), "sync", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E101")
}
