package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDDLSQLite(t *testing.T) {
	dir := writeModels(t, map[string]string{"blog.cue": blogModels})

	out, err := execute(t, "ddl", "--type", "sqlite", dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "-- sqlite3\n"))
	assert.Contains(t, out, "CREATE TABLE `users`")
	assert.Contains(t, out, "CREATE TABLE `posts`")
	assert.Contains(t, out, "ON DELETE CASCADE")
	assert.Less(t, strings.Index(out, "CREATE TABLE `users`"), strings.Index(out, "CREATE TABLE `posts`"))
}

func TestDDLReferencedTablesFirst(t *testing.T) {
	dir := writeModels(t, map[string]string{
		"a_posts.cue": `package test

model: posts: {
	primary_key: "id"
	fields: {
		id:      {type: "integer"}
		user_id: {type: "integer"}
		fk_user: {type: "foreign_key", columns: ["user_id"], references: {table: "users", columns: ["id"]}}
	}
}
`,
		"b_users.cue": `package test

model: users: {
	primary_key: "id"
	fields: id: {type: "integer"}
}
`,
	})

	out, err := execute(t, "--format", "json", "ddl", "--type", "mysql", dir)
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   DDLResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "mysql", resp.Data.Type)
	require.Len(t, resp.Data.Tables, 2)
	assert.Equal(t, "users", resp.Data.Tables[0].Table)
	assert.Equal(t, "posts", resp.Data.Tables[1].Table)
	assert.NotEmpty(t, resp.Data.Tables[1].Statements)
	assert.Len(t, resp.Data.Tables[0].Fingerprint, 64)
	assert.NotEqual(t, resp.Data.Tables[0].Fingerprint, resp.Data.Tables[1].Fingerprint)
}

func TestDDLTypeFromConfig(t *testing.T) {
	dir := writeModels(t, map[string]string{"blog.cue": blogModels})

	out, err := execute(t, "--config", writeConfig(t), "ddl", dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "-- sqlite3\n"))
}

func TestDDLUnknownType(t *testing.T) {
	dir := writeModels(t, map[string]string{"blog.cue": blogModels})

	out, err := execute(t, "ddl", "--type", "oracle", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "unknown database type")
}
