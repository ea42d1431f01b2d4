package dialect

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowmodel/internal/field"
	"github.com/roach88/rowmodel/internal/schema"
	"github.com/roach88/rowmodel/internal/store"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func openConn(t *testing.T) store.Conn {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	c, err := s.Acquire(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func quietSQLite() *SQLite {
	return &SQLite{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func rolesSchema(t *testing.T, extra ...string) *schema.Schema {
	t.Helper()
	b := schema.New("roles").
		Field("id", field.Integer()).
		Field("name", field.String(field.NotNull())).
		Field("created_at", field.DateTime())
	for _, name := range extra {
		b.Field(name, field.String())
	}
	root := []any{1, "Root", "2024-01-01 00:00:00"}
	guest := []any{2, "Guest", nil}
	for range extra {
		root = append(root, nil)
		guest = append(guest, nil)
	}
	s, err := b.PrimaryKey("id").DefaultRows(root, guest).Build()
	require.NoError(t, err)
	return s
}

func count(t *testing.T, c store.Conn, table string) int64 {
	t.Helper()
	cur, err := c.Execute(context.Background(), "SELECT count(*) AS total FROM `"+table+"`")
	require.NoError(t, err)
	n, err := cur.Count()
	require.NoError(t, err)
	return n
}

func TestBDCR_FreshTableInsertsDefaultRows(t *testing.T) {
	c := openConn(t)
	ctx := context.Background()

	rep, err := quietSQLite().BDCR(ctx, c, rolesSchema(t))
	require.NoError(t, err)
	assert.False(t, rep.Existed)
	assert.Equal(t, 2, rep.Defaults)
	assert.Zero(t, rep.Restored)
	assert.Len(t, rep.Statements, 1)

	cur, err := c.Execute(ctx, "SELECT id, name, created_at FROM `roles` ORDER BY id")
	require.NoError(t, err)
	require.Equal(t, 2, cur.Len())
	assert.Equal(t, "Root", cur.Rows[0]["name"])
	assert.Equal(t, mustTime(t, "2024-01-01T00:00:00Z").Unix(), cur.Rows[0]["created_at"])
	assert.Nil(t, cur.Rows[1]["created_at"])
}

func TestBDCR_RestoresRowsAcrossSchemaChange(t *testing.T) {
	c := openConn(t)
	ctx := context.Background()
	d := quietSQLite()

	_, err := d.BDCR(ctx, c, rolesSchema(t, "legacy"))
	require.NoError(t, err)
	_, err = c.Execute(ctx, "INSERT INTO `roles` (id, name, legacy) VALUES (%s, %s, %s)", 3, "Ops", "old")
	require.NoError(t, err)
	require.NoError(t, c.Commit())

	rep, err := d.BDCR(ctx, c, rolesSchema(t, "notes"))
	require.NoError(t, err)
	assert.True(t, rep.Existed)
	assert.Equal(t, 3, rep.BackedUp)
	assert.Equal(t, 3, rep.Restored)
	assert.Zero(t, rep.Defaults, "default rows only seed new tables")
	assert.Equal(t, []string{"legacy"}, rep.Dropped)

	cur, err := c.Execute(ctx, "SELECT * FROM `roles` ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "created_at", "notes"}, cur.Columns)
	require.Equal(t, 3, cur.Len())
	assert.Equal(t, "Ops", cur.Rows[2]["name"])
	assert.Nil(t, cur.Rows[2]["notes"])
	assert.NotContains(t, cur.Rows[2], "legacy")
}

func TestRolesSchema_PadsDefaultRowsForExtraColumns(t *testing.T) {
	s := rolesSchema(t, "legacy", "notes")
	rows := s.DefaultRows()
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Len(t, row, 5)
	}
}

func TestBDCR_Idempotent(t *testing.T) {
	c := openConn(t)
	ctx := context.Background()
	d := quietSQLite()
	s := rolesSchema(t)

	for i := 0; i < 3; i++ {
		_, err := d.BDCR(ctx, c, s)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(2), count(t, c, "roles"))
}

func TestBDCR_DropDoesNotCascade(t *testing.T) {
	c := openConn(t)
	ctx := context.Background()
	d := quietSQLite()

	users := schema.New("users").
		Field("id", field.Integer()).
		Field("name", field.String()).
		PrimaryKey("id").
		MustBuild()
	posts := schema.New("posts").
		Field("id", field.Integer()).
		Field("user_id", field.Integer()).
		Field("fk_user", field.ForeignKey([]string{"user_id"}, "users", []string{"id"})).
		PrimaryKey("id").
		MustBuild()

	_, err := d.BDCR(ctx, c, users)
	require.NoError(t, err)
	_, err = d.BDCR(ctx, c, posts)
	require.NoError(t, err)

	_, err = c.Execute(ctx, "INSERT INTO `users` (id, name) VALUES (1, 'ann')")
	require.NoError(t, err)
	_, err = c.Execute(ctx, "INSERT INTO `posts` (id, user_id) VALUES (10, 1)")
	require.NoError(t, err)
	require.NoError(t, c.Commit())

	_, err = d.BDCR(ctx, c, users)
	require.NoError(t, err)

	assert.Equal(t, int64(1), count(t, c, "posts"), "ON DELETE CASCADE must not fire during rebuild")

	require.NoError(t, c.Rollback())
	cur, err := c.Execute(ctx, "PRAGMA foreign_keys")
	require.NoError(t, err)
	fk, err := cur.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), fk, "foreign keys re-enabled")
}

func TestBDCR_RequiresPrimaryKey(t *testing.T) {
	c := openConn(t)
	s := schema.New("log").Field("line", field.Text()).MustBuild()

	_, err := quietSQLite().BDCR(context.Background(), c, s)
	require.Error(t, err)
}

func TestCreate(t *testing.T) {
	c := openConn(t)
	ctx := context.Background()

	require.NoError(t, quietSQLite().Create(ctx, c, usersSchema(t)))

	ok, err := c.HasTable(ctx, "users")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = c.Execute(ctx, "INSERT INTO `users` (username, active, created_at) VALUES ('a', 1, 0)")
	require.NoError(t, err)
	_, err = c.Execute(ctx, "INSERT INTO `users` (username, active, created_at) VALUES ('a', 1, 0)")
	require.Error(t, err, "unique index must be created")
}
