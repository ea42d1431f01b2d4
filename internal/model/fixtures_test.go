package model

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rowmodel/internal/dialect"
	"github.com/roach88/rowmodel/internal/field"
	"github.com/roach88/rowmodel/internal/schema"
	"github.com/roach88/rowmodel/internal/store"
	"github.com/roach88/rowmodel/internal/testutil"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openDB returns a DB over a fresh SQLite file.
func openDB(t *testing.T) *DB {
	t.Helper()
	st := testutil.OpenStore(t)
	driver, err := dialect.Lookup(st.Driver(), dialect.WithLogger(quietLogger()))
	require.NoError(t, err)
	return NewDB(st, driver, WithLogger(quietLogger()))
}

// syncTable creates the table of s.
func syncTable(t *testing.T, db *DB, s *schema.Schema) {
	t.Helper()
	_, err := db.Sync(context.Background(), s)
	require.NoError(t, err)
}

func usersSchema(t *testing.T, clock *testutil.DeterministicClock) *schema.Schema {
	t.Helper()
	s, err := usersSchemaWithNameLength(t, clock, 32)
	require.NoError(t, err)
	return s
}

func usersSchemaWithNameLength(t *testing.T, clock *testutil.DeterministicClock, n int) (*schema.Schema, error) {
	t.Helper()
	return schema.New("users").
		Field("id", field.Integer(field.Unsigned())).
		Field("name", field.String(field.MaxLength(n), field.NotNull())).
		Field("email", field.String(field.Nullable())).
		Field("code", field.String(field.ReadOnly())).
		Field("secret", field.String(field.Hidden())).
		Field("created_at", field.DateTime(field.DefaultFunc(clock.DefaultFunc()))).
		Field("updated_at", field.DateTime(field.OnUpdateFunc(clock.DefaultFunc()))).
		Field("domain", field.String()).
		Field("tenant_id", field.String()).
		Field("uniq_name", field.UniqueIndex("name")).
		PrimaryKey("id").
		Build()
}

func postsSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New("posts").
		Field("id", field.Integer()).
		Field("user_id", field.Integer(field.Unsigned(), field.NotNull())).
		Field("title", field.String(field.MaxLength(64))).
		Field("fk_posts_user", field.ForeignKey([]string{"user_id"}, "users", []string{"id"})).
		PrimaryKey("id").
		Build()
	require.NoError(t, err)
	return s
}

// usersDB returns a DB with a synchronized users table.
func usersDB(t *testing.T) (*DB, *schema.Schema) {
	t.Helper()
	db := openDB(t)
	s := usersSchema(t, testutil.NewDeterministicClock(epoch, time.Minute))
	syncTable(t, db, s)
	return db, s
}

// insertUser commits a NEW users row.
func insertUser(t *testing.T, db *DB, s *schema.Schema, values map[string]any) *Model {
	t.Helper()
	m := New(db, s)
	require.NoError(t, m.Update(values))
	require.NoError(t, m.Commit(context.Background()))
	return m
}

func countRows(t *testing.T, db *DB, s *schema.Schema) int {
	t.Helper()
	ms, err := All(context.Background(), db, s)
	require.NoError(t, err)
	return ms.Len()
}

// countingPool records acquisitions and hands out no connections.
type countingPool struct {
	acquired int
}

func (p *countingPool) Acquire(ctx context.Context) (store.Conn, error) {
	p.acquired++
	return nil, errors.New("pool unavailable")
}
