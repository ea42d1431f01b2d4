package dialect

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rowmodel/internal/field"
	"github.com/roach88/rowmodel/internal/schema"
)

func usersSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New("users").
		Field("id", field.Integer(field.Unsigned(), field.Length(11))).
		Field("username", field.String(field.MaxLength(64), field.NotNull())).
		Field("email", field.String()).
		Field("role", field.Enum([]string{"admin", "user"}, field.Default("user"))).
		Field("active", field.Boolean(field.NotNull())).
		Field("balance", field.Decimal(field.Precision(12, 2))).
		Field("ratio", field.Float(field.Unsigned())).
		Field("score", field.SmallInt()).
		Field("bio", field.Text()).
		Field("avatar", field.MediumBlob()).
		Field("meta", field.Object()).
		Field("token", field.UUID()).
		Field("created_at", field.DateTime(field.NotNull())).
		Field("password", field.String(field.NoStore())).
		Field("uniq_username", field.UniqueIndex("username")).
		Field("idx_email", field.Index("email")).
		PrimaryKey("id").
		Build()
	require.NoError(t, err)
	return s
}

func postsSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New("posts").
		Field("id", field.UUID()).
		Field("user_id", field.Integer(field.Unsigned(), field.NotNull())).
		Field("title", field.String(field.MaxLength(128))).
		Field("fk_posts_user", field.ForeignKey([]string{"user_id"}, "users", []string{"id"}, field.DeleteAction(field.Restrict))).
		PrimaryKey("id").
		Build()
	require.NoError(t, err)
	return s
}
