package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowmodel/internal/field"
)

func compileModel(t *testing.T, src, name string) (cue.Value, error) {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	_, err := CompileModel(v.LookupPath(cue.ParsePath("model." + name)))
	return v, err
}

func TestCompileModelBasic(t *testing.T) {
	v := cuecontext.New().CompileString(`
		model: users: {
			primary_key: "id"
			engine: "MyISAM"
			fields: {
				id:    {type: "integer", signed: false, length: 11}
				name:  {type: "string", max_length: 64, min_length: 2, null: false, label: "Name"}
				role:  {type: "enum", enum: ["admin", "user"], default: "user"}
				score: {type: "decimal", precision: 8, scale: 2, min: 0, max: 1000.5}
				seen:  {type: "datetime", default_func: "now", on_update_func: "now"}
				pw:    {type: "string", db: false, hidden: true}
				code:  {type: "string", readonly: true, placeholder: "ABC"}
				uniq_name: {type: "unique_index", columns: ["name"]}
				idx_role:  {type: "index", columns: ["role"]}
			}
			default_rows: [[1, "root", "admin", 1.5, null, null]]
		}
	`)
	require.NoError(t, v.Err())

	s, err := CompileModel(v.LookupPath(cue.ParsePath("model.users")))
	require.NoError(t, err)

	assert.Equal(t, "users", s.Table())
	assert.Equal(t, "MyISAM", s.Engine())
	assert.Equal(t, "utf8mb4", s.Charset())
	assert.Equal(t, "id", s.PrimaryKey().Name())
	assert.True(t, s.AutoIncrement())

	var names []string
	for _, f := range s.Fields() {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"id", "name", "role", "score", "seen", "pw", "code", "uniq_name", "idx_role"}, names)
	assert.Equal(t, []string{"id", "name", "role", "score", "seen", "code"}, s.ColumnNames())

	id := s.Lookup("id")
	assert.False(t, id.Signed())
	assert.Equal(t, 11, id.Length())

	name := s.Lookup("name")
	assert.False(t, name.Nullable())
	assert.Equal(t, 64, name.MaxLength())
	assert.Equal(t, 2, name.MinLength())
	assert.Equal(t, "Name", name.Label())

	role := s.Lookup("role")
	assert.Equal(t, []string{"admin", "user"}, role.EnumValues())
	def, ok := role.Default()
	require.True(t, ok)
	assert.Equal(t, "user", def)

	score := s.Lookup("score")
	m, d := score.Precision()
	assert.Equal(t, 8, m)
	assert.Equal(t, 2, d)
	hi, ok := score.MaxValue()
	require.True(t, ok)
	assert.Equal(t, 1000.5, hi)

	seen := s.Lookup("seen")
	assert.True(t, seen.HasDefault())
	_, ok = seen.OnUpdateValue()
	assert.True(t, ok)

	assert.False(t, s.Lookup("pw").Stored())
	assert.True(t, s.Lookup("pw").Hidden())
	assert.True(t, s.Lookup("code").ReadOnly())
	assert.Equal(t, "ABC", s.Lookup("code").Placeholder())
	assert.Equal(t, []string{"name"}, s.Lookup("uniq_name").Columns())
	assert.Equal(t, field.KindIndex, s.Lookup("idx_role").Type())

	rows := s.DefaultRows()
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0][0])
	assert.Equal(t, "root", rows[0][1])
}

func TestCompileModelForeignKey(t *testing.T) {
	v := cuecontext.New().CompileString(`
		model: posts: {
			primary_key: "id"
			fields: {
				id:      {type: "uuid", default_func: "uuid"}
				user_id: {type: "integer", null: false}
				fk_user: {
					type: "foreign_key"
					columns: ["user_id"]
					references: {table: "users", columns: ["id"]}
					on_delete: "set null"
				}
			}
		}
	`)
	require.NoError(t, v.Err())

	s, err := CompileModel(v.LookupPath(cue.ParsePath("model.posts")))
	require.NoError(t, err)

	fk := s.Lookup("fk_user")
	require.NotNil(t, fk)
	table, cols := fk.References()
	assert.Equal(t, "users", table)
	assert.Equal(t, []string{"id"}, cols)
	del, upd := fk.Actions()
	assert.Equal(t, field.SetNull, del)
	assert.Equal(t, field.Cascade, upd)
	assert.False(t, s.AutoIncrement())
}

func TestCompileModelErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "missing fields",
			src:  `model: t: {primary_key: "id"}`,
			want: "at least one field is required",
		},
		{
			name: "missing type",
			src:  `model: t: {fields: {id: {length: 3}}}`,
			want: "type is required",
		},
		{
			name: "unknown type",
			src:  `model: t: {fields: {id: {type: "money"}}}`,
			want: "fields.id.type",
		},
		{
			name: "unknown field attribute",
			src:  `model: t: {fields: {id: {type: "integer", nullable: true}}}`,
			want: "fields.id.nullable: unknown attribute",
		},
		{
			name: "unknown model attribute",
			src:  `model: t: {pk: "id", fields: {id: {type: "integer"}}}`,
			want: "model.t.pk: unknown attribute",
		},
		{
			name: "scale without precision",
			src:  `model: t: {fields: {n: {type: "decimal", scale: 2}}}`,
			want: "scale requires precision",
		},
		{
			name: "unknown default func",
			src:  `model: t: {fields: {n: {type: "datetime", default_func: "tomorrow"}}}`,
			want: "unknown function",
		},
		{
			name: "bad action",
			src: `model: t: {fields: {
				a: {type: "integer"}
				fk: {type: "foreign_key", columns: ["a"], references: {table: "u"}, on_delete: "explode"}
			}}`,
			want: "invalid referential action",
		},
		{
			name: "foreign key without references",
			src:  `model: t: {fields: {a: {type: "integer"}, fk: {type: "foreign_key", columns: ["a"]}}}`,
			want: "foreign_key requires references",
		},
		{
			name: "unknown primary key",
			src:  `model: t: {primary_key: "nope", fields: {a: {type: "integer"}}}`,
			want: "primary key",
		},
		{
			name: "index over unknown column",
			src:  `model: t: {fields: {a: {type: "integer"}, u: {type: "unique_index", columns: ["b"]}}}`,
			want: "unknown column",
		},
		{
			name: "default row arity",
			src:  `model: t: {fields: {a: {type: "integer"}}, default_rows: [[1, 2]]}`,
			want: "default row 0",
		},
		{
			name: "wrong attribute type",
			src:  `model: t: {fields: {a: {type: "string", max_length: "long"}}}`,
			want: "cue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileModel(t, tt.src, "t")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			var cerr *CompileError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}

func TestCompileModelsKeepsOrder(t *testing.T) {
	v := cuecontext.New().CompileString(`
		model: zebra: {primary_key: "id", fields: {id: {type: "integer"}}}
		model: apple: {primary_key: "id", fields: {id: {type: "integer"}}}
	`)
	schemas, err := CompileModels(v)
	require.NoError(t, err)
	require.Len(t, schemas, 2)
	assert.Equal(t, "zebra", schemas[0].Table())
	assert.Equal(t, "apple", schemas[1].Table())
}

func TestCompileModelsWithoutModels(t *testing.T) {
	v := cuecontext.New().CompileString(`other: 1`)
	schemas, err := CompileModels(v)
	require.NoError(t, err)
	assert.Empty(t, schemas)
}

func TestScalarKinds(t *testing.T) {
	v := cuecontext.New().CompileString(`
		i: 3
		f: 2.5
		s: "x"
		b: true
		n: null
		l: [1, "a"]
	`)
	require.NoError(t, v.Err())

	for path, want := range map[string]any{
		"i": int64(3),
		"f": 2.5,
		"s": "x",
		"b": true,
		"n": nil,
	} {
		got, err := scalar(v.LookupPath(cue.ParsePath(path)))
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	got, err := scalar(v.LookupPath(cue.ParsePath("l")))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = scalar(cuecontext.New().CompileString(`x: int`).LookupPath(cue.ParsePath("x")))
	assert.Error(t, err)
}
