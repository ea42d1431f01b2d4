// Package schema is the field registry of a model: the ordered set of named
// fields, the primary key and the table-level options a dialect driver needs
// to create the table.
package schema

import (
	"fmt"
	"strings"

	"github.com/roach88/rowmodel/internal/dberr"
	"github.com/roach88/rowmodel/internal/field"
)

// Table options used when a model declares none. SQLite ignores both.
const (
	DefaultEngine  = "InnoDB"
	DefaultCharset = "utf8mb4"
)

// Schema is an immutable, validated model definition.
type Schema struct {
	table       string
	fields      []*field.Field
	byName      map[string]*field.Field
	primaryKey  string
	engine      string
	charset     string
	defaultRows [][]any
}

// Builder accumulates fields in declaration order. The first error is kept
// and reported by Build.
type Builder struct {
	s    *Schema
	rows [][]any
	err  error
}

// New starts a schema for table.
func New(table string) *Builder {
	return &Builder{s: &Schema{
		table:   table,
		byName:  make(map[string]*field.Field),
		engine:  DefaultEngine,
		charset: DefaultCharset,
	}}
}

// Field registers f under name. The name is bound to a copy of f, so the
// same definition may be registered in several schemas.
func (b *Builder) Field(name string, f *field.Field) *Builder {
	if b.err != nil {
		return b
	}
	if err := checkIdent(name); err != nil {
		b.err = fmt.Errorf("field %q: %w", name, err)
		return b
	}
	if _, dup := b.s.byName[name]; dup {
		b.err = fmt.Errorf("duplicate field %q", name)
		return b
	}
	bound, err := f.Bind(name)
	if err != nil {
		b.err = err
		return b
	}
	b.s.fields = append(b.s.fields, bound)
	b.s.byName[name] = bound
	return b
}

// PrimaryKey names the primary key field.
func (b *Builder) PrimaryKey(name string) *Builder {
	b.s.primaryKey = name
	return b
}

// Engine sets the MySQL storage engine.
func (b *Builder) Engine(engine string) *Builder {
	b.s.engine = engine
	return b
}

// Charset sets the MySQL default character set.
func (b *Builder) Charset(charset string) *Builder {
	b.s.charset = charset
	return b
}

// DefaultRows declares rows inserted when the table is created with no
// prior data. Values are positional over Columns().
func (b *Builder) DefaultRows(rows ...[]any) *Builder {
	b.rows = append(b.rows, rows...)
	return b
}

// Build validates the definition.
func (b *Builder) Build() (*Schema, error) {
	s := b.s
	fail := func(err error) (*Schema, error) {
		return nil, dberr.Wrap(dberr.ErrSchema, s.table, err, "invalid model")
	}
	if b.err != nil {
		return fail(b.err)
	}
	if err := checkIdent(s.table); err != nil {
		return fail(fmt.Errorf("table name: %w", err))
	}
	for _, f := range s.fields {
		if err := f.Validate(); err != nil {
			return fail(err)
		}
		if f.IsPseudo() {
			for _, col := range f.Columns() {
				if c := s.byName[col]; c == nil || !c.Stored() {
					return fail(fmt.Errorf("%s %s: unknown column %q", f.Kind(), f.Name(), col))
				}
			}
		}
	}
	if s.primaryKey != "" {
		pk := s.byName[s.primaryKey]
		if pk == nil {
			return fail(fmt.Errorf("primary key %q is not a declared field", s.primaryKey))
		}
		if !pk.Stored() {
			return fail(fmt.Errorf("primary key %q is not a stored field", s.primaryKey))
		}
	}

	cols := s.Columns()
	for i, row := range b.rows {
		if len(row) != len(cols) {
			return fail(fmt.Errorf("default row %d has %d values, want %d", i, len(row), len(cols)))
		}
		parsed := make([]any, len(row))
		for j, v := range row {
			p, err := cols[j].Parse(v)
			if err != nil {
				return fail(fmt.Errorf("default row %d: %w", i, err))
			}
			parsed[j] = p
		}
		s.defaultRows = append(s.defaultRows, parsed)
	}
	return s, nil
}

// MustBuild is Build for statically declared models; it panics on error.
func (b *Builder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

func checkIdent(name string) error {
	if name == "" {
		return fmt.Errorf("empty identifier")
	}
	if strings.ContainsAny(name, "`\"'\x00") {
		return fmt.Errorf("identifier %q contains a quote", name)
	}
	return nil
}

// Table returns the table name.
func (s *Schema) Table() string { return s.table }

// Engine returns the MySQL storage engine.
func (s *Schema) Engine() string { return s.engine }

// Charset returns the MySQL default character set.
func (s *Schema) Charset() string { return s.charset }

// Fields returns every registered field, pseudo-fields included, in
// declaration order.
func (s *Schema) Fields() []*field.Field {
	return append([]*field.Field(nil), s.fields...)
}

// Columns returns the stored data fields in declaration order.
func (s *Schema) Columns() []*field.Field {
	var out []*field.Field
	for _, f := range s.fields {
		if f.Stored() {
			out = append(out, f)
		}
	}
	return out
}

// ColumnNames returns the names of Columns().
func (s *Schema) ColumnNames() []string {
	var out []string
	for _, f := range s.Columns() {
		out = append(out, f.Name())
	}
	return out
}

// Lookup returns the field registered under name, or nil.
func (s *Schema) Lookup(name string) *field.Field {
	return s.byName[name]
}

// PrimaryKey returns the primary key field, or nil when none is declared.
func (s *Schema) PrimaryKey() *field.Field {
	if s.primaryKey == "" {
		return nil
	}
	return s.byName[s.primaryKey]
}

// RequirePrimaryKey returns the primary key or a schema error naming op.
func (s *Schema) RequirePrimaryKey(op string) (*field.Field, error) {
	if pk := s.PrimaryKey(); pk != nil {
		return pk, nil
	}
	return nil, dberr.New(dberr.ErrSchema, s.table, "%s: no primary key declared", op)
}

// AutoIncrement reports whether the database assigns primary key values.
// Integer primary keys are auto-incremented.
func (s *Schema) AutoIncrement() bool {
	pk := s.PrimaryKey()
	return pk != nil && pk.Type().IsInteger()
}

// Constraints returns the pseudo-fields of kind k in declaration order.
func (s *Schema) Constraints(k field.Kind) []*field.Field {
	var out []*field.Field
	for _, f := range s.fields {
		if f.Type() == k {
			out = append(out, f)
		}
	}
	return out
}

// HasColumn reports whether name is a stored column.
func (s *Schema) HasColumn(name string) bool {
	f := s.byName[name]
	return f != nil && f.Stored()
}

// DefaultRows returns the parsed default rows, positional over Columns().
func (s *Schema) DefaultRows() [][]any {
	out := make([][]any, len(s.defaultRows))
	for i, r := range s.defaultRows {
		out[i] = append([]any(nil), r...)
	}
	return out
}
