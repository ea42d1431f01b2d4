// Package field implements typed column definitions: parsing of
// application-supplied values, conversion from and to the storage
// representation, and the per-field metadata the dialect drivers render
// into DDL.
//
// A Field is configured with functional options and stays immutable after
// construction. Binding a column name happens once, when a schema registers
// the field, via Bind which returns a named copy.
package field

import (
	"fmt"
	"strings"
)

// Field is a single column definition or table-level constraint.
type Field struct {
	kind Kind
	name string

	length    int
	minLength int
	maxLength int
	minValue  *float64
	maxValue  *float64
	precision int
	scale     int

	null        bool
	def         any
	defFunc     func() any
	onUpdate    any
	onUpdateFn  func() any
	signed      bool
	enum        []string
	stored      bool
	readOnly    bool
	hidden      bool
	label       string
	placeholder string

	columns    []string
	refTable   string
	refColumns []string
	delAction  Action
	updAction  Action
}

// Option configures a Field at construction.
type Option func(*Field)

// Length sets the declared length. For text and blob kinds it also becomes
// the maximum length unless MaxLength is given. For integer kinds it is the
// display width only.
func Length(n int) Option { return func(f *Field) { f.length = n } }

// MinLength sets the minimum length in characters for text kinds and in
// bytes for blob kinds.
func MinLength(n int) Option { return func(f *Field) { f.minLength = n } }

// MaxLength sets the maximum length; zero means unbounded.
func MaxLength(n int) Option { return func(f *Field) { f.maxLength = n } }

// Min sets the inclusive lower value bound for numeric kinds.
func Min(v float64) Option { return func(f *Field) { f.minValue = &v } }

// Max sets the inclusive upper value bound for numeric kinds.
func Max(v float64) Option { return func(f *Field) { f.maxValue = &v } }

// Precision sets total digits m and fractional digits d for float, double
// and decimal kinds.
func Precision(m, d int) Option {
	return func(f *Field) { f.precision, f.scale = m, d }
}

// NotNull marks the field required.
func NotNull() Option { return func(f *Field) { f.null = false } }

// Nullable marks the field optional (the default).
func Nullable() Option { return func(f *Field) { f.null = true } }

// Default sets a static default applied to new rows.
func Default(v any) Option { return func(f *Field) { f.def = v } }

// DefaultFunc sets a default computed each time a new row is initialized.
func DefaultFunc(fn func() any) Option { return func(f *Field) { f.defFunc = fn } }

// OnUpdate sets a value applied on every commit of a modified row.
func OnUpdate(v any) Option { return func(f *Field) { f.onUpdate = v } }

// OnUpdateFunc is OnUpdate with a value computed at commit time.
func OnUpdateFunc(fn func() any) Option { return func(f *Field) { f.onUpdateFn = fn } }

// Signed selects the signed native range for integer kinds (the default).
func Signed() Option { return func(f *Field) { f.signed = true } }

// Unsigned selects the unsigned native range for integer kinds.
func Unsigned() Option { return func(f *Field) { f.signed = false } }

// NoStore excludes the field from DDL and persistence.
func NoStore() Option { return func(f *Field) { f.stored = false } }

// ReadOnly rejects modification of the field on loaded rows.
func ReadOnly() Option { return func(f *Field) { f.readOnly = true } }

// Hidden omits the field from serialized rows.
func Hidden() Option { return func(f *Field) { f.hidden = true } }

// Label sets the human label used in validation errors.
func Label(s string) Option { return func(f *Field) { f.label = s } }

// Placeholder sets a presentation hint. It has no effect on storage.
func Placeholder(s string) Option { return func(f *Field) { f.placeholder = s } }

// DeleteAction sets the ON DELETE action of a foreign key.
func DeleteAction(a Action) Option { return func(f *Field) { f.delAction = a } }

// UpdateAction sets the ON UPDATE action of a foreign key.
func UpdateAction(a Action) Option { return func(f *Field) { f.updAction = a } }
func enumValues(v []string) Option { return func(f *Field) { f.enum = append([]string(nil), v...) } }

func newField(kind Kind, opts []Option) *Field {
	f := &Field{kind: kind, null: true, signed: true, stored: true}
	for _, opt := range opts {
		opt(f)
	}
	if (kind.IsText() || kind.IsBlob()) && f.maxLength == 0 && f.length > 0 {
		f.maxLength = f.length
	}
	return f
}

// Constructors for the storable kinds. Each returns an unbound field;
// Bind assigns the name when the field is added to a schema.

// String declares a VARCHAR column.
func String(opts ...Option) *Field { return newField(KindString, opts) }

// Text declares a TEXT column.
func Text(opts ...Option) *Field { return newField(KindText, opts) }

// TinyText declares a TINYTEXT column.
func TinyText(opts ...Option) *Field { return newField(KindTinyText, opts) }

// MediumText declares a MEDIUMTEXT column.
func MediumText(opts ...Option) *Field { return newField(KindMediumText, opts) }

// LongText declares a LONGTEXT column.
func LongText(opts ...Option) *Field { return newField(KindLongText, opts) }

// UUID declares a canonical textual UUID column.
func UUID(opts ...Option) *Field { return newField(KindUUID, opts) }

// TinyInt declares an 8-bit integer column.
func TinyInt(opts ...Option) *Field { return newField(KindTinyInt, opts) }

// SmallInt declares a 16-bit integer column.
func SmallInt(opts ...Option) *Field { return newField(KindSmallInt, opts) }

// MediumInt declares a 24-bit integer column.
func MediumInt(opts ...Option) *Field { return newField(KindMediumInt, opts) }

// Integer declares a 32-bit integer column.
func Integer(opts ...Option) *Field { return newField(KindInteger, opts) }

// BigInt declares a 64-bit integer column.
func BigInt(opts ...Option) *Field { return newField(KindBigInt, opts) }

// Boolean declares a column stored as 0 or 1.
func Boolean(opts ...Option) *Field { return newField(KindBoolean, opts) }

// Float declares a single precision column.
func Float(opts ...Option) *Field { return newField(KindFloat, opts) }

// Double declares a double precision column.
func Double(opts ...Option) *Field { return newField(KindDouble, opts) }

// Decimal declares an exact decimal column quantized to its scale.
func Decimal(opts ...Option) *Field { return newField(KindDecimal, opts) }

// DateTime declares a UTC timestamp column with second resolution.
func DateTime(opts ...Option) *Field { return newField(KindDateTime, opts) }

// Blob declares a BLOB column.
func Blob(opts ...Option) *Field { return newField(KindBlob, opts) }

// TinyBlob declares a TINYBLOB column.
func TinyBlob(opts ...Option) *Field { return newField(KindTinyBlob, opts) }

// MediumBlob declares a MEDIUMBLOB column.
func MediumBlob(opts ...Option) *Field { return newField(KindMediumBlob, opts) }

// LongBlob declares a LONGBLOB column.
func LongBlob(opts ...Option) *Field { return newField(KindLongBlob, opts) }

// Object declares a column holding a JSON document.
func Object(opts ...Option) *Field { return newField(KindObject, opts) }

// Of returns a field of kind k. Enum and pseudo kinds need their own
// constructors to be valid.
func Of(k Kind, opts ...Option) *Field { return newField(k, opts) }

// Enum declares a field restricted to values.
func Enum(values []string, opts ...Option) *Field {
	return newField(KindEnum, append([]Option{enumValues(values)}, opts...))
}

// UniqueIndex declares that the combination of columns is unique.
func UniqueIndex(columns ...string) *Field {
	f := newField(KindUniqueIndex, nil)
	f.columns = append([]string(nil), columns...)
	return f
}

// Index declares a non-unique secondary index over columns.
func Index(columns ...string) *Field {
	f := newField(KindIndex, nil)
	f.columns = append([]string(nil), columns...)
	return f
}

// ForeignKey declares that columns reference refColumns of refTable.
// Both actions default to CASCADE.
func ForeignKey(columns []string, refTable string, refColumns []string, opts ...Option) *Field {
	f := newField(KindForeignKey, append([]Option{DeleteAction(Cascade), UpdateAction(Cascade)}, opts...))
	f.columns = append([]string(nil), columns...)
	f.refTable = refTable
	f.refColumns = append([]string(nil), refColumns...)
	return f
}

// Bind returns a copy of f carrying the registry name. Binding an already
// named field to a different name fails.
func (f *Field) Bind(name string) (*Field, error) {
	if name == "" {
		return nil, fmt.Errorf("bind %s field: empty name", f.kind)
	}
	if f.name != "" && f.name != name {
		return nil, fmt.Errorf("bind %s field: already named %q", f.kind, f.name)
	}
	c := *f
	c.name = name
	c.enum = append([]string(nil), f.enum...)
	c.columns = append([]string(nil), f.columns...)
	c.refColumns = append([]string(nil), f.refColumns...)
	return &c, nil
}

// Validate checks that the option combination is coherent.
func (f *Field) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("field %s: %s", f.name, fmt.Sprintf(format, args...))
	}
	if f.kind.IsPseudo() {
		if len(f.columns) == 0 {
			return bad("%s needs at least one column", f.kind)
		}
		if f.kind == KindForeignKey {
			if f.refTable == "" {
				return bad("foreign key has no referenced table")
			}
			if len(f.refColumns) != len(f.columns) {
				return bad("foreign key has %d columns but %d referenced columns", len(f.columns), len(f.refColumns))
			}
			for _, a := range []Action{f.delAction, f.updAction} {
				if _, err := ParseAction(string(a)); err != nil {
					return bad("%v", err)
				}
			}
		}
		return nil
	}
	if f.length < 0 || f.minLength < 0 || f.maxLength < 0 {
		return bad("negative length")
	}
	if f.maxLength > 0 && f.minLength > f.maxLength {
		return bad("min_length %d exceeds max_length %d", f.minLength, f.maxLength)
	}
	if f.minValue != nil && f.maxValue != nil && *f.minValue > *f.maxValue {
		return bad("min %v exceeds max %v", *f.minValue, *f.maxValue)
	}
	if f.precision < 0 || f.scale < 0 || (f.precision > 0 && f.scale > f.precision) {
		return bad("invalid precision (%d,%d)", f.precision, f.scale)
	}
	if f.kind == KindEnum {
		if len(f.enum) == 0 {
			return bad("enum needs at least one value")
		}
		for _, v := range f.enum {
			if strings.Contains(v, "'") {
				return bad("enum value %q contains a quote", v)
			}
		}
	}
	if f.kind.IsInteger() {
		lo, hi := f.kind.IntRange(f.signed)
		if f.minValue != nil && *f.minValue < float64(lo) {
			return bad("min %v below native range %d", *f.minValue, lo)
		}
		if f.maxValue != nil && *f.maxValue > float64(hi) {
			return bad("max %v above native range %d", *f.maxValue, hi)
		}
	}
	return nil
}

// Kind returns the kind name used in model declarations.
func (f *Field) Kind() string { return f.kind.String() }

// Type returns the kind.
func (f *Field) Type() Kind { return f.kind }

// Name returns the bound column name.
func (f *Field) Name() string { return f.name }

// Length returns the declared length.
func (f *Field) Length() int { return f.length }

// MinLength returns the minimum length, zero if unset.
func (f *Field) MinLength() int { return f.minLength }

// MaxLength returns the maximum length, zero if unbounded.
func (f *Field) MaxLength() int { return f.maxLength }

// Nullable reports whether nil is accepted.
func (f *Field) Nullable() bool { return f.null }

// Signed reports whether an integer field uses the signed range.
func (f *Field) Signed() bool { return f.signed }

// Stored reports whether the field is a persisted column.
func (f *Field) Stored() bool { return f.stored && !f.kind.IsPseudo() }

// ReadOnly reports whether loaded rows reject changes to the field.
func (f *Field) ReadOnly() bool { return f.readOnly }

// Hidden reports whether the field is omitted from serialized rows.
func (f *Field) Hidden() bool { return f.hidden }

// Placeholder returns the presentation hint.
func (f *Field) Placeholder() string { return f.placeholder }

// IsPseudo reports whether the field is a unique index or foreign key.
func (f *Field) IsPseudo() bool { return f.kind.IsPseudo() }

// Label returns the human label, falling back to the name.
func (f *Field) Label() string {
	if f.label != "" {
		return f.label
	}
	return f.name
}

// Precision returns (m, d); zero m means unspecified.
func (f *Field) Precision() (int, int) { return f.precision, f.scale }

// MinValue returns the lower bound, if any.
func (f *Field) MinValue() (float64, bool) {
	if f.minValue == nil {
		return 0, false
	}
	return *f.minValue, true
}

// MaxValue returns the upper bound, if any.
func (f *Field) MaxValue() (float64, bool) {
	if f.maxValue == nil {
		return 0, false
	}
	return *f.maxValue, true
}

// EnumValues returns a copy of the allowed enum values.
func (f *Field) EnumValues() []string { return append([]string(nil), f.enum...) }

// Columns returns a copy of the columns a pseudo field spans.
func (f *Field) Columns() []string { return append([]string(nil), f.columns...) }

// References returns the referenced table and columns of a foreign key.
func (f *Field) References() (string, []string) {
	return f.refTable, append([]string(nil), f.refColumns...)
}

// Actions returns the ON DELETE and ON UPDATE actions of a foreign key.
func (f *Field) Actions() (onDelete, onUpdate Action) { return f.delAction, f.updAction }

// HasDefault reports whether new rows receive a value for this field.
func (f *Field) HasDefault() bool { return f.defFunc != nil || f.def != nil }

// Default evaluates the default value. Function defaults are called on
// every invocation.
func (f *Field) Default() (any, bool) {
	if f.defFunc != nil {
		return f.defFunc(), true
	}
	if f.def != nil {
		return f.def, true
	}
	return nil, false
}

// OnUpdateValue evaluates the on-update value.
func (f *Field) OnUpdateValue() (any, bool) {
	if f.onUpdateFn != nil {
		return f.onUpdateFn(), true
	}
	if f.onUpdate != nil {
		return f.onUpdate, true
	}
	return nil, false
}
