package field

import (
	"fmt"
	"strings"
)

// Kind identifies the data type a Field stores, or the table-level
// constraint a pseudo-field declares.
type Kind int

const (
	KindString Kind = iota
	KindText
	KindTinyText
	KindMediumText
	KindLongText
	KindEnum
	KindUUID
	KindTinyInt
	KindSmallInt
	KindMediumInt
	KindInteger
	KindBigInt
	KindBoolean
	KindFloat
	KindDouble
	KindDecimal
	KindDateTime
	KindBlob
	KindTinyBlob
	KindMediumBlob
	KindLongBlob
	KindObject

	// Pseudo-fields: table-level constraints, never stored.
	KindUniqueIndex
	KindIndex
	KindForeignKey
)

var kindNames = map[Kind]string{
	KindString:      "string",
	KindText:        "text",
	KindTinyText:    "tiny_text",
	KindMediumText:  "medium_text",
	KindLongText:    "long_text",
	KindEnum:        "enum",
	KindUUID:        "uuid",
	KindTinyInt:     "tiny_int",
	KindSmallInt:    "small_int",
	KindMediumInt:   "medium_int",
	KindInteger:     "integer",
	KindBigInt:      "big_int",
	KindBoolean:     "boolean",
	KindFloat:       "float",
	KindDouble:      "double",
	KindDecimal:     "decimal",
	KindDateTime:    "datetime",
	KindBlob:        "blob",
	KindTinyBlob:    "tiny_blob",
	KindMediumBlob:  "medium_blob",
	KindLongBlob:    "long_blob",
	KindObject:      "object",
	KindUniqueIndex: "unique_index",
	KindIndex:       "index",
	KindForeignKey:  "foreign_key",
}

// String returns the kind's registry name (e.g. "medium_int").
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind resolves a registry name back to a Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown field type %q", name)
}

// IsPseudo reports whether the kind is a table-level constraint.
func (k Kind) IsPseudo() bool {
	return k == KindUniqueIndex || k == KindIndex || k == KindForeignKey
}

// IsInteger reports whether the kind is one of the integer widths.
// Boolean is not an integer kind even though it is stored as one.
func (k Kind) IsInteger() bool {
	return k >= KindTinyInt && k <= KindBigInt
}

// IsFloat reports whether the kind is a binary floating point kind.
func (k Kind) IsFloat() bool {
	return k == KindFloat || k == KindDouble
}

// IsNumeric reports whether the kind carries min/max value bounds.
func (k Kind) IsNumeric() bool {
	return k.IsInteger() || k.IsFloat() || k == KindDecimal
}

// IsText reports whether values are strings measured in characters.
func (k Kind) IsText() bool {
	switch k {
	case KindString, KindText, KindTinyText, KindMediumText, KindLongText, KindEnum, KindUUID:
		return true
	}
	return false
}

// IsBlob reports whether values are byte strings measured in bytes.
func (k Kind) IsBlob() bool {
	return k >= KindBlob && k <= KindLongBlob
}

// bits is the native storage width of an integer kind.
func (k Kind) bits() uint {
	switch k {
	case KindTinyInt:
		return 8
	case KindSmallInt:
		return 16
	case KindMediumInt:
		return 24
	case KindInteger:
		return 32
	case KindBigInt:
		return 64
	}
	return 0
}

// IntRange returns the native inclusive range of an integer kind.
// Unsigned 64-bit values are capped at the int64 maximum.
func (k Kind) IntRange(signed bool) (lo, hi int64) {
	b := k.bits()
	if b == 0 {
		return 0, 0
	}
	if signed {
		if b == 64 {
			return -1 << 63, 1<<63 - 1
		}
		return -(1 << (b - 1)), 1<<(b-1) - 1
	}
	if b == 64 {
		return 0, 1<<63 - 1
	}
	return 0, 1<<b - 1
}

// Action is a foreign key referential action.
type Action string

const (
	NoAction   Action = "NO ACTION"
	Restrict   Action = "RESTRICT"
	SetNull    Action = "SET NULL"
	SetDefault Action = "SET DEFAULT"
	Cascade    Action = "CASCADE"
)

// ParseAction validates a referential action name, case-insensitively.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToUpper(strings.TrimSpace(s))); a {
	case NoAction, Restrict, SetNull, SetDefault, Cascade:
		return a, nil
	}
	return "", fmt.Errorf("invalid referential action %q", s)
}
