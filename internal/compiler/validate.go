package compiler

import (
	"fmt"

	"github.com/roach88/rowmodel/internal/field"
	"github.com/roach88/rowmodel/internal/schema"
)

// Validation error codes (E100-E199)
const (
	ErrNoPrimaryKey      = "E101" // model has no primary key
	ErrDuplicateTable    = "E105" // two models share a table name
	ErrUnknownReference  = "E110" // foreign key references an unknown model
	ErrUnknownRefColumn  = "E111" // referenced column is not declared
	ErrReferenceArity    = "E112" // column and referenced column counts differ
	ErrReferenceType     = "E113" // column and referenced column kinds differ
	ErrReferenceNotKeyed = "E114" // referenced columns are neither primary key nor unique
)

// ValidationError represents a model validation error.
type ValidationError struct {
	Model   string `json:"model"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s.%s: %s", e.Code, e.Model, e.Field, e.Message)
}

// Validate checks a set of compiled models against each other. Returns all
// errors found (does not fail-fast).
func Validate(schemas []*schema.Schema) []ValidationError {
	var errs []ValidationError

	byTable := make(map[string]*schema.Schema, len(schemas))
	for _, s := range schemas {
		if _, dup := byTable[s.Table()]; dup {
			errs = append(errs, ValidationError{
				Model:   s.Table(),
				Field:   "model",
				Message: fmt.Sprintf("duplicate model %q", s.Table()),
				Code:    ErrDuplicateTable,
			})
			continue
		}
		byTable[s.Table()] = s
	}

	for _, s := range schemas {
		if s.PrimaryKey() == nil {
			errs = append(errs, ValidationError{
				Model:   s.Table(),
				Field:   "primary_key",
				Message: "primary key is required to commit or sync",
				Code:    ErrNoPrimaryKey,
			})
		}
		for _, fk := range s.Constraints(field.KindForeignKey) {
			errs = append(errs, validateForeignKey(s, fk, byTable)...)
		}
	}
	return errs
}

func validateForeignKey(s *schema.Schema, fk *field.Field, byTable map[string]*schema.Schema) []ValidationError {
	fail := func(code, format string, args ...any) []ValidationError {
		return []ValidationError{{Model: s.Table(), Field: fk.Name(), Message: fmt.Sprintf(format, args...), Code: code}}
	}

	refTable, refCols := fk.References()
	ref := byTable[refTable]
	if ref == nil {
		return fail(ErrUnknownReference, "references unknown model %q", refTable)
	}
	cols := fk.Columns()
	if len(cols) != len(refCols) {
		return fail(ErrReferenceArity, "%d columns reference %d columns of %s", len(cols), len(refCols), refTable)
	}

	var errs []ValidationError
	for i, rc := range refCols {
		target := ref.Lookup(rc)
		if target == nil || !target.Stored() {
			errs = append(errs, fail(ErrUnknownRefColumn, "%s has no column %q", refTable, rc)...)
			continue
		}
		if own := s.Lookup(cols[i]); own != nil && own.Type() != target.Type() {
			errs = append(errs, fail(ErrReferenceType, "column %s is %s but %s.%s is %s", cols[i], own.Kind(), refTable, rc, target.Kind())...)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	if !keyed(ref, refCols) {
		return fail(ErrReferenceNotKeyed, "referenced columns (%v) of %s are neither its primary key nor a unique index", refCols, refTable)
	}
	return nil
}

// keyed reports whether cols are the primary key or exactly a unique index
// of s.
func keyed(s *schema.Schema, cols []string) bool {
	if pk := s.PrimaryKey(); pk != nil && len(cols) == 1 && cols[0] == pk.Name() {
		return true
	}
	for _, u := range s.Constraints(field.KindUniqueIndex) {
		if sameSet(u.Columns(), cols) {
			return true
		}
	}
	return false
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, x := range a {
		seen[x]++
	}
	for _, x := range b {
		if seen[x] == 0 {
			return false
		}
		seen[x]--
	}
	return true
}
