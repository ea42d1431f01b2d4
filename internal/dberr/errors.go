// Package dberr defines the error taxonomy shared by the row-mapping engine.
//
// Every failure surfaced by the engine is classified under exactly one kind:
//
//   - ErrValidation: a field bound, type, nullability or enum violation, or a
//     malformed request parameter (search, sort, range)
//   - ErrNotFound: an id or query yielded zero rows when one was expected
//   - ErrMultipleRows: an id or query yielded more than one row
//   - ErrSchema: the model definition cannot serve the operation (e.g. no
//     primary key declared)
//   - ErrConstraint: a uniqueness or foreign-key pre-check failed
//   - ErrStorage: the execution engine itself failed
//
// Callers classify with errors.Is against the sentinels or with the Is*
// helpers. The underlying driver error, when present, stays in the chain.
package dberr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrMultipleRows = errors.New("multiple rows returned")
	ErrSchema       = errors.New("schema error")
	ErrConstraint   = errors.New("constraint violation")
	ErrStorage      = errors.New("storage error")
)

// Error is a classified engine error scoped to one table.
type Error struct {
	// Kind is one of the package sentinels.
	Kind error

	// Table names the model the operation ran against (may be empty).
	Table string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause (optional).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Table != "" {
		msg = fmt.Sprintf("model %s: %s", e.Table, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New creates a classified error with a formatted message.
func New(kind error, table, format string, args ...any) *Error {
	return &Error{Kind: kind, Table: table, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind error, table string, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Table: table, Message: fmt.Sprintf(format, args...), Err: err}
}

// Storage wraps an execution engine failure. Errors that are already
// classified pass through unchanged so a validation failure raised deep in a
// storage path is not re-labelled.
func Storage(table string, err error, op string) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return &Error{Kind: ErrStorage, Table: table, Message: op, Err: err}
}

// Classified reports whether err already carries one of the package kinds.
func Classified(err error) bool {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrMultipleRows, ErrSchema, ErrConstraint, ErrStorage} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// IsValidation reports whether err is a rejected value.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err is a missing row or table.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsMultipleRows reports whether a single-row read matched several rows.
func IsMultipleRows(err error) bool { return errors.Is(err, ErrMultipleRows) }

// IsSchema reports whether err is an invalid model definition.
func IsSchema(err error) bool { return errors.Is(err, ErrSchema) }

// IsConstraint reports whether err is a unique or foreign key violation.
func IsConstraint(err error) bool { return errors.Is(err, ErrConstraint) }

// IsStorage reports whether err came from the database engine.
func IsStorage(err error) bool { return errors.Is(err, ErrStorage) }
