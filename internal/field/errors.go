package field

import (
	"fmt"

	"github.com/roach88/rowmodel/internal/dberr"
)

// ValidationError reports a value rejected by one field.
// It unwraps to dberr.ErrValidation.
type ValidationError struct {
	Field       string
	Label       string
	Description string
	Value       any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	name := e.Field
	if e.Label != "" && e.Label != e.Field {
		name = fmt.Sprintf("%s (%s)", e.Label, e.Field)
	}
	if e.Value == nil {
		return fmt.Sprintf("invalid field %s: %s", name, e.Description)
	}
	return fmt.Sprintf("invalid field %s: %s: %v", name, e.Description, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return dberr.ErrValidation
}

func (f *Field) invalid(v any, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:       f.name,
		Label:       f.label,
		Description: fmt.Sprintf(format, args...),
		Value:       v,
	}
}
