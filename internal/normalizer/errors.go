package normalizer

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrUnknownKind is returned when a column kind has no transform bound to it.
var ErrUnknownKind = errors.New("unknown column kind")

// ParseError is returned by a field transform when the field text does not
// match the layout it expects. It is row-scoped: the row is dropped and
// processing continues.
type ParseError struct {
	// Column is the 0-based column index of the failing field.
	// -1 when the transform was invoked outside a row.
	Column int

	// Kind is the column kind whose transform failed.
	Kind ColumnKind

	// Value is the raw field text that failed to parse.
	Value string

	// Reason is a human-readable description of the mismatch.
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Column < 0 {
		return fmt.Sprintf("invalid value %q: %s", e.Value, e.Reason)
	}
	return fmt.Sprintf("column %d (%s): invalid value %q: %s", e.Column, e.Kind, e.Value, e.Reason)
}

// WidthError is returned when a row does not have the declared number of columns.
type WidthError struct {
	Got  int
	Want int
}

// Error implements the error interface.
func (e *WidthError) Error() string {
	return fmt.Sprintf("row has %d fields, expected %d", e.Got, e.Want)
}

// atColumn stamps a column index onto a ParseError produced by a transform.
func atColumn(err error, column int, kind ColumnKind) error {
	var pe *ParseError
	if errors.As(err, &pe) && pe.Column < 0 {
		copied := *pe
		copied.Column = column
		if copied.Kind == KindUnknown {
			copied.Kind = kind
		}
		return &copied
	}
	return err
}
