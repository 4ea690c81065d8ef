package schema

import (
	"errors"
	"fmt"
)

// ErrInvalidDefinition is wrapped by every error NewRegistry returns for a
// malformed or conflicting definition.
var ErrInvalidDefinition = errors.New("sdtt: invalid schema definition")

// UnknownSchemaError reports a selection that names no registered schema.
// Format is empty when the name was given without a format.
type UnknownSchemaError struct {
	Format Format
	Name   string
}

func (e *UnknownSchemaError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("%q is not a valid schema for format %q", e.Name, e.Format)
	}
	return fmt.Sprintf("%q is not a valid schema", e.Name)
}
