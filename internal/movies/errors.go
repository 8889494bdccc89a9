package movies

import (
	"fmt"
	"strings"
)

// DecodeError reports a request body that is not a JSON object.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode payload: %s", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// MissingFieldError lists the required fields absent from a payload.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field(s): %s", strings.Join(e.Fields, ", "))
}

// InvalidFieldError reports a field whose value cannot be stored.
type InvalidFieldError struct {
	Field string
	Value string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid value for %s: %s", e.Field, e.Value)
}
