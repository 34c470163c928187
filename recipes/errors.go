package recipes

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfig indicates the project configuration is invalid.
	ErrInvalidConfig = errors.New("recipes: invalid configuration")

	// ErrMissingField indicates a required field is absent or empty.
	ErrMissingField = errors.New("recipes: missing required field")
)

// ValidationError is one problem with a configuration field.
type ValidationError struct {
	Field   string
	Message string
	Value   any
	Wrapped error
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation error: field %q: %s (got: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("validation error: field %q: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Wrapped
}

// ValidationErrors collects every problem found in one configuration.
type ValidationErrors struct {
	Errors []ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "validation: no errors"
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("validation failed with %d error(s): %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Is matches ErrInvalidConfig and the sentinel of every contained error.
func (e *ValidationErrors) Is(target error) bool {
	if target == ErrInvalidConfig {
		return true
	}
	for _, ve := range e.Errors {
		if ve.Wrapped != nil && errors.Is(ve.Wrapped, target) {
			return true
		}
	}
	return false
}

// Fields lists the names of the invalid fields.
func (e *ValidationErrors) Fields() []string {
	out := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		out[i] = ve.Field
	}
	return out
}
