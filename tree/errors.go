package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingKey is matched by every failure to resolve a key path.
	ErrMissingKey = errors.New("missing key")

	// ErrEmptyKey is returned for an empty key path.
	ErrEmptyKey = errors.New("key cannot be empty")

	// ErrInvalidKey is returned for key paths with empty segments.
	ErrInvalidKey = errors.New("invalid key")

	// ErrUnknownOperation is returned for an operation outside the Operation enum.
	ErrUnknownOperation = errors.New("unknown operation")
)

// MissingKeyError reports the full dotted path of the first absent segment.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("key '%s' is missing", e.Key)
}

func (e *MissingKeyError) Unwrap() error {
	return ErrMissingKey
}

// NotAMapError reports a path segment that holds a scalar or list while
// deeper segments were requested. Nothing can exist below such a value, so
// it also matches ErrMissingKey.
type NotAMapError struct {
	Key  string
	Type string
}

func (e *NotAMapError) Error() string {
	return fmt.Sprintf("key '%s' holds a %s, not a map", e.Key, e.Type)
}

func (e *NotAMapError) Unwrap() error {
	return ErrMissingKey
}
