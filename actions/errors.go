package actions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrConfiguration is matched by failures raised during validation.
	ErrConfiguration = errors.New("invalid action configuration")

	// ErrCheckFailed is matched by success-required actions whose outcome
	// was false.
	ErrCheckFailed = errors.New("check failed")

	// ErrActionFailed is matched by failures of Apply and by aborts caused
	// by nested actions.
	ErrActionFailed = errors.New("action failed")
)

// Code classifies an Error.
type Code int

const (
	// CodeConfiguration marks a validation failure. It always aborts.
	CodeConfiguration Code = iota + 1
	// CodeApplyFailed marks an error returned by Apply.
	CodeApplyFailed
	// CodeUnsuccessful marks a success-required action that came back false.
	CodeUnsuccessful
	// CodeChildFailed marks an action aborted by a nested failure.
	CodeChildFailed
)

func (c Code) String() string {
	switch c {
	case CodeConfiguration:
		return "configuration"
	case CodeApplyFailed:
		return "apply_failed"
	case CodeUnsuccessful:
		return "unsuccessful"
	case CodeChildFailed:
		return "child_failed"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

func (c Code) sentinel() error {
	switch c {
	case CodeConfiguration:
		return ErrConfiguration
	case CodeUnsuccessful:
		return ErrCheckFailed
	default:
		return ErrActionFailed
	}
}

// Error is the failure of one action together with the failures of nested
// actions that were collected before it.
type Error struct {
	// Action is the description of the failing action.
	Action      string
	ExecutionID uuid.UUID
	Message     string
	Code        Code
	// Err is the underlying cause, if any.
	Err      error
	Children []*Error
}

func (e *Error) Error() string {
	msg := e.Action + ": " + e.Message
	if e.Err != nil && e.Err.Error() != e.Message {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the code's sentinel, the cause and every child failure.
func (e *Error) Unwrap() []error {
	errs := []error{e.Code.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	for _, c := range e.Children {
		errs = append(errs, c)
	}
	return errs
}

// ToMap serialises the failure tree.
func (e *Error) ToMap() map[string]any {
	children := make([]any, 0, len(e.Children))
	for _, c := range e.Children {
		children = append(children, c.ToMap())
	}
	m := map[string]any{
		"action":   e.Action,
		"message":  e.Message,
		"code":     e.Code.String(),
		"children": children,
	}
	if e.Err != nil {
		m["cause"] = e.Err.Error()
	}
	return m
}

// Lines renders the failure tree one failure per line, children indented.
func (e *Error) Lines() []string {
	var lines []string
	e.lines(0, &lines)
	return lines
}

func (e *Error) lines(depth int, out *[]string) {
	line := strings.Repeat("  ", depth) + "- " + firstLine(e.Action) + ": " + e.Message
	if e.Err != nil && e.Err.Error() != e.Message {
		line += " (" + e.Err.Error() + ")"
	}
	*out = append(*out, line)
	for _, c := range e.Children {
		c.lines(depth+1, out)
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// asError returns err as the *Error of a, wrapping foreign errors.
func asError(a Action, err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{
		Action:      a.String(),
		ExecutionID: a.base().ExecutionID(),
		Message:     err.Error(),
		Code:        CodeApplyFailed,
		Err:         err,
	}
}

// configError wraps a validation failure with ErrConfiguration.
func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
