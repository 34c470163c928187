// Package actions composes checks and transforms into pipelines.
//
// Every action follows the same lifecycle, driven by Run: validate, run the
// before-actions, apply, run the after-actions. Failures of nested actions
// are recorded on the parent's Result and only abort the parent when the
// failing child is fatal, when a success-required child came back
// unsuccessful, when the child was misconfigured, or when the parent itself
// is fatal.
package actions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Action is one unit of work. Concrete actions embed Base, which carries
// the lifecycle flags and nested actions.
type Action interface {
	fmt.Stringer

	// Validate reports misconfiguration. It never touches the filesystem.
	Validate() error

	// Apply performs the action's own effect. Checks store their outcome
	// with s.Result.Success; transforms leave it true.
	Apply(ctx context.Context, s *Scope) error

	base() *Base
}

// Env carries the collaborators shared by every action of a run.
type Env struct {
	Fs     afero.Fs
	Logger *zap.Logger
}

// NewEnv returns an Env. A nil filesystem means the OS filesystem, a nil
// logger a no-op logger.
func NewEnv(fs afero.Fs, logger *zap.Logger) *Env {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Env{Fs: fs, Logger: logger}
}

func (e *Env) orDefault() *Env {
	if e == nil {
		return NewEnv(nil, nil)
	}
	if e.Fs == nil || e.Logger == nil {
		return NewEnv(e.Fs, e.Logger)
	}
	return e
}

// Base holds the state every action shares. Its zero value is a
// non-fatal action without nested actions.
type Base struct {
	id              uuid.UUID
	fatal           bool
	successRequired bool
	before          []Action
	after           []Action
}

func (b *Base) base() *Base { return b }

// ExecutionID identifies the action instance. It is assigned on first use.
func (b *Base) ExecutionID() uuid.UUID {
	if b.id == uuid.Nil {
		b.id = uuid.New()
	}
	return b.id
}

// IsFatal reports whether a failure of this action aborts its caller.
func (b *Base) IsFatal() bool { return b.fatal }

// IsSuccessRequired reports whether an unsuccessful result counts as a failure.
func (b *Base) IsSuccessRequired() bool { return b.successRequired }

// BeforeActions returns the actions run ahead of Apply.
func (b *Base) BeforeActions() []Action { return b.before }

// AfterActions returns the actions run after Apply.
func (b *Base) AfterActions() []Action { return b.after }

// Option configures the Base of an action.
type Option func(*Base)

// Fatal makes failures of the action abort its caller.
func Fatal() Option {
	return func(b *Base) { b.fatal = true }
}

// SuccessRequired escalates an unsuccessful result to a failure.
func SuccessRequired() Option {
	return func(b *Base) { b.successRequired = true }
}

// Before appends actions that run ahead of Apply.
func Before(actions ...Action) Option {
	return func(b *Base) { b.before = append(b.before, actions...) }
}

// After appends actions that run after Apply.
func After(actions ...Action) Option {
	return func(b *Base) { b.after = append(b.after, actions...) }
}

// Configure applies opts to a and returns it.
func Configure[A Action](a A, opts ...Option) A {
	b := a.base()
	for _, opt := range opts {
		opt(b)
	}
	return a
}

// Flags reports the lifecycle flags of a.
func Flags(a Action) (fatal, successRequired bool) {
	b := a.base()
	return b.fatal, b.successRequired
}
