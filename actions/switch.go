package actions

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kotatut/scaffolder/configfile"
	"github.com/kotatut/scaffolder/tree"
	"github.com/kotatut/scaffolder/value"
)

// Expression produces the value a SwitchStatement dispatches on.
type Expression interface {
	fmt.Stringer
	Evaluate(ctx context.Context, s *Scope) (value.Value, error)
}

// Literal is an expression with a fixed value.
type Literal struct {
	Value value.Value
}

func (e Literal) String() string { return fmt.Sprintf("'%s'", e.Value) }

func (e Literal) Evaluate(context.Context, *Scope) (value.Value, error) { return e.Value, nil }

// KeyOf reads a key of an in-memory tree.
type KeyOf struct {
	Tree map[string]any
	Key  string
}

func (e KeyOf) String() string { return fmt.Sprintf("key '%s'", e.Key) }

func (e KeyOf) Evaluate(context.Context, *Scope) (value.Value, error) {
	return resolveValue(e.Tree, e.Key)
}

// ConfigKey reads a key of a configuration file.
type ConfigKey struct {
	Path string
	Key  string
}

func (e ConfigKey) String() string {
	return fmt.Sprintf("key '%s' of file '%s'", e.Key, e.Path)
}

func (e ConfigKey) Evaluate(_ context.Context, s *Scope) (value.Value, error) {
	t, _, err := configfile.Read(s.Fs, e.Path, s.Logger)
	if err != nil {
		return value.Value{}, err
	}
	return resolveValue(t, e.Key)
}

func resolveValue(t map[string]any, key string) (value.Value, error) {
	raw, err := tree.Resolve(t, key)
	if err != nil {
		return value.Value{}, err
	}
	return value.Of(raw)
}

// Case pairs a value with the action run when the expression equals it.
type Case struct {
	Value  value.Value
	Action Action
}

// SwitchStatement evaluates its expression once and runs the action of the
// first case whose value is strictly equal to it, or Default.
type SwitchStatement struct {
	Base
	Expression Expression
	Cases      []Case
	Default    Action
}

// NewSwitch returns a SwitchStatement on expr.
func NewSwitch(expr Expression, cases []Case, defaultAction Action, opts ...Option) *SwitchStatement {
	return Configure(&SwitchStatement{Expression: expr, Cases: cases, Default: defaultAction}, opts...)
}

func (a *SwitchStatement) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Switch on %s", describeExpression(a.Expression))
	for _, c := range a.Cases {
		fmt.Fprintf(&b, "\n  case '%s':\n%s", c.Value, indent(indent(describe(c.Action))))
	}
	if a.Default != nil {
		fmt.Fprintf(&b, "\n  default:\n%s", indent(indent(a.Default.String())))
	}
	return b.String()
}

func describeExpression(e Expression) string {
	if e == nil {
		return "<none>"
	}
	return e.String()
}

// Validate requires a default unless the expression is a literal that one
// of the cases matches.
func (a *SwitchStatement) Validate() error {
	if a.Expression == nil {
		return configError("switch statement needs an expression")
	}
	if len(a.Cases) == 0 && a.Default == nil {
		return configError("switch statement needs at least one case or a default")
	}
	for i, c := range a.Cases {
		if c.Action == nil {
			return configError("case %d has no action", i)
		}
		for _, prev := range a.Cases[:i] {
			if prev.Value.Equal(c.Value) {
				return configError("duplicate case value '%s'", c.Value)
			}
		}
	}
	if a.Default == nil && !a.literalMatches() {
		return configError("switch statement on %s needs a default case", a.Expression)
	}
	return nil
}

func (a *SwitchStatement) literalMatches() bool {
	lit, ok := a.Expression.(Literal)
	if !ok {
		return false
	}
	for _, c := range a.Cases {
		if c.Value.Equal(lit.Value) {
			return true
		}
	}
	return false
}

func (a *SwitchStatement) Apply(ctx context.Context, s *Scope) error {
	v, err := a.Expression.Evaluate(ctx, s)
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", a.Expression, err)
	}

	target := a.Default
	for i, c := range a.Cases {
		if v.Equal(c.Value) {
			s.Logger.Debug("Case matched", zap.Int("case", i), zap.Stringer("value", v))
			target = c.Action
			break
		}
	}
	if target == nil {
		return configError("no case of switch on %s matches '%s' and there is no default", a.Expression, v)
	}

	res, err := s.RunChild(ctx, target)
	if err != nil {
		return err
	}
	s.Result.Value = res.Value
	return nil
}
