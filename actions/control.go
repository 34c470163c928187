package actions

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Branch pairs a condition with the action run when it succeeds.
type Branch struct {
	Condition Action
	Then      Action
}

// IfStatement runs the Then action of the first branch whose condition
// succeeds, or Default when none does. Without a match and without a
// default it does nothing and succeeds.
type IfStatement struct {
	Base
	Branches []Branch
	Default  Action
}

// NewIf returns an IfStatement with a single branch.
func NewIf(condition, then Action, opts ...Option) *IfStatement {
	return Configure(&IfStatement{Branches: []Branch{{Condition: condition, Then: then}}}, opts...)
}

// ElseIf appends a branch.
func (a *IfStatement) ElseIf(condition, then Action) *IfStatement {
	a.Branches = append(a.Branches, Branch{Condition: condition, Then: then})
	return a
}

// Else sets the default action.
func (a *IfStatement) Else(action Action) *IfStatement {
	a.Default = action
	return a
}

func (a *IfStatement) String() string {
	var b strings.Builder
	for i, br := range a.Branches {
		if i > 0 {
			b.WriteString("\nElse if ")
		} else {
			b.WriteString("If ")
		}
		fmt.Fprintf(&b, "%s then\n%s", firstLine(describe(br.Condition)), indent(describe(br.Then)))
	}
	if a.Default != nil {
		fmt.Fprintf(&b, "\nElse\n%s", indent(a.Default.String()))
	}
	return b.String()
}

func (a *IfStatement) Validate() error {
	if len(a.Branches) == 0 {
		return configError("if statement needs at least one branch")
	}
	for i, br := range a.Branches {
		if br.Condition == nil || br.Then == nil {
			return configError("branch %d needs a condition and an action", i)
		}
	}
	return nil
}

func (a *IfStatement) Apply(ctx context.Context, s *Scope) error {
	for i, br := range a.Branches {
		cond, err := s.RunChild(ctx, br.Condition)
		if err != nil {
			return err
		}
		if !cond.SuccessfulRun() {
			continue
		}

		s.Logger.Debug("Branch matched", zap.Int("branch", i))
		res, err := s.RunChild(ctx, br.Then)
		if err != nil {
			return err
		}
		s.Result.Value = res.Value
		return nil
	}

	if a.Default == nil {
		s.Logger.Debug("No branch matched")
		return nil
	}
	s.Logger.Debug("Running default branch")
	res, err := s.RunChild(ctx, a.Default)
	if err != nil {
		return err
	}
	s.Result.Value = res.Value
	return nil
}

// ForEachLoop runs its actions in order.
type ForEachLoop struct {
	Base
	Actions []Action
}

// NewForEach returns a ForEachLoop over actions.
func NewForEach(actions []Action, opts ...Option) *ForEachLoop {
	return Configure(&ForEachLoop{Actions: actions}, opts...)
}

// ForEachValue builds one action per item with build.
func ForEachValue[T any](items []T, build func(T) Action, opts ...Option) *ForEachLoop {
	actions := make([]Action, 0, len(items))
	for _, item := range items {
		actions = append(actions, build(item))
	}
	return NewForEach(actions, opts...)
}

func (a *ForEachLoop) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "For each of %d actions", len(a.Actions))
	for _, child := range a.Actions {
		b.WriteString("\n")
		b.WriteString(indent("- " + describe(child)))
	}
	return b.String()
}

func (a *ForEachLoop) Validate() error {
	for i, child := range a.Actions {
		if child == nil {
			return configError("loop action %d is nil", i)
		}
	}
	return nil
}

func (a *ForEachLoop) Apply(ctx context.Context, s *Scope) error {
	succeeded := 0
	for _, child := range a.Actions {
		res, err := s.RunChild(ctx, child)
		if err != nil {
			return err
		}
		if res.SuccessfulRun() {
			succeeded++
		}
	}
	s.Result.Value = succeeded
	return nil
}

func describe(a Action) string {
	if a == nil {
		return "<none>"
	}
	return a.String()
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
