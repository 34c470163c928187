package actions

import (
	"context"

	"github.com/google/uuid"
)

// Result is the outcome of running one action.
type Result struct {
	// Action is the description of the action that produced the result.
	Action      string
	ExecutionID uuid.UUID
	// Value is the action's payload: the outcome of a check, the tree
	// produced by a modification, the files visited by a loop.
	Value any
	// Success is the action's own outcome. It starts out true; checks set
	// it to the result of their condition.
	Success bool
	// Children holds the results of nested actions in execution order.
	Children []*Result
	// Failures holds the recorded failures of nested actions that did not
	// abort this one.
	Failures []*Error
	// Err is set when this action itself failed.
	Err *Error
}

// SuccessfulRun reports whether the action succeeded and no nested action
// failure was recorded.
func (r *Result) SuccessfulRun() bool {
	return r.Success && r.Err == nil && len(r.Failures) == 0
}

// Walk visits r and every nested result depth first.
func (r *Result) Walk(fn func(depth int, r *Result)) {
	r.walk(0, fn)
}

func (r *Result) walk(depth int, fn func(int, *Result)) {
	fn(depth, r)
	for _, c := range r.Children {
		c.walk(depth+1, fn)
	}
}

// Scope is what Apply sees of a run: the shared Env, the parent's Result,
// and a way to run nested actions under the parent's failure rules.
type Scope struct {
	*Env
	Result *Result
	parent Action
}

// RunChild runs a nested action and appends its result to the parent's.
// A failure is recorded on the parent's Result. The returned error is
// non-nil only when the failure aborts the parent; Apply must then return
// it unchanged.
func (s *Scope) RunChild(ctx context.Context, a Action) (*Result, error) {
	res, err := Run(ctx, s.Env, a)
	s.Result.Children = append(s.Result.Children, res)
	if err == nil {
		return res, nil
	}
	return res, s.record(a, asError(a, err))
}
