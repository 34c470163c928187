package actions

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Run drives a through its lifecycle. The returned Result is never nil. The
// error is the *Error of a when a failed: misconfiguration, an error from
// Apply, an unsuccessful outcome of a success-required action, or an abort
// caused by a nested action.
func Run(ctx context.Context, env *Env, a Action) (*Result, error) {
	env = env.orDefault()
	b := a.base()
	desc := a.String()

	res := &Result{Action: desc, ExecutionID: b.ExecutionID(), Success: true}
	s := &Scope{Env: env, Result: res, parent: a}
	logger := env.Logger.With(zap.String("action", firstLine(desc)))

	fail := func(e *Error) (*Result, error) {
		res.Success = false
		res.Err = e
		return res, e
	}

	if err := a.Validate(); err != nil {
		logger.Error("Invalid action configuration", zap.Error(err))
		return fail(s.abort(CodeConfiguration, "invalid configuration", err))
	}
	if err := ctx.Err(); err != nil {
		return fail(s.abort(CodeApplyFailed, "run cancelled", err))
	}

	logger.Debug("Running action",
		zap.Bool("fatal", b.fatal),
		zap.Bool("successRequired", b.successRequired),
		zap.Int("before", len(b.before)),
		zap.Int("after", len(b.after)))

	for _, child := range b.before {
		if _, err := s.RunChild(ctx, child); err != nil {
			return fail(asError(a, err))
		}
	}

	if err := a.Apply(ctx, s); err != nil {
		var ae *Error
		if errors.As(err, &ae) && ae.ExecutionID == res.ExecutionID {
			return fail(ae)
		}
		code := CodeApplyFailed
		if errors.Is(err, ErrConfiguration) {
			code = CodeConfiguration
		}
		logger.Warn("Action failed", zap.Error(err))
		return fail(s.abort(code, err.Error(), err))
	}

	if !res.Success && b.successRequired {
		logger.Warn("Action did not succeed")
		return fail(s.abort(CodeUnsuccessful, "action did not succeed", nil))
	}

	for _, child := range b.after {
		if _, err := s.RunChild(ctx, child); err != nil {
			return fail(asError(a, err))
		}
	}

	logger.Debug("Action finished",
		zap.Bool("success", res.Success),
		zap.Int("failures", len(res.Failures)))
	return res, nil
}

// abort builds the failure of the scope's action, carrying every nested
// failure recorded so far.
func (s *Scope) abort(code Code, message string, cause error) *Error {
	b := s.parent.base()
	return &Error{
		Action:      s.Result.Action,
		ExecutionID: b.ExecutionID(),
		Message:     message,
		Code:        code,
		Err:         cause,
		Children:    append([]*Error(nil), s.Result.Failures...),
	}
}

// record stores the failure of a nested action and decides whether it
// aborts the parent.
func (s *Scope) record(child Action, failure *Error) error {
	s.Result.Failures = append(s.Result.Failures, failure)

	cb := child.base()
	reason := ""
	switch {
	case failure.Code == CodeConfiguration:
		reason = "misconfigured"
	case cb.fatal:
		reason = "fatal"
	case failure.Code == CodeUnsuccessful:
		reason = "success required"
	case s.parent.base().fatal:
		reason = "parent fatal"
	}

	fields := []zap.Field{
		zap.String("action", firstLine(s.Result.Action)),
		zap.String("child", firstLine(failure.Action)),
		zap.Stringer("code", failure.Code),
	}
	if reason == "" {
		s.Logger.Warn("Recorded failure of nested action", fields...)
		return nil
	}

	s.Logger.Error("Nested action failure aborts parent", append(fields, zap.String("reason", reason))...)
	return s.abort(CodeChildFailed, "nested action failed", nil)
}
