package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// recorder is a scripted action that records when it is applied.
type recorder struct {
	Base
	name         string
	unsuccessful bool
	err          error
	invalid      error
	applied      int
	trace        *[]string
}

func newRecorder(name string, trace *[]string, opts ...Option) *recorder {
	return Configure(&recorder{name: name, trace: trace}, opts...)
}

func (p *recorder) String() string { return p.name }

func (p *recorder) Validate() error { return p.invalid }

func (p *recorder) Apply(_ context.Context, s *Scope) error {
	p.applied++
	if p.trace != nil {
		*p.trace = append(*p.trace, p.name)
	}
	if p.err != nil {
		return p.err
	}
	s.Result.Success = !p.unsuccessful
	s.Result.Value = p.name
	return nil
}

func testEnv() *Env {
	return NewEnv(afero.NewMemMapFs(), zap.NewNop())
}

func TestRunOrder(t *testing.T) {
	var trace []string
	a := newRecorder("main", &trace,
		Before(newRecorder("before-1", &trace), newRecorder("before-2", &trace)),
		After(newRecorder("after", &trace)),
	)

	res, err := Run(context.Background(), testEnv(), a)
	require.NoError(t, err)
	assert.Equal(t, []string{"before-1", "before-2", "main", "after"}, trace)
	assert.True(t, res.SuccessfulRun())
	assert.Equal(t, "main", res.Value)
	require.Len(t, res.Children, 3)
	assert.Equal(t, "before-1", res.Children[0].Action)
	assert.Equal(t, "after", res.Children[2].Action)
}

func TestRunFatalActionAbortsOnBeforeFailure(t *testing.T) {
	var trace []string
	before := newRecorder("before", &trace)
	before.err = errors.New("boom")
	sibling := newRecorder("sibling", &trace)
	a := newRecorder("main", &trace, Fatal(), Before(before, sibling))

	res, err := Run(context.Background(), testEnv(), a)
	require.Error(t, err)

	var failure *Error
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "main", failure.Action)
	assert.Equal(t, CodeChildFailed, failure.Code)
	require.Len(t, failure.Children, 1)
	assert.Equal(t, "before", failure.Children[0].Action)
	assert.Equal(t, CodeApplyFailed, failure.Children[0].Code)

	assert.Zero(t, a.applied, "apply must not run")
	assert.Zero(t, sibling.applied)
	assert.False(t, res.Success)
	assert.ErrorIs(t, err, ErrActionFailed)
}

func TestRunRecordsNonFatalChildFailure(t *testing.T) {
	before := newRecorder("before", nil)
	before.err = errors.New("boom")
	a := newRecorder("main", nil, Before(before), After(newRecorder("after", nil)))

	res, err := Run(context.Background(), testEnv(), a)
	require.NoError(t, err)
	assert.Equal(t, 1, a.applied)
	assert.True(t, res.Success)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "before", res.Failures[0].Action)
	assert.False(t, res.SuccessfulRun())
	assert.Len(t, res.Children, 2)
}

func TestRunFatalChildAbortsParent(t *testing.T) {
	before := newRecorder("before", nil, Fatal())
	before.err = errors.New("boom")
	after := newRecorder("after", nil)
	a := newRecorder("main", nil, Before(before), After(after))

	_, err := Run(context.Background(), testEnv(), a)
	require.Error(t, err)
	assert.Zero(t, a.applied)
	assert.Zero(t, after.applied)
}

func TestRunSuccessRequired(t *testing.T) {
	t.Run("own unsuccessful result fails", func(t *testing.T) {
		after := newRecorder("after", nil)
		a := newRecorder("main", nil, SuccessRequired(), After(after))
		a.unsuccessful = true

		res, err := Run(context.Background(), testEnv(), a)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCheckFailed)

		var failure *Error
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, CodeUnsuccessful, failure.Code)
		assert.Zero(t, after.applied)
		assert.Same(t, failure, res.Err)
	})

	t.Run("unsuccessful child aborts parent", func(t *testing.T) {
		child := newRecorder("child", nil, SuccessRequired())
		child.unsuccessful = true
		a := newRecorder("main", nil, Before(child))

		_, err := Run(context.Background(), testEnv(), a)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCheckFailed)
		assert.Zero(t, a.applied)
	})

	t.Run("unsuccessful child without the flag is only a result", func(t *testing.T) {
		child := newRecorder("child", nil)
		child.unsuccessful = true
		a := newRecorder("main", nil, Before(child))

		res, err := Run(context.Background(), testEnv(), a)
		require.NoError(t, err)
		assert.Empty(t, res.Failures)
		assert.False(t, res.Children[0].Success)
		assert.Equal(t, 1, a.applied)
	})
}

func TestRunConfigurationError(t *testing.T) {
	before := newRecorder("before", nil)
	a := newRecorder("main", nil, Before(before))
	a.invalid = configError("key cannot be empty")

	_, err := Run(context.Background(), testEnv(), a)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)

	var failure *Error
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, CodeConfiguration, failure.Code)
	assert.Zero(t, a.applied)
	assert.Zero(t, before.applied, "nothing runs before validation passes")
}

func TestRunMisconfiguredChildAbortsParent(t *testing.T) {
	child := newRecorder("child", nil)
	child.invalid = configError("bad")
	a := newRecorder("main", nil, Before(child))

	_, err := Run(context.Background(), testEnv(), a)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Zero(t, a.applied)
}

func TestRunApplyErrorCarriesRecordedFailures(t *testing.T) {
	before := newRecorder("before", nil)
	before.err = errors.New("first")
	cause := errors.New("second")
	a := newRecorder("main", nil, Before(before))
	a.err = cause

	_, err := Run(context.Background(), testEnv(), a)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	var failure *Error
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, CodeApplyFailed, failure.Code)
	require.Len(t, failure.Children, 1)
	assert.Equal(t, "before", failure.Children[0].Action)
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := newRecorder("main", nil)
	_, err := Run(ctx, testEnv(), a)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, a.applied)
}

func TestRunNilEnv(t *testing.T) {
	res, err := Run(context.Background(), nil, newRecorder("main", nil))
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestExecutionID(t *testing.T) {
	a, b := newRecorder("a", nil), newRecorder("b", nil)
	assert.NotEqual(t, uuid.Nil, a.ExecutionID())
	assert.Equal(t, a.ExecutionID(), a.ExecutionID())
	assert.NotEqual(t, a.ExecutionID(), b.ExecutionID())

	res, err := Run(context.Background(), testEnv(), a)
	require.NoError(t, err)
	assert.Equal(t, a.ExecutionID(), res.ExecutionID)
}

func TestErrorToMapAndLines(t *testing.T) {
	before := newRecorder("before", nil)
	before.err = errors.New("boom")
	a := newRecorder("main", nil, Fatal(), Before(before))

	_, err := Run(context.Background(), testEnv(), a)
	var failure *Error
	require.ErrorAs(t, err, &failure)

	assert.Equal(t, map[string]any{
		"action":  "main",
		"message": "nested action failed",
		"code":    "child_failed",
		"children": []any{
			map[string]any{
				"action":   "before",
				"message":  "boom",
				"code":     "apply_failed",
				"cause":    "boom",
				"children": []any{},
			},
		},
	}, failure.ToMap())
	assert.Equal(t, []string{
		"- main: nested action failed",
		"  - before: boom",
	}, failure.Lines())
}

func TestRunner(t *testing.T) {
	t.Run("continues past non-fatal failures", func(t *testing.T) {
		failing := newRecorder("failing", nil)
		failing.err = errors.New("boom")
		last := newRecorder("last", nil)

		report, err := NewRunner(testEnv()).Run(context.Background(), newRecorder("first", nil), failing, last)
		require.Error(t, err)
		assert.Len(t, multierr.Errors(err), 1)
		assert.Equal(t, 1, last.applied)
		assert.Equal(t, 2, report.Succeeded)
		assert.Len(t, report.Results, 3)
		assert.False(t, report.Aborted)
	})

	t.Run("stops at a fatal failure", func(t *testing.T) {
		failing := newRecorder("failing", nil, Fatal())
		failing.err = errors.New("boom")
		last := newRecorder("last", nil)

		report, err := NewRunner(testEnv()).Run(context.Background(), failing, last)
		require.Error(t, err)
		assert.Zero(t, last.applied)
		assert.True(t, report.Aborted)
		require.Len(t, report.Failures, 1)
		assert.Equal(t, "failing", report.Failures[0].Action)
	})

	t.Run("stops at a misconfigured action", func(t *testing.T) {
		bad := newRecorder("bad", nil)
		bad.invalid = configError("bad")
		last := newRecorder("last", nil)

		report, err := NewRunner(testEnv()).Run(context.Background(), bad, last)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Zero(t, last.applied)
		assert.True(t, report.Aborted)
	})

	t.Run("all succeed", func(t *testing.T) {
		report, err := NewRunner(nil).Run(context.Background(), newRecorder("a", nil), newRecorder("b", nil))
		require.NoError(t, err)
		assert.Equal(t, 2, report.Succeeded)
		assert.Empty(t, report.Failures)
	})
}
