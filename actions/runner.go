package actions

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Report summarises a Runner pass.
type Report struct {
	Results  []*Result
	Failures []*Error
	// Succeeded counts the actions whose run was fully successful.
	Succeeded int
	// Aborted is set when a fatal failure stopped the sequence.
	Aborted bool
}

// Runner executes a top-level sequence. Failures are collected and the
// sequence continues, unless the failing action is fatal or misconfigured.
type Runner struct {
	Env *Env
}

// NewRunner returns a Runner over env.
func NewRunner(env *Env) *Runner {
	return &Runner{Env: env.orDefault()}
}

// Run executes actions in order. The returned error combines every failure.
func (r *Runner) Run(ctx context.Context, actions ...Action) (*Report, error) {
	env := r.Env.orDefault()
	report := &Report{}
	var errs error

	for i, a := range actions {
		if err := ctx.Err(); err != nil {
			report.Aborted = true
			errs = multierr.Append(errs, err)
			break
		}

		res, err := Run(ctx, env, a)
		report.Results = append(report.Results, res)
		if err == nil {
			if res.SuccessfulRun() {
				report.Succeeded++
			}
			continue
		}

		failure := asError(a, err)
		report.Failures = append(report.Failures, failure)
		errs = multierr.Append(errs, failure)

		if a.base().fatal || failure.Code == CodeConfiguration {
			env.Logger.Error("Stopping after fatal failure",
				zap.Int("index", i),
				zap.String("action", firstLine(failure.Action)),
				zap.Error(failure))
			report.Aborted = true
			break
		}
		env.Logger.Warn("Action failed, continuing",
			zap.Int("index", i),
			zap.String("action", firstLine(failure.Action)),
			zap.Error(failure))
	}

	env.Logger.Info("Run finished",
		zap.Int("actions", len(actions)),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", len(report.Failures)),
		zap.Bool("aborted", report.Aborted))
	return report, errs
}
