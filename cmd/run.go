package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kotatut/scaffolder/actions"
	"github.com/kotatut/scaffolder/pipeline"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run [pipeline-file]",
		Short: "Run the actions of a pipeline file",
		Long: `run loads a YAML or JSON pipeline file, builds its actions and runs them in
order. Failures of non-fatal actions are reported and the run continues.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			env := a.env()
			a.logger.Info("Running pipeline", zap.String("path", path))

			list, err := pipeline.Load(env.Fs, path, a.logger)
			if err != nil {
				return err
			}
			return runActions(cmd, env, list)
		},
	}
}

// runActions runs list with a Runner and prints the report.
func runActions(cmd *cobra.Command, env *actions.Env, list []actions.Action) error {
	report, err := actions.NewRunner(env).Run(cmd.Context(), list...)
	printReport(cmd.OutOrStdout(), report)
	if err != nil {
		return fmt.Errorf("%d of %d actions failed", len(report.Failures), len(list))
	}
	return nil
}

func printReport(w io.Writer, report *actions.Report) {
	for _, res := range report.Results {
		fmt.Fprintf(w, "[%s] %s\n", status(res), headline(res.Action))

		failures := res.Failures
		if res.Err != nil {
			failures = []*actions.Error{res.Err}
		}
		for _, f := range failures {
			for _, line := range f.Lines() {
				fmt.Fprintf(w, "    %s\n", headline(line))
			}
		}
	}
	fmt.Fprintf(w, "%d of %d actions succeeded\n", report.Succeeded, len(report.Results))
	if report.Aborted {
		fmt.Fprintln(w, "run aborted")
	}
}

func status(res *actions.Result) string {
	switch {
	case res.Err != nil:
		return "failed"
	case len(res.Failures) > 0:
		return "partial"
	case !res.Success:
		return "unsuccessful"
	default:
		return "ok"
	}
}

func headline(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
