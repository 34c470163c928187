package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kotatut/scaffolder/actions"
	"github.com/kotatut/scaffolder/check"
	"github.com/kotatut/scaffolder/value"
)

var errCheckFailed = errors.New("check is not satisfied")

func newCheckCmd(a *app) *cobra.Command {
	var reverse bool

	cmd := &cobra.Command{
		Use:   "check [config-file] [key] [operator] [value]",
		Short: "Check a key of a configuration file",
		Long: `check resolves a dotted key in a configuration file and compares it with
the operator. The value is read as a YAML scalar, so 8080 is a number and
"8080" a string. The command fails when the check is not satisfied.`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := check.ParseOperator(args[2])
			if err != nil {
				return err
			}
			var v value.Value
			if len(args) == 4 {
				if v, err = parseScalar(args[3]); err != nil {
					return err
				}
			}

			verify := actions.NewVerifyConfigFile(args[0], check.Params{
				Key:      args[1],
				Operator: op,
				Value:    v,
				Reverse:  reverse,
			})
			res, err := actions.Run(cmd.Context(), a.env(), verify)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), verify.String())
			fmt.Fprintln(cmd.OutOrStdout(), res.Success)
			if !res.Success {
				return errCheckFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reverse, "reverse", false, "negate the outcome")
	return cmd
}

func parseScalar(s string) (value.Value, error) {
	var raw any
	if err := yaml.Unmarshal([]byte(s), &raw); err != nil {
		return value.String(s), nil
	}
	v, err := value.Of(raw)
	if err != nil {
		return value.Value{}, fmt.Errorf("value %q: %w", s, err)
	}
	return v, nil
}
