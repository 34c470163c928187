package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kotatut/scaffolder/configfile"
	"github.com/kotatut/scaffolder/recipes"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		appConfig string
		apiConfig string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an API project from a template",
		Long: `generate copies the template directory into a new project, fills in
composer.json, writes the API configuration to config/api.json and substitutes
placeholders in every text file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if appConfig == "" {
				return errors.New("--app-config is required")
			}
			env := a.env()

			cfg, err := recipes.LoadConfig(env.Fs, appConfig, a.logger)
			if err != nil {
				return err
			}
			cfg.Overwrite = cfg.Overwrite || overwrite

			var api map[string]any
			if apiConfig != "" {
				if api, _, err = configfile.Read(env.Fs, apiConfig, a.logger); err != nil {
					return fmt.Errorf("read API configuration: %w", err)
				}
			}

			a.logger.Info("Generating project",
				zap.String("name", cfg.Name),
				zap.String("template", cfg.Template),
				zap.String("output", cfg.Output),
				zap.Int("apiKeys", len(api)))
			return runActions(cmd, env, recipes.APISkeleton(cfg, api))
		},
	}

	cmd.Flags().StringVar(&appConfig, "app-config", "", "project configuration file (name, description, template, ...)")
	cmd.Flags().StringVar(&apiConfig, "api-config", "", "API configuration file written to config/api.json")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "generate into an existing output directory")
	return cmd
}
