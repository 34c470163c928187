package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kotatut/scaffolder/actions"
)

// app holds the state shared by every command.
type app struct {
	logger *zap.Logger
	fs     afero.Fs

	root     string
	verbose  bool
	jsonLogs bool

	// buildLogger replaces logger once the flags are parsed. Tests leave it
	// nil and keep the logger they pass in.
	buildLogger func(jsonLogs, verbose bool) (*zap.Logger, error)
}

func newLogger(jsonLogs, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if jsonLogs {
		cfg = zap.NewProductionConfig()
	}
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

// env returns the action environment. Every path is resolved inside --root
// when it is set.
func (a *app) env() *actions.Env {
	fs := a.fs
	if a.root != "" {
		fs = afero.NewBasePathFs(fs, a.root)
	}
	return actions.NewEnv(fs, a.logger)
}

func newApp(logger *zap.Logger, fs afero.Fs) *app {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &app{logger: logger, fs: fs}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scaffolder",
		Short: "Generate and modify projects with declarative actions",
		Long: `scaffolder runs actions that check and modify project files: configuration
files in JSON, YAML, TOML, INI, XML and HCL, file contents, and directory trees.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.buildLogger == nil {
				return nil
			}
			l, err := a.buildLogger(a.jsonLogs, a.verbose)
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			a.logger = l
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.root, "root", "", "directory every path is resolved in")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&a.jsonLogs, "json-logs", false, "log JSON lines instead of console output")

	rootCmd.AddCommand(
		newRunCmd(a),
		newGenerateCmd(a),
		newCheckCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command line with logger until flags select another.
func Execute(logger *zap.Logger) {
	a := newApp(logger, afero.NewOsFs())
	a.buildLogger = newLogger
	rootCmd := newRootCmd(a)

	defer func() {
		if err := a.logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "Error syncing logger: %v\n", err)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		a.logger.Fatal("Command execution failed", zap.Error(err))
	}
}
