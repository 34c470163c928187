package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/kotatut/scaffolder/cmd"
	"go.uber.org/zap"
)

// bootstrapLogger picks the encoder before the flags are parsed, so failures
// up to that point are already logged in the requested format.
func bootstrapLogger(args []string) (*zap.Logger, error) {
	if slices.Contains(args, "--json-logs") {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	logger, err := bootstrapLogger(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered from panic",
				zap.String("panic_info", fmt.Sprintf("%v", r)),
				zap.Stack("stacktrace"),
			)
			os.Exit(1)
		}
	}()

	cmd.Execute(logger)
}
