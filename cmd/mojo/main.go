package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/mojoframe/pkg/errors"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mojo",
		Short: "Mojo - batch scoring of CSV files with compiled pipelines",
		Long: `Mojo streams rows from a CSV file through a scoring pipeline in fixed-size
batches and writes the produced columns as CSV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Mojo v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	root.AddCommand(newShowCmd())
	root.AddCommand(newPredictCmd())
	root.AddCommand(newConfigCmd())
	return root
}

// exitCode maps session failures to process exit codes: 2 for input and
// engine problems, 3 for unsupported column types, 1 otherwise.
func exitCode(err error) int {
	switch {
	case errors.IsStructural(err):
		return 2
	case errors.IsType(err, errors.ErrorTypeCapability):
		return 3
	default:
		return 1
	}
}
