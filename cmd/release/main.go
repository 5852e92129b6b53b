package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/hochfrequenz/release-orchestrator/internal/runner"
	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time
var version = "dev"

var (
	configPath string
	verbose    bool
	rootCmd    = &cobra.Command{
		Use:   "release <package>... | all",
		Short: "Release orchestrator - version, tag and publish monorepo packages",
		Long: `release builds, versions, tags and publishes a selection of packages of a
lerna workspace. Only packages whose version actually changed are committed,
tagged and published; the run stops at the first failing step.`,
		Args:          cobra.MinimumNArgs(1),
		RunE:          runRelease,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode passes a failed command's own status through; everything else is 1
func exitCode(err error) int {
	if status, ok := runner.ExitStatus(err); ok {
		return status
	}
	return 1
}
