package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hochfrequenz/release-orchestrator/internal/config"
	"github.com/hochfrequenz/release-orchestrator/internal/logging"
	"github.com/hochfrequenz/release-orchestrator/internal/prompt"
	"github.com/hochfrequenz/release-orchestrator/internal/release"
	"github.com/hochfrequenz/release-orchestrator/internal/runner"
	"github.com/hochfrequenz/release-orchestrator/internal/workspace"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	// list command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the packages of the workspace",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	rootCmd.AddCommand(listCmd)

	// version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	return config.Load(config.Resolve(configPath))
}

// environment wires config, logger and runner for one invocation
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	runner *runner.Exec
	root   string
}

func newEnvironment() (*environment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(os.Stderr, level)
	if err != nil {
		return nil, err
	}

	root := cfg.Workspace.Root
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if root, err = workspace.FindRoot(cwd); err != nil {
			return nil, fmt.Errorf("locating workspace root: %w", err)
		}
	}

	return &environment{
		cfg:    cfg,
		logger: logger,
		runner: runner.New(logger),
		root:   root,
	}, nil
}

func runRelease(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment()
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	ctx := cmd.Context()
	opts := release.OptionsFromConfig(env.cfg, env.root)
	pipeline := release.New(opts, env.runner, prompt.NewTerminal(), env.logger, os.Stdout)

	// yarn breaks `npm whoami`, so a failing probe usually means the wrong entry point
	if err := pipeline.CheckAuth(ctx); err != nil {
		if errors.Is(err, release.ErrAuthenticationMissing) {
			return fmt.Errorf("cannot run as `yarn release`, must run as `npm run release`: %w", err)
		}
		return err
	}

	names, err := pipeline.Resolve(ctx, args)
	if err != nil {
		return err
	}

	env.logger.Info("release requested", zap.Strings("packages", names), zap.String("root", env.root))
	return pipeline.Run(ctx, names)
}

func runList(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment()
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	// listing output is the product here; keep the echo off stdout
	env.runner.Echo = os.Stderr
	ws := workspace.NewDispatcher(env.runner, env.cfg.Workspace.Tool, env.root)
	records, err := ws.List(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tLOCATION\tPRIVATE")
	for _, r := range records {
		rel, err := workspace.RelativeTo(env.root, r.Location)
		if err != nil {
			rel = r.Location
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", r.Name, r.Version, rel, r.Private)
	}
	return w.Flush()
}
