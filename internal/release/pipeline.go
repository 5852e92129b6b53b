// Package release sequences the phases of a multi-package release.
//
// Every phase completes for the whole batch before the next one starts, and the
// first failure ends the run. Nothing that already succeeded is undone; the
// operator inspects git and the registry instead.
package release

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hochfrequenz/release-orchestrator/internal/domain"
	"github.com/hochfrequenz/release-orchestrator/internal/prompt"
	"github.com/hochfrequenz/release-orchestrator/internal/runner"
	"github.com/hochfrequenz/release-orchestrator/internal/workspace"
	"go.uber.org/zap"
)

// AllPackages is the argument that selects every package of the workspace
const AllPackages = "all"

// Pipeline runs one release
type Pipeline struct {
	opts    Options
	runner  runner.Runner
	ws      *workspace.Dispatcher
	confirm prompt.Confirmer
	logger  *zap.Logger
	out     io.Writer
}

// New creates a Pipeline. out receives the operator-facing report.
func New(opts Options, r runner.Runner, confirm prompt.Confirmer, logger *zap.Logger, out io.Writer) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	return &Pipeline{
		opts:    opts,
		runner:  r,
		ws:      workspace.NewDispatcher(r, opts.Tool, opts.Root),
		confirm: confirm,
		logger:  logger,
		out:     out,
	}
}

// CheckAuth probes the registry identity. It must pass before a batch is built.
func (p *Pipeline) CheckAuth(ctx context.Context) error {
	cmd := runner.Command{Name: p.opts.Registry, Args: []string{"whoami"}, Dir: p.opts.Root}
	if _, err := p.runner.Capture(ctx, cmd, false); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthenticationMissing, err)
	}
	return nil
}

// Resolve turns command-line arguments into package names, expanding "all"
// through the workspace tool's listing
func (p *Pipeline) Resolve(ctx context.Context, args []string) ([]string, error) {
	if len(args) == 1 && args[0] == AllPackages {
		records, err := p.ws.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing packages: %w", err)
		}
		return workspace.Names(records), nil
	}
	return args, nil
}

// Run executes every phase for names, in order
func (p *Pipeline) Run(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("no packages selected")
	}

	var batch domain.Batch
	err := p.phase("collect", func() error {
		var err error
		batch, err = p.Collect(ctx, names)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out, strings.Join(batch.RelativePaths(), " "))

	if err := p.phase("preflight", func() error { return p.Validate(batch) }); err != nil {
		return err
	}
	if err := p.phase("gate", func() error { return p.gate(ctx, batch) }); err != nil {
		return err
	}
	if err := p.phase("build", func() error { return p.buildVerify(ctx, batch) }); err != nil {
		return err
	}

	var changed domain.Batch
	err = p.phase("version", func() error {
		var err error
		changed, err = p.mutateVersions(ctx, batch)
		return err
	})
	if err != nil {
		return err
	}
	if len(changed) == 0 {
		p.logger.Info("no package version changed, nothing to publish")
		fmt.Fprintln(p.out, "No package versions changed; nothing to publish.")
		return nil
	}

	if err := p.phase("commit", func() error { return p.commitAndTag(ctx, changed) }); err != nil {
		return err
	}
	if err := p.phase("publish", func() error { return p.publish(ctx, changed) }); err != nil {
		return err
	}
	if err := p.phase("finalize", func() error { return p.finalize(ctx, changed) }); err != nil {
		return err
	}

	p.logger.Info("release complete", zap.Strings("published", changed.Names()))
	return nil
}

func (p *Pipeline) phase(name string, fn func() error) error {
	start := time.Now()
	p.logger.Info("phase started", zap.String("phase", name))
	if err := fn(); err != nil {
		p.logger.Error("phase failed",
			zap.String("phase", name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	p.logger.Info("phase finished",
		zap.String("phase", name),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
