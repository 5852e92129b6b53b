package release

import (
	"context"
	"fmt"
	"strings"

	"github.com/hochfrequenz/release-orchestrator/internal/domain"
	"github.com/hochfrequenz/release-orchestrator/internal/runner"
	"github.com/hochfrequenz/release-orchestrator/internal/workspace"
	"go.uber.org/zap"
)

// buildVerify runs the configured scripts across the batch, one script at a time.
// Nothing has been mutated yet, so this is the last point a failure is harmless.
func (p *Pipeline) buildVerify(ctx context.Context, batch domain.Batch) error {
	names := batch.Names()
	if p.opts.Pull {
		if err := p.ws.Exec(ctx, names, p.opts.Git+" pull"); err != nil {
			return err
		}
	}
	for _, script := range p.opts.Scripts {
		if err := p.ws.Run(ctx, names, script, p.opts.Parallel); err != nil {
			return fmt.Errorf("script %s: %w", script, err)
		}
	}
	return nil
}

// mutateVersions hands the batch to the tool's interactive bump, re-reads every
// version and returns the packages whose version moved
func (p *Pipeline) mutateVersions(ctx context.Context, batch domain.Batch) (domain.Batch, error) {
	if err := p.ws.PublishPrepare(ctx, batch.Names(), p.opts.Exact); err != nil {
		return nil, err
	}

	for _, pkg := range batch {
		version, err := p.readVersion(ctx, pkg.Name)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", pkg.Name, err)
		}
		pkg.Version = version
		p.logger.Info("version read",
			zap.String("package", pkg.Name),
			zap.String("prior", pkg.PriorVersion),
			zap.String("version", pkg.Version),
			zap.Bool("changed", pkg.Changed()))
	}
	fmt.Fprintln(p.out, batch.String())

	return batch.Changed(), nil
}

// commitAndTag commits each package directory and tags the commit name@version
func (p *Pipeline) commitAndTag(ctx context.Context, changed domain.Batch) error {
	for _, pkg := range changed {
		scope := []string{pkg.Name}
		msg := workspace.ShellQuote(pkg.PublishMessage())

		if err := p.ws.Exec(ctx, scope, p.opts.Git+" commit -am "+msg); err != nil {
			return fmt.Errorf("commit %s: %w", pkg.Name, err)
		}
		tag := p.opts.Git + " tag " + workspace.ShellQuote(pkg.Tag()) + " -m " + msg
		if err := p.ws.Exec(ctx, scope, tag); err != nil {
			return fmt.Errorf("tag %s: %w", pkg.Tag(), err)
		}
	}
	return nil
}

// publish pushes each package to the registry from its own directory, then
// pushes commits and tags for the whole changed set
func (p *Pipeline) publish(ctx context.Context, changed domain.Batch) error {
	for _, pkg := range changed {
		channel := domain.Channel(pkg.Version, p.opts.StableChannel, p.opts.PrereleaseChannel)
		p.logger.Info("publishing",
			zap.String("package", pkg.Name),
			zap.String("version", pkg.Version),
			zap.String("channel", channel))

		cmd := runner.Command{
			Name: p.opts.Registry,
			Args: []string{"publish", "--tag", channel},
			Dir:  pkg.AbsolutePath,
		}
		if err := p.runner.Execute(ctx, cmd); err != nil {
			return fmt.Errorf("publish %s: %w", pkg.Tag(), err)
		}
	}

	push := p.opts.Git + " push && " + p.opts.Git + " push --tags"
	if err := p.ws.Exec(ctx, changed.Names(), push); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

// finalize records the release at the workspace root: one commit staging every
// changed package directory, with one body line per package
func (p *Pipeline) finalize(ctx context.Context, changed domain.Batch) error {
	add := append([]string{"add"}, changed.RelativePaths()...)
	if err := p.git(ctx, add...); err != nil {
		return err
	}

	if err := p.git(ctx, CommitArgs(p.opts.CommitSubject, changed)...); err != nil {
		return err
	}

	return p.git(ctx, "push")
}

// CommitArgs builds the aggregate workspace commit: subject, then a body listing
// "* <name> v<version>" for each package in batch order
func CommitArgs(subject string, changed domain.Batch) []string {
	args := []string{"commit", "-m", subject}
	if len(changed) > 0 {
		args = append(args, "-m", strings.Join(changed.Summary(), "\n"))
	}
	return args
}

func (p *Pipeline) git(ctx context.Context, args ...string) error {
	return p.runner.Execute(ctx, runner.Command{Name: p.opts.Git, Args: args, Dir: p.opts.Root})
}
