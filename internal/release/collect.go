package release

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hochfrequenz/release-orchestrator/internal/domain"
	"github.com/hochfrequenz/release-orchestrator/internal/workspace"
	"go.uber.org/zap"
)

var (
	nameStyle   = lipgloss.NewStyle().Bold(true)
	branchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// Collect reads location, version, git status and branch for every name.
// The first query that fails aborts the whole collection.
func (p *Pipeline) Collect(ctx context.Context, names []string) (domain.Batch, error) {
	batch := make(domain.Batch, 0, len(names))
	for _, name := range names {
		pkg, err := p.collectOne(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", name, err)
		}
		p.logger.Debug("collected package",
			zap.String("package", pkg.Name),
			zap.String("path", pkg.RelativePath),
			zap.String("version", pkg.PriorVersion),
			zap.String("branch", pkg.GitBranch))
		batch = append(batch, pkg)
	}
	return batch, nil
}

func (p *Pipeline) collectOne(ctx context.Context, name string) (*domain.Package, error) {
	scope := []string{name}

	out, err := p.ws.ExecCapture(ctx, scope, "pwd")
	if err != nil {
		return nil, err
	}
	abs := strings.TrimSpace(out)
	rel, err := workspace.RelativeTo(p.opts.Root, abs)
	if err != nil {
		return nil, err
	}

	version, err := p.readVersion(ctx, name)
	if err != nil {
		return nil, err
	}

	status, err := p.ws.ExecCapture(ctx, scope, p.opts.Git+" status --porcelain")
	if err != nil {
		return nil, err
	}

	branch, err := p.ws.ExecCapture(ctx, scope, p.opts.Git+" rev-parse --abbrev-ref HEAD")
	if err != nil {
		return nil, err
	}

	return &domain.Package{
		Name:         name,
		AbsolutePath: abs,
		RelativePath: rel,
		PriorVersion: version,
		GitStatus:    status,
		GitBranch:    strings.TrimSpace(branch),
	}, nil
}

func (p *Pipeline) readVersion(ctx context.Context, name string) (string, error) {
	manifest, err := p.ws.ExecCapture(ctx, []string{name}, "cat "+workspace.ShellQuote(p.opts.Manifest))
	if err != nil {
		return "", err
	}
	return domain.ExtractVersion(manifest), nil
}

// Validate reports each package and stops at the first one that is dirty or detached
func (p *Pipeline) Validate(batch domain.Batch) error {
	for _, pkg := range batch {
		fmt.Fprintf(p.out, "%s  %s  %s\n",
			nameStyle.Render(pkg.Name), pkg.RelativePath, branchStyle.Render(pkg.GitBranch))

		var violation error
		switch {
		case pkg.GitBranch == p.opts.DetachedSentinel:
			violation = ErrDetachedHead
		case strings.TrimSpace(pkg.GitStatus) != "":
			violation = ErrDirtyRepository
		}
		if violation != nil {
			fmt.Fprintln(p.out, failStyle.Render(fmt.Sprintf("  %v", violation)))
			return &PreflightError{Package: pkg.Name, Path: pkg.AbsolutePath, Err: violation}
		}
	}
	return nil
}

func (p *Pipeline) gate(ctx context.Context, batch domain.Batch) error {
	question := fmt.Sprintf("Release %d package(s): %s?", len(batch), strings.Join(batch.Names(), ", "))
	ok, err := p.confirm.Confirm(ctx, question)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserAborted
	}
	return nil
}
