package domain

import (
	"fmt"
	"strings"
)

// Package is one independently versioned unit of the workspace, as seen by one release run
type Package struct {
	Name         string
	AbsolutePath string
	// RelativePath is AbsolutePath relative to the workspace root
	RelativePath string
	// PriorVersion is the manifest version read before any mutation
	PriorVersion string
	// Version is re-read after the version step; empty until then
	Version string
	// GitStatus is the porcelain status at collection time, only used by the preflight check
	GitStatus string
	GitBranch string
}

// Changed reports whether the version step moved this package's version
func (p *Package) Changed() bool {
	return p.Version != p.PriorVersion
}

// Tag returns the release identifier name@version, used both as tag name and commit subject suffix
func (p *Package) Tag() string {
	return p.Name + "@" + p.Version
}

// PublishMessage returns the per-package commit and tag message
func (p *Package) PublishMessage() string {
	return fmt.Sprintf("chore(publish): publish %s", p.Tag())
}

// SummaryLine returns the package's line in the aggregate workspace commit body
func (p *Package) SummaryLine() string {
	return fmt.Sprintf("* %s v%s", p.Name, p.Version)
}

// Batch is the ordered set of packages selected for one run
type Batch []*Package

// Names returns the package names in batch order
func (b Batch) Names() []string {
	names := make([]string, len(b))
	for i, p := range b {
		names[i] = p.Name
	}
	return names
}

// RelativePaths returns the package directories relative to the workspace root, in batch order
func (b Batch) RelativePaths() []string {
	paths := make([]string, len(b))
	for i, p := range b {
		paths[i] = p.RelativePath
	}
	return paths
}

// Changed returns the packages whose version moved, preserving batch order
func (b Batch) Changed() Batch {
	var changed Batch
	for _, p := range b {
		if p.Changed() {
			changed = append(changed, p)
		}
	}
	return changed
}

// Summary returns one SummaryLine per package, in batch order
func (b Batch) Summary() []string {
	lines := make([]string, len(b))
	for i, p := range b {
		lines[i] = p.SummaryLine()
	}
	return lines
}

// String renders the batch as name@version pairs for log output
func (b Batch) String() string {
	parts := make([]string, len(b))
	for i, p := range b {
		v := p.Version
		if v == "" {
			v = p.PriorVersion
		}
		parts[i] = p.Name + "@" + v
	}
	return strings.Join(parts, ", ")
}
