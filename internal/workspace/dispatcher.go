// Package workspace drives the monorepo tool (lerna) on behalf of the release pipeline.
package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hochfrequenz/release-orchestrator/internal/runner"
)

// Dispatcher builds scoped workspace-tool invocations and hands them to a Runner
type Dispatcher struct {
	runner runner.Runner
	tool   []string
	root   string
}

// NewDispatcher creates a Dispatcher. tool may contain arguments ("npx lerna");
// every command runs from root.
func NewDispatcher(r runner.Runner, tool, root string) *Dispatcher {
	fields := strings.Fields(tool)
	if len(fields) == 0 {
		fields = []string{"lerna"}
	}
	return &Dispatcher{runner: r, tool: fields, root: root}
}

// Root returns the directory commands are run from
func (d *Dispatcher) Root() string {
	return d.root
}

// ScopeArgs returns one --scope qualifier per name, in the given order.
// Names are never merged, deduplicated or reordered.
func ScopeArgs(names []string) []string {
	args := make([]string, 0, 2*len(names))
	for _, name := range names {
		args = append(args, "--scope", name)
	}
	return args
}

// Command composes a workspace-tool invocation restricted to names
func (d *Dispatcher) Command(names []string, args ...string) runner.Command {
	full := make([]string, 0, len(d.tool)-1+2*len(names)+len(args))
	full = append(full, d.tool[1:]...)
	full = append(full, ScopeArgs(names)...)
	full = append(full, args...)
	return runner.Command{Name: d.tool[0], Args: full, Dir: d.root}
}

// Run runs a package script across names, optionally in parallel under the tool
func (d *Dispatcher) Run(ctx context.Context, names []string, script string, parallel bool) error {
	args := []string{"run", script}
	if parallel {
		args = append(args, "--parallel")
	}
	return d.runner.Execute(ctx, d.Command(names, args...))
}

// Exec runs a shell command inside each named package, streaming output
func (d *Dispatcher) Exec(ctx context.Context, names []string, shell string) error {
	return d.runner.Execute(ctx, d.Command(names, "exec", "--", shell))
}

// ExecCapture runs a shell command inside each named package and returns its output
func (d *Dispatcher) ExecCapture(ctx context.Context, names []string, shell string) (string, error) {
	return d.runner.Capture(ctx, d.Command(names, "exec", "--", shell), false)
}

// PublishPrepare runs the tool's interactive version bump without letting it touch
// the registry or git
func (d *Dispatcher) PublishPrepare(ctx context.Context, names []string, exact bool) error {
	args := []string{"publish", "--skip-npm", "--skip-git"}
	if exact {
		args = append(args, "--exact")
	}
	return d.runner.Execute(ctx, d.Command(names, args...))
}

// Record is one entry of the tool's package listing
type Record struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Location string `json:"location"`
	Private  bool   `json:"private"`
}

// List enumerates every package the tool knows about
func (d *Dispatcher) List(ctx context.Context) ([]Record, error) {
	out, err := d.runner.Capture(ctx, d.Command(nil, "list", "--json"), false)
	if err != nil {
		return nil, err
	}
	return ParseList(out)
}

// ParseList decodes the JSON listing printed by `lerna list --json`.
// Anything the tool prints before the JSON array (lerna's banner) is skipped.
func ParseList(out string) ([]Record, error) {
	start := strings.Index(out, "[")
	if start < 0 {
		return nil, fmt.Errorf("package list: no JSON array in output")
	}
	var records []Record
	if err := json.Unmarshal([]byte(out[start:]), &records); err != nil {
		return nil, fmt.Errorf("package list: %w", err)
	}
	return records, nil
}

// Names returns the record names in listing order
func Names(records []Record) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return names
}

// ShellQuote wraps s in single quotes for use inside an Exec shell command
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
