package release

import (
	"context"
	"fmt"
	"strings"

	"github.com/hochfrequenz/release-orchestrator/internal/runner"
)

// fakeWorkspace answers the queries the pipeline sends to lerna, git and npm
// and records every command that would have mutated something
type fakeWorkspace struct {
	root     string
	versions map[string]string
	bumps    map[string]string
	status   map[string]string
	branch   map[string]string
	// manifest overrides the generated package.json for a package
	manifest map[string]string
	listing  string
	authFail bool
	failOn   string

	executed []runner.Command
	captured []runner.Command
}

func newFakeWorkspace(versions map[string]string) *fakeWorkspace {
	return &fakeWorkspace{
		root:     "/ws",
		versions: versions,
		bumps:    map[string]string{},
		status:   map[string]string{},
		branch:   map[string]string{},
		manifest: map[string]string{},
	}
}

func (f *fakeWorkspace) fail(cmd runner.Command) error {
	return &runner.SubprocessError{Command: cmd.String(), Status: 9, Stderr: "simulated failure"}
}

func (f *fakeWorkspace) Execute(ctx context.Context, cmd runner.Command) error {
	f.executed = append(f.executed, cmd)
	if f.failOn != "" && strings.Contains(cmd.String(), f.failOn) {
		return f.fail(cmd)
	}
	if cmd.Name == "lerna" && contains(cmd.Args, "publish") {
		for name, v := range f.bumps {
			f.versions[name] = v
		}
	}
	return nil
}

func (f *fakeWorkspace) Capture(ctx context.Context, cmd runner.Command, ignoreFailure bool) (string, error) {
	f.captured = append(f.captured, cmd)
	if f.failOn != "" && strings.Contains(cmd.String(), f.failOn) {
		return "", f.fail(cmd)
	}

	switch cmd.Name {
	case "npm":
		if f.authFail {
			return "", f.fail(cmd)
		}
		return "releaser\n", nil
	case "lerna":
	default:
		return "", fmt.Errorf("unexpected capture %s", cmd)
	}

	if contains(cmd.Args, "list") {
		return f.listing, nil
	}

	name := scopeOf(cmd.Args)
	if _, ok := f.versions[name]; !ok {
		return "", f.fail(cmd)
	}
	shell := cmd.Args[len(cmd.Args)-1]
	switch {
	case shell == "pwd":
		return f.root + "/packages/" + name + "\n", nil
	case strings.HasPrefix(shell, "cat "):
		if m, ok := f.manifest[name]; ok {
			return m, nil
		}
		return fmt.Sprintf("{\n  \"name\": %q,\n  \"version\": %q\n}\n", name, f.versions[name]), nil
	case shell == "git status --porcelain":
		return f.status[name], nil
	case shell == "git rev-parse --abbrev-ref HEAD":
		if b, ok := f.branch[name]; ok {
			return b + "\n", nil
		}
		return "main\n", nil
	}
	return "", fmt.Errorf("unexpected capture %s", cmd)
}

func (f *fakeWorkspace) executedLines() []string {
	lines := make([]string, len(f.executed))
	for i, c := range f.executed {
		lines[i] = c.String()
	}
	return lines
}

func scopeOf(args []string) string {
	for i, a := range args {
		if a == "--scope" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func contains(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

type fakeConfirmer struct {
	answer bool
	err    error
	asked  []string
}

func (c *fakeConfirmer) Confirm(ctx context.Context, question string) (bool, error) {
	c.asked = append(c.asked, question)
	return c.answer, c.err
}
