//go:build integration

package integration

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"testing"

	"github.com/hochfrequenz/release-orchestrator/internal/config"
	"github.com/hochfrequenz/release-orchestrator/internal/release"
	"github.com/hochfrequenz/release-orchestrator/internal/runner"
	"go.uber.org/zap"
)

type yes struct{ asked int }

func (y *yes) Confirm(ctx context.Context, question string) (bool, error) {
	y.asked++
	return true, nil
}

func newPipeline(ws *testWorkspace, confirm *yes) *release.Pipeline {
	r := runner.New(zap.NewNop())
	r.Stdout = io.Discard
	r.Stderr = io.Discard
	r.Echo = io.Discard
	return release.New(release.OptionsFromConfig(config.Default(), ws.Root), r, confirm, zap.NewNop(), io.Discard)
}

func TestRelease_OnlyChangedPackage(t *testing.T) {
	ws := setupWorkspace(t, map[string]string{"A": "1.0.0", "B": "1.0.0"})
	ws.bump(t, "A", "1.0.1")
	p := newPipeline(ws, &yes{})

	if err := p.Run(context.Background(), []string{"A", "B"}); err != nil {
		t.Fatal(err)
	}

	// A is committed, tagged and pushed in its own repository
	if got := git(t, ws.pkg("A"), "log", "-1", "--format=%s"); got != "chore(publish): publish A@1.0.1" {
		t.Errorf("A head = %q", got)
	}
	if got := git(t, ws.pkg("A"), "tag", "--list"); got != "A@1.0.1" {
		t.Errorf("A tags = %q, want A@1.0.1", got)
	}
	remoteTags := git(t, ws.Remotes+"/A.git", "tag", "--list")
	if remoteTags != "A@1.0.1" {
		t.Errorf("A remote tags = %q, want A@1.0.1", remoteTags)
	}

	// B is untouched
	if got := git(t, ws.pkg("B"), "tag", "--list"); got != "" {
		t.Errorf("B tags = %q, want none", got)
	}
	if got := git(t, ws.pkg("B"), "log", "-1", "--format=%s"); got != "Initial commit" {
		t.Errorf("B head = %q", got)
	}

	published := readLines(t, ws.NpmLog)
	if len(published) != 1 || !strings.HasSuffix(published[0], "packages/A publish --tag latest") {
		t.Errorf("npm publishes = %q", published)
	}

	// the workspace commit lists exactly A and reached the remote
	if got := git(t, ws.Remotes+"/ws.git", "log", "-1", "--format=%s%n%b", "main"); got != "Publish\n* A v1.0.1" {
		t.Errorf("workspace commit = %q", got)
	}
	if files := git(t, ws.Root, "show", "--name-only", "--format=", "HEAD"); files != "packages/A" {
		t.Errorf("workspace commit touched %q, want packages/A", files)
	}

	runs := readLines(t, ws.LernaLog)
	want := []string{"run clean A B", "run build A B", "run test A B", "publish A B"}
	if strings.Join(runs, "|") != strings.Join(want, "|") {
		t.Errorf("lerna log = %q, want %q", runs, want)
	}
}

func TestRelease_PrereleaseChannel(t *testing.T) {
	ws := setupWorkspace(t, map[string]string{"A": "1.0.0"})
	ws.bump(t, "A", "2.0.0-beta.1")

	if err := newPipeline(ws, &yes{}).Run(context.Background(), []string{"A"}); err != nil {
		t.Fatal(err)
	}

	published := readLines(t, ws.NpmLog)
	if len(published) != 1 || !strings.HasSuffix(published[0], "publish --tag next") {
		t.Errorf("npm publishes = %q", published)
	}
}

func TestRelease_DirtyPackageStopsBeforeGate(t *testing.T) {
	ws := setupWorkspace(t, map[string]string{"A": "1.0.0"})
	ws.bump(t, "A", "1.0.1")
	cmd := exec.Command("sh", "-c", "echo change >> README")
	cmd.Dir = ws.pkg("A")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("dirtying package: %s", out)
	}
	confirm := &yes{}

	err := newPipeline(ws, confirm).Run(context.Background(), []string{"A"})
	if !errors.Is(err, release.ErrDirtyRepository) {
		t.Fatalf("error = %v, want ErrDirtyRepository", err)
	}
	if confirm.asked != 0 {
		t.Error("gate shown despite a dirty package")
	}
	if lines := readLines(t, ws.LernaLog); len(lines) != 0 {
		t.Errorf("lerna ran %q after a failed preflight", lines)
	}
}

func TestRelease_DetachedHead(t *testing.T) {
	ws := setupWorkspace(t, map[string]string{"A": "1.0.0"})
	git(t, ws.pkg("A"), "checkout", "--detach")

	err := newPipeline(ws, &yes{}).Run(context.Background(), []string{"A"})
	if !errors.Is(err, release.ErrDetachedHead) {
		t.Fatalf("error = %v, want ErrDetachedHead", err)
	}
}

func TestRelease_ResolveAll(t *testing.T) {
	ws := setupWorkspace(t, map[string]string{"A": "1.0.0", "B": "1.0.0"})

	names, err := newPipeline(ws, &yes{}).Resolve(context.Background(), []string{"all"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(names, ",") != "A,B" {
		t.Errorf("Resolve(all) = %v, want [A B]", names)
	}
}

func TestCLI_AuthenticationMissing(t *testing.T) {
	ws := setupWorkspace(t, map[string]string{"A": "1.0.0"})
	bin := binaryPath(t)
	t.Setenv("NPM_WHOAMI_STATUS", "1")

	cmd := exec.Command(bin, "A")
	cmd.Dir = ws.Root
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("exit = %v, want status 1\n%s", err, out)
	}
	if !strings.Contains(string(out), "npm run release") {
		t.Errorf("output = %q, want entry point warning", out)
	}
	if lines := readLines(t, ws.LernaLog); len(lines) != 0 {
		t.Errorf("lerna ran %q without registry authentication", lines)
	}
}

func TestCLI_Version(t *testing.T) {
	out, err := exec.Command(binaryPath(t), "version").CombinedOutput()
	if err != nil {
		t.Fatalf("version failed: %v\n%s", err, out)
	}
	if strings.TrimSpace(string(out)) != "dev" {
		t.Errorf("version = %q, want dev", out)
	}
}
