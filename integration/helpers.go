//go:build integration

package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// fakeLerna stands in for lerna: scopes map to packages/<name>, exec runs the
// shell command in each scoped package, publish applies the versions found in $BUMPS
const fakeLerna = `#!/bin/sh
scopes=""
while [ "$1" = "--scope" ]; do scopes="$scopes $2"; shift 2; done
cmd="$1"; shift
case "$cmd" in
list)
	sep=""
	printf '['
	for d in "$WS_ROOT"/packages/*; do
		printf '%s{"name": "%s", "location": "%s", "private": false}' "$sep" "$(basename "$d")" "$d"
		sep=", "
	done
	printf ']\n'
	;;
run)
	echo "run $1$scopes" >> "$LERNA_LOG"
	;;
exec)
	shift
	for s in $scopes; do
		(cd "$WS_ROOT/packages/$s" && sh -c "$1") || exit $?
	done
	;;
publish)
	echo "publish$scopes" >> "$LERNA_LOG"
	for s in $scopes; do
		if [ -f "$BUMPS/$s" ]; then
			v=$(cat "$BUMPS/$s")
			f="$WS_ROOT/packages/$s/package.json"
			sed "s/\"version\": \"[^\"]*\"/\"version\": \"$v\"/" "$f" > "$f.tmp" && mv "$f.tmp" "$f"
		fi
	done
	;;
*)
	echo "unknown command $cmd" >&2
	exit 1
	;;
esac
`

// fakeNpm answers whoami according to $NPM_WHOAMI_STATUS and logs publishes
const fakeNpm = `#!/bin/sh
case "$1" in
whoami)
	[ "${NPM_WHOAMI_STATUS:-0}" = "0" ] || exit "$NPM_WHOAMI_STATUS"
	echo releaser
	;;
publish)
	echo "$(pwd) $*" >> "$NPM_LOG"
	;;
esac
`

// testWorkspace is a monorepo whose packages are embedded git repositories,
// each with its own bare remote
type testWorkspace struct {
	Root     string
	Remotes  string
	Bumps    string
	LernaLog string
	NpmLog   string
}

// installFakeTools writes lerna and npm stand-ins and puts them first on PATH
func installFakeTools(t *testing.T) {
	t.Helper()
	bin := t.TempDir()
	for name, body := range map[string]string{"lerna": fakeLerna, "npm": fakeNpm} {
		if err := os.WriteFile(filepath.Join(bin, name), []byte(body), 0755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// setupWorkspace creates the monorepo with one package per name at the given version
func setupWorkspace(t *testing.T, versions map[string]string) *testWorkspace {
	t.Helper()
	installFakeTools(t)

	t.Setenv("GIT_AUTHOR_NAME", "Test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@test.com")
	t.Setenv("GIT_COMMITTER_NAME", "Test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@test.com")

	base := t.TempDir()
	ws := &testWorkspace{
		Root:     filepath.Join(base, "ws"),
		Remotes:  filepath.Join(base, "remotes"),
		Bumps:    filepath.Join(base, "bumps"),
		LernaLog: filepath.Join(base, "lerna.log"),
		NpmLog:   filepath.Join(base, "npm.log"),
	}
	for _, dir := range []string{ws.Root, ws.Remotes, ws.Bumps} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("WS_ROOT", ws.Root)
	t.Setenv("BUMPS", ws.Bumps)
	t.Setenv("LERNA_LOG", ws.LernaLog)
	t.Setenv("NPM_LOG", ws.NpmLog)

	var pkgDirs []string
	for name, version := range versions {
		dir := filepath.Join(ws.Root, "packages", name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		manifest := "{\n  \"name\": \"" + name + "\",\n  \"version\": \"" + version + "\"\n}\n"
		if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(manifest), 0644); err != nil {
			t.Fatal(err)
		}
		initRepo(t, dir, filepath.Join(ws.Remotes, name+".git"))
		pkgDirs = append(pkgDirs, filepath.Join("packages", name))
	}

	if err := os.WriteFile(filepath.Join(ws.Root, "README.md"), []byte("# Workspace"), 0644); err != nil {
		t.Fatal(err)
	}
	initRepo(t, ws.Root, filepath.Join(ws.Remotes, "ws.git"))

	return ws
}

// initRepo turns dir into a repository on main with one commit pushed to a fresh bare remote
func initRepo(t *testing.T, dir, remote string) {
	t.Helper()
	git(t, "", "init", "--bare", remote)
	git(t, dir, "init")
	git(t, dir, "symbolic-ref", "HEAD", "refs/heads/main")
	git(t, dir, "add", ".")
	git(t, dir, "commit", "-m", "Initial commit")
	git(t, dir, "remote", "add", "origin", remote)
	git(t, dir, "push", "-u", "origin", "main")
}

// bump makes the fake version step move name to version
func (ws *testWorkspace) bump(t *testing.T, name, version string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(ws.Bumps, name), []byte(version), 0644); err != nil {
		t.Fatal(err)
	}
}

func (ws *testWorkspace) pkg(name string) string {
	return filepath.Join(ws.Root, "packages", name)
}

// git runs a git command in dir and returns trimmed stdout
func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v in %s failed: %v\n%s", args, dir, err, out)
	}
	return strings.TrimSpace(string(out))
}

// readLines returns the non-empty lines of a log file, nil when it does not exist
func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// binaryPath builds the release CLI into a temp dir
func binaryPath(t *testing.T) string {
	t.Helper()
	out := filepath.Join(t.TempDir(), "release")
	cmd := exec.Command("go", "build", "-o", out, "../cmd/release")
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build binary: %v\n%s", err, output)
	}
	return out
}
