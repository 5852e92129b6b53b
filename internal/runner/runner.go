// Package runner executes the external commands the release pipeline is made of.
//
// Commands run synchronously in one of two modes: Execute hands the child the
// caller's terminal so long-running steps stream live, Capture buffers stdout and
// returns it. A non-zero exit is reported as *SubprocessError and is never retried.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Command is one external invocation
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one
	Dir string
}

// String renders the command the way it is echoed to the operator
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner is the contract the rest of the pipeline depends on
type Runner interface {
	// Execute runs cmd attached to the terminal and waits for it
	Execute(ctx context.Context, cmd Command) error
	// Capture runs cmd and returns its stdout. With ignoreFailure a non-zero exit
	// still returns whatever was printed and a nil error.
	Capture(ctx context.Context, cmd Command, ignoreFailure bool) (string, error)
}

// SubprocessError reports a command that exited non-zero
type SubprocessError struct {
	Command string
	Status  int
	Stderr  string
	Err     error
}

func (e *SubprocessError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", e.Command, e.Status)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *SubprocessError) Unwrap() error { return e.Err }

// ExitStatus returns the status carried by a *SubprocessError in err's chain
func ExitStatus(err error) (int, bool) {
	var subErr *SubprocessError
	if errors.As(err, &subErr) {
		return subErr.Status, true
	}
	return 0, false
}

var echoStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("15")).
	Background(lipgloss.Color("0"))

// Exec runs commands as real child processes
type Exec struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Echo receives every command line before it runs
	Echo   io.Writer
	Logger *zap.Logger
}

// New creates an Exec bound to the process's standard streams
func New(logger *zap.Logger) *Exec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exec{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Echo:   os.Stdout,
		Logger: logger,
	}
}

// Execute runs cmd with inherited streams
func (r *Exec) Execute(ctx context.Context, cmd Command) error {
	r.echo(cmd)

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdin = r.Stdin
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr

	if err := c.Run(); err != nil {
		return r.failure(cmd, err, "")
	}
	return nil
}

// Capture runs cmd and returns its stdout
func (r *Exec) Capture(ctx context.Context, cmd Command, ignoreFailure bool) (string, error) {
	r.echo(cmd)

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		if ignoreFailure {
			r.Logger.Debug("ignoring command failure",
				zap.String("command", cmd.String()), zap.Error(err))
			return stdout.String(), nil
		}
		return "", r.failure(cmd, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (r *Exec) echo(cmd Command) {
	if r.Echo == nil {
		return
	}
	fmt.Fprintln(r.Echo, echoStyle.Render(cmd.String()))
}

func (r *Exec) failure(cmd Command, err error, stderr string) error {
	status := 1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		status = exitErr.ExitCode()
	}
	r.Logger.Error("command failed",
		zap.String("command", cmd.String()),
		zap.String("dir", cmd.Dir),
		zap.Int("status", status))
	return &SubprocessError{
		Command: cmd.String(),
		Status:  status,
		Stderr:  stderr,
		Err:     err,
	}
}
