package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner executes external commands.
type Runner interface {
	// Run executes a command, discarding its stdout. Stderr is captured
	// and folded into the returned error on failure.
	Run(ctx context.Context, name string, args ...string) error

	// Output executes a command and returns its trimmed stdout.
	Output(ctx context.Context, name string, args ...string) (string, error)

	// RunInteractive executes a command wired to the caller's terminal,
	// for tools that prompt (pass init, apt-get, pinentry).
	RunInteractive(ctx context.Context, name string, args ...string) error

	// LookPath reports the absolute path of an executable, or an error
	// if it is not on PATH.
	LookPath(name string) (string, error)
}

// Exec is the Runner backed by os/exec.
type Exec struct {
	// Env holds extra KEY=VALUE pairs appended to the inherited
	// environment of every command.
	Env []string
}

// NewExec returns a Runner that executes commands on the local system.
func NewExec() *Exec {
	return &Exec{}
}

func (e *Exec) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}
	return cmd
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, name string, args ...string) error {
	cmd := e.command(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return commandError(name, args, stderr.String(), err)
	}
	return nil
}

// Output implements Runner.
func (e *Exec) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := e.command(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", commandError(name, args, stderr.String(), err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// RunInteractive implements Runner.
func (e *Exec) RunInteractive(ctx context.Context, name string, args ...string) error {
	cmd := e.command(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

// LookPath implements Runner.
func (e *Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// ExitCode extracts the process exit status carried by err. Tools like
// ssh-add encode meaning in their exit status (1 vs 2), so callers need
// the code itself, not just failure. Returns -1 when err carries no
// exit status (nil, a start failure, or a plain scripted error).
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	var fakeExit *ExitError
	if errors.As(err, &fakeExit) {
		return fakeExit.Code
	}
	return -1
}

// commandError builds an error that keeps the command line and any stderr
// the tool produced, since that is usually the only diagnostic available.
func commandError(name string, args []string, stderr string, err error) error {
	detail := strings.TrimSpace(stderr)
	if detail == "" {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, detail)
}
