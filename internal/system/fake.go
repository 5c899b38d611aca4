package system

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Fake is a scriptable Runner for tests. Responses are keyed by the full
// command line ("pass ls", "git config --global --get ..."); unscripted
// commands fail, so tests notice unexpected invocations.
type Fake struct {
	mu sync.Mutex

	// Responses maps a command line to its scripted result.
	Responses map[string]FakeResult

	// Paths is the set of executables LookPath resolves. The value is
	// the reported path; an empty map means nothing is installed.
	Paths map[string]string

	// Calls records every command line executed, in order.
	Calls []string
}

// FakeResult is one scripted command outcome.
type FakeResult struct {
	Stdout string
	Err    error
}

// ExitError is a scripted non-zero exit status. It surfaces through
// ExitCode the way *exec.ExitError does for the real runner, so tests
// can script commands whose exit code carries meaning.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// NewFake returns an empty Fake. Script it with Respond and Install.
func NewFake() *Fake {
	return &Fake{
		Responses: make(map[string]FakeResult),
		Paths:     make(map[string]string),
	}
}

// Respond scripts the result for an exact command line.
func (f *Fake) Respond(commandLine, stdout string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[commandLine] = FakeResult{Stdout: stdout, Err: err}
}

// Install makes an executable visible to LookPath at /usr/bin/<name>.
func (f *Fake) Install(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, name := range names {
		f.Paths[name] = "/usr/bin/" + name
	}
}

// CallCount returns how many executed command lines start with prefix.
func (f *Fake) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.Calls {
		if strings.HasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

func (f *Fake) dispatch(name string, args []string) (string, error) {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	f.mu.Lock()
	f.Calls = append(f.Calls, line)
	result, ok := f.Responses[line]
	f.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("fake runner: unscripted command %q", line)
	}
	return result.Stdout, result.Err
}

// Run implements Runner.
func (f *Fake) Run(_ context.Context, name string, args ...string) error {
	_, err := f.dispatch(name, args)
	return err
}

// Output implements Runner.
func (f *Fake) Output(_ context.Context, name string, args ...string) (string, error) {
	return f.dispatch(name, args)
}

// RunInteractive implements Runner.
func (f *Fake) RunInteractive(_ context.Context, name string, args ...string) error {
	_, err := f.dispatch(name, args)
	return err
}

// LookPath implements Runner.
func (f *Fake) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if path, ok := f.Paths[name]; ok {
		return path, nil
	}
	return "", fmt.Errorf("fake runner: %q not installed", name)
}
