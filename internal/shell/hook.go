// Package shell manages the keychain startup hook in shell rc files.
package shell

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/latchkey-dev/latchkey/internal/utils"
)

// HookGuard is the substring that marks an rc file as already hooked.
// It must remain a stable fragment of HookLine across releases, or
// upgrades would append a second hook.
const HookGuard = "keychain --quiet --eval"

// DefaultRCFiles are the startup files the hook is appended to, relative
// to the home directory.
var DefaultRCFiles = []string{".bashrc", ".profile"}

// HookLine builds the eval line a login shell runs to attach to (or
// start) the ssh-agent via keychain.
func HookLine(keys []string, timeoutMinutes int) string {
	args := []string{"keychain", "--quiet", "--eval", "--agents", "ssh"}
	if timeoutMinutes > 0 {
		args = append(args, "--timeout", strconv.Itoa(timeoutMinutes))
	}
	args = append(args, keys...)
	return fmt.Sprintf(`eval "$(%s)"`, strings.Join(args, " "))
}

// StartupHook ensures each rc file invokes keychain at login. It
// implements reconcile.Resource.
type StartupHook struct {
	// Home is the directory holding the rc files.
	Home string

	// Keys are the identity paths passed to keychain, kept in ~-form so
	// the hook line stays portable across machines sharing dotfiles.
	Keys []string

	// TimeoutMinutes is keychain's --timeout value; zero omits the flag.
	TimeoutMinutes int

	// Files overrides DefaultRCFiles when non-nil.
	Files []string
}

// Name implements reconcile.Resource.
func (h *StartupHook) Name() string { return "shell startup hook" }

func (h *StartupHook) files() []string {
	if h.Files != nil {
		return h.Files
	}
	return DefaultRCFiles
}

// Check reports whether every rc file already contains the hook.
func (h *StartupHook) Check(ctx context.Context) (bool, error) {
	for _, name := range h.files() {
		found, err := utils.FileContains(filepath.Join(h.Home, name), HookGuard)
		if err != nil {
			return false, err
		}
		if !found {
			return false, nil
		}
	}
	return true, nil
}

// Apply appends the hook to each rc file that does not have it yet.
// Files that are already hooked are left byte-identical.
func (h *StartupHook) Apply(ctx context.Context) error {
	line := HookLine(h.Keys, h.TimeoutMinutes)
	for _, name := range h.files() {
		path := filepath.Join(h.Home, name)
		if _, err := utils.AppendLineOnce(path, HookGuard, line); err != nil {
			return err
		}
	}
	return nil
}
