// Package gpg resolves the signing key for the password store and keeps
// gpg-agent configured for headless pinentry.
package gpg

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	lkerrors "github.com/latchkey-dev/latchkey/internal/errors"
	"github.com/latchkey-dev/latchkey/internal/system"
	"github.com/latchkey-dev/latchkey/internal/utils"
)

// PinentryCandidates are probed in order for a terminal-capable pinentry.
var PinentryCandidates = []string{"pinentry-curses", "pinentry-tty", "pinentry"}

// ResolveKeyID validates a configured key ID against the local secret
// keyring, or auto-detects the only secret key when none is configured.
// Returns ErrNoGPGKey (wrapped) when nothing can be resolved; ambiguity
// is also unresolved, the caller prompts in that case.
func ResolveKeyID(ctx context.Context, r system.Runner, configured string) (string, error) {
	if configured != "" {
		_, err := r.Output(ctx, "gpg", "--list-secret-keys", "--with-colons", configured)
		if err != nil {
			return "", fmt.Errorf("key %q not in secret keyring: %w", configured, lkerrors.ErrNoGPGKey)
		}
		return configured, nil
	}

	out, err := r.Output(ctx, "gpg", "--list-secret-keys", "--with-colons")
	if err != nil {
		return "", fmt.Errorf("listing secret keys: %w", lkerrors.ErrNoGPGKey)
	}
	ids := ParseSecretKeyIDs(out)
	if len(ids) != 1 {
		return "", fmt.Errorf("found %d secret keys: %w", len(ids), lkerrors.ErrNoGPGKey)
	}
	return ids[0], nil
}

// HasSecretKey reports whether the keyring holds a secret key matching id.
func HasSecretKey(ctx context.Context, r system.Runner, id string) bool {
	_, err := r.Output(ctx, "gpg", "--list-secret-keys", "--with-colons", id)
	return err == nil
}

// ParseSecretKeyIDs extracts key IDs from `gpg --with-colons` output.
// Key IDs sit in the fifth field of each sec record.
func ParseSecretKeyIDs(out string) []string {
	var ids []string
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "sec:") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) > 4 && fields[4] != "" {
			ids = append(ids, fields[4])
		}
	}
	return ids
}

// pinentryDirective is the guard for the gpg-agent.conf append. Guarding
// on the directive name (not the full line) means a hand-configured
// pinentry is respected rather than duplicated.
const pinentryDirective = "pinentry-program"

// AgentConf ensures ~/.gnupg/gpg-agent.conf carries a pinentry-program
// directive pointing at a terminal pinentry, so GPG passphrase prompts
// work without a display server. Implements reconcile.Resource.
type AgentConf struct {
	Runner system.Runner

	// Home is the user home directory; the config lives under .gnupg.
	Home string
}

// Name implements reconcile.Resource.
func (a *AgentConf) Name() string { return "gpg-agent pinentry" }

func (a *AgentConf) confPath() string {
	return filepath.Join(a.Home, ".gnupg", "gpg-agent.conf")
}

// Check reports whether any pinentry-program directive is present.
func (a *AgentConf) Check(ctx context.Context) (bool, error) {
	return utils.FileContains(a.confPath(), pinentryDirective)
}

// Apply appends a pinentry-program directive for the first terminal
// pinentry found on PATH.
func (a *AgentConf) Apply(ctx context.Context) error {
	pinentry, err := a.findPinentry()
	if err != nil {
		return err
	}
	line := pinentryDirective + " " + pinentry
	if _, err := utils.AppendLineOnce(a.confPath(), pinentryDirective, line); err != nil {
		return err
	}
	// gpg-agent only reads its config at startup.
	return a.reloadAgent(ctx)
}

func (a *AgentConf) findPinentry() (string, error) {
	for _, name := range PinentryCandidates {
		if path, err := a.Runner.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no terminal pinentry (tried %s): %w",
		strings.Join(PinentryCandidates, ", "), lkerrors.ErrToolNotFound)
}

func (a *AgentConf) reloadAgent(ctx context.Context) error {
	// Best effort: the agent may not be running yet, which is fine.
	if _, err := a.Runner.LookPath("gpgconf"); err != nil {
		return nil
	}
	_ = a.Runner.Run(ctx, "gpgconf", "--reload", "gpg-agent")
	return nil
}
