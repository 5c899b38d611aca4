// Package gitcfg manages the global git configuration keys that point
// Git Credential Manager at the GPG-backed credential store.
package gitcfg

import (
	"context"
	"fmt"
	"strings"

	"github.com/latchkey-dev/latchkey/internal/system"
)

// Keys latchkey manages in the global git config.
const (
	CredentialStoreKey = "credential.credentialStore"
	CredentialStoreGPG = "gpg"
)

// GlobalGet reads a key from the global git config. An unset key returns
// an empty string, not an error: git exits 1 for missing keys and that
// is an answer, not a failure.
func GlobalGet(ctx context.Context, r system.Runner, key string) string {
	out, err := r.Output(ctx, "git", "config", "--global", "--get", key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// GlobalSet writes a key in the global git config.
func GlobalSet(ctx context.Context, r system.Runner, key, value string) error {
	if err := r.Run(ctx, "git", "config", "--global", key, value); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// CredentialStore ensures credential.credentialStore is "gpg", so Git
// Credential Manager persists secrets through pass instead of a GUI
// keyring daemon. Overwriting is idempotent by nature.
// Implements reconcile.Resource.
type CredentialStore struct {
	Runner system.Runner
}

// Name implements reconcile.Resource.
func (c *CredentialStore) Name() string { return "git credential store" }

// Check implements reconcile.Resource.
func (c *CredentialStore) Check(ctx context.Context) (bool, error) {
	return GlobalGet(ctx, c.Runner, CredentialStoreKey) == CredentialStoreGPG, nil
}

// Apply implements reconcile.Resource.
func (c *CredentialStore) Apply(ctx context.Context) error {
	return GlobalSet(ctx, c.Runner, CredentialStoreKey, CredentialStoreGPG)
}

// GCMConfigure runs `git-credential-manager configure`, which registers
// GCM as the credential.helper. Implements reconcile.Resource.
type GCMConfigure struct {
	Runner system.Runner
}

// Name implements reconcile.Resource.
func (g *GCMConfigure) Name() string { return "git credential helper" }

// Check implements reconcile.Resource.
func (g *GCMConfigure) Check(ctx context.Context) (bool, error) {
	helper := GlobalGet(ctx, g.Runner, "credential.helper")
	return strings.Contains(helper, "git-credential-manager"), nil
}

// Apply implements reconcile.Resource.
func (g *GCMConfigure) Apply(ctx context.Context) error {
	if err := g.Runner.Run(ctx, "git-credential-manager", "configure"); err != nil {
		return fmt.Errorf("configuring credential helper: %w", err)
	}
	return nil
}
