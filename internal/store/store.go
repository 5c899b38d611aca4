// Package store drives the pass password manager: initialization of the
// GPG-backed store and best-effort seeding of per-host git entries.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/latchkey-dev/latchkey/internal/system"
)

// Initialized probes the store via `pass ls`. pass exits non-zero when
// the store directory has no .gpg-id, which is the documented way to
// tell an uninitialized store apart without parsing output.
func Initialized(ctx context.Context, r system.Runner) bool {
	return r.Run(ctx, "pass", "ls") == nil
}

// Init ensures the password store is initialized with keyID.
// Implements reconcile.Resource.
type Init struct {
	Runner system.Runner
	KeyID  string
}

// Name implements reconcile.Resource.
func (i *Init) Name() string { return "password store" }

// Check implements reconcile.Resource.
func (i *Init) Check(ctx context.Context) (bool, error) {
	return Initialized(ctx, i.Runner), nil
}

// Apply runs `pass init` interactively: gpg may need a passphrase for
// the key, and that prompt belongs on the user's terminal.
func (i *Init) Apply(ctx context.Context) error {
	if i.KeyID == "" {
		return fmt.Errorf("password store init requires a GPG key ID")
	}
	if err := i.Runner.RunInteractive(ctx, "pass", "init", i.KeyID); err != nil {
		return fmt.Errorf("initializing password store: %w", err)
	}
	return nil
}

// entryName returns the store path for a host credential.
func entryName(host string) string {
	return "git/" + host
}

// SeedEntries pre-creates git/<host> entries so Git Credential Manager
// has a namespace to write into. Failures here are advisory: a missing
// seed entry costs nothing, GCM creates entries on first use anyway.
// Implements reconcile.Resource and reconcile.Advisor.
type SeedEntries struct {
	Runner system.Runner
	Hosts  []string
}

// Name implements reconcile.Resource.
func (s *SeedEntries) Name() string { return "store entries" }

// Advisory implements reconcile.Advisor.
func (s *SeedEntries) Advisory() bool { return true }

// Check reports whether every configured host already has an entry.
func (s *SeedEntries) Check(ctx context.Context) (bool, error) {
	if len(s.Hosts) == 0 {
		return true, nil
	}
	for _, host := range s.Hosts {
		if !s.entryExists(ctx, host) {
			return false, nil
		}
	}
	return true, nil
}

// Apply generates a random secret for each missing entry. Individual
// failures are collected but do not stop the remaining hosts.
func (s *SeedEntries) Apply(ctx context.Context) error {
	var failed []string
	for _, host := range s.Hosts {
		if s.entryExists(ctx, host) {
			continue
		}
		if err := s.Runner.Run(ctx, "pass", "generate", "--no-symbols", entryName(host), "24"); err != nil {
			failed = append(failed, host)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("could not seed entries for %s", strings.Join(failed, ", "))
	}
	return nil
}

func (s *SeedEntries) entryExists(ctx context.Context, host string) bool {
	// `pass show` would print the secret; Run discards stdout.
	return s.Runner.Run(ctx, "pass", "show", entryName(host)) == nil
}
