// Package services masks the user-session secret-agent units that would
// otherwise fight keychain and pass for SSH keys and credentials.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/latchkey-dev/latchkey/internal/system"
)

// DefaultUnits are the GNOME keyring units that hijack SSH_AUTH_SOCK and
// the Secret Service API on desktop-configured images.
var DefaultUnits = []string{
	"gnome-keyring-daemon.service",
	"gnome-keyring-daemon.socket",
	"gcr-ssh-agent.socket",
}

// Mask disables conflicting user services via systemctl. Masking is
// best-effort: a missing unit, a non-systemd host, or a broken user bus
// must never sink the whole setup. Implements reconcile.Resource and
// reconcile.Advisor.
type Mask struct {
	Runner system.Runner

	// Units overrides DefaultUnits when non-nil.
	Units []string
}

// Name implements reconcile.Resource.
func (m *Mask) Name() string { return "conflicting services" }

// Advisory implements reconcile.Advisor.
func (m *Mask) Advisory() bool { return true }

func (m *Mask) units() []string {
	if m.Units != nil {
		return m.Units
	}
	return DefaultUnits
}

// Check reports whether every unit is already masked or absent.
func (m *Mask) Check(ctx context.Context) (bool, error) {
	if _, err := m.Runner.LookPath("systemctl"); err != nil {
		// No systemd, nothing to mask.
		return true, nil
	}
	for _, unit := range m.units() {
		if !m.unitNeutralized(ctx, unit) {
			return false, nil
		}
	}
	return true, nil
}

// Apply masks each unit that is still active. Errors are collected so a
// broken unit does not shadow the rest.
func (m *Mask) Apply(ctx context.Context) error {
	var failed []string
	for _, unit := range m.units() {
		if m.unitNeutralized(ctx, unit) {
			continue
		}
		if err := m.Runner.Run(ctx, "systemctl", "--user", "mask", "--now", unit); err != nil {
			failed = append(failed, unit)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("could not mask %s", strings.Join(failed, ", "))
	}
	return nil
}

// unitNeutralized reports whether the unit is masked or does not exist.
// `systemctl is-enabled` exits non-zero for both, so the printed state
// string is what distinguishes "masked" from "enabled but failing".
func (m *Mask) unitNeutralized(ctx context.Context, unit string) bool {
	out, err := m.Runner.Output(ctx, "systemctl", "--user", "is-enabled", unit)
	state := strings.TrimSpace(out)
	if state == "" && err != nil {
		state = err.Error()
	}
	return strings.Contains(state, "masked") || strings.Contains(state, "not-found") ||
		strings.Contains(state, "No such file")
}
