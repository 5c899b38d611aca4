// Package pkgmgr installs the OS packages latchkey depends on through
// apt. This is deliberately a thin wrapper: dependency resolution,
// downloads, and conflicts are apt's problem.
package pkgmgr

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/latchkey-dev/latchkey/internal/system"
)

// installedStatus is what dpkg-query prints for an installed package.
const installedStatus = "install ok installed"

// Installed reports whether the package is installed according to dpkg.
func Installed(ctx context.Context, r system.Runner, pkg string) bool {
	out, err := r.Output(ctx, "dpkg-query", "-W", "-f", "${Status}", pkg)
	return err == nil && strings.Contains(out, installedStatus)
}

// AptInstall ensures a set of packages is installed. A package-manager
// failure is fatal: everything after this step needs the tools it
// provides. Implements reconcile.Resource.
type AptInstall struct {
	Runner   system.Runner
	Packages []string
}

// Name implements reconcile.Resource.
func (a *AptInstall) Name() string { return "system packages" }

// Check implements reconcile.Resource.
func (a *AptInstall) Check(ctx context.Context) (bool, error) {
	for _, pkg := range a.Packages {
		if !Installed(ctx, a.Runner, pkg) {
			return false, nil
		}
	}
	return true, nil
}

// Apply installs the missing packages in one apt-get transaction.
func (a *AptInstall) Apply(ctx context.Context) error {
	var missing []string
	for _, pkg := range a.Packages {
		if !Installed(ctx, a.Runner, pkg) {
			missing = append(missing, pkg)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	args := append([]string{"install", "-y"}, missing...)
	name, args := MaybeSudo("apt-get", args)
	if err := a.Runner.RunInteractive(ctx, name, args...); err != nil {
		return fmt.Errorf("installing %s: %w", strings.Join(missing, " "), err)
	}
	return nil
}

// MaybeSudo prefixes a command with sudo when not already running as
// root. Package installation is the only step that needs privileges.
func MaybeSudo(name string, args []string) (string, []string) {
	if os.Geteuid() == 0 {
		return name, args
	}
	return "sudo", append([]string{name}, args...)
}
