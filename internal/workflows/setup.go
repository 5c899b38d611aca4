package workflows

import (
	"context"
	"fmt"

	"github.com/latchkey-dev/latchkey/internal/configs"
	lkerrors "github.com/latchkey-dev/latchkey/internal/errors"
	"github.com/latchkey-dev/latchkey/internal/gitcfg"
	"github.com/latchkey-dev/latchkey/internal/gpg"
	"github.com/latchkey-dev/latchkey/internal/pkgmgr"
	"github.com/latchkey-dev/latchkey/internal/reconcile"
	"github.com/latchkey-dev/latchkey/internal/release"
	"github.com/latchkey-dev/latchkey/internal/services"
	"github.com/latchkey-dev/latchkey/internal/shell"
	"github.com/latchkey-dev/latchkey/internal/store"
	"github.com/latchkey-dev/latchkey/internal/system"
	"github.com/latchkey-dev/latchkey/internal/utils"
)

// PromptFunc asks the user a question and returns the answer. Injected
// so the command layer owns the terminal and tests own the answers.
type PromptFunc func(question string) (string, error)

// SetupOptions configures the setup workflow.
type SetupOptions struct {
	// Runner executes all external tools.
	Runner system.Runner

	// Config is the desired state; loaded from disk when nil.
	Config *configs.Config

	// Home is the user home directory; defaults to utils.HomeDir().
	Home string

	// GPGKey overrides the configured gpg.key_id when non-empty.
	GPGKey string

	// Prompt resolves the GPG key interactively when neither flag nor
	// config nor auto-detection produced one.
	Prompt PromptFunc

	// DryRun reports what would change without changing it.
	DryRun bool

	// SkipPackages leaves apt alone.
	SkipPackages bool

	// SkipGCM leaves git-credential-manager installation alone.
	SkipGCM bool
}

// SetupResult is what the command layer renders.
type SetupResult struct {
	// KeyID is the GPG key the store was (or would be) initialized with.
	KeyID string

	// Results holds one entry per reconciled resource, in run order.
	Results []reconcile.Result

	// Verification is the post-setup health check; nil on dry runs and
	// on runs that stopped early.
	Verification *DoctorResult
}

// Setup reconciles the login environment: packages, Git Credential
// Manager, gpg-agent pinentry, the password store, conflicting user
// services, the shell startup hook, git configuration, and store
// seeding, strictly in that order. A fatal resource failure stops the
// run; whatever was applied before it stays applied, and rerunning
// resumes from a converged prefix.
//
// Successful non-dry runs end with a verification pass in which
// warnings count as failures: a fresh setup has no excuse for a
// half-working environment.
func Setup(ctx context.Context, opts SetupOptions) (*SetupResult, error) {
	if opts.Runner == nil {
		opts.Runner = system.NewExec()
	}
	if opts.Config == nil {
		cfg, err := configs.Load()
		if err != nil {
			return nil, err
		}
		opts.Config = cfg
	}
	if opts.Home == "" {
		opts.Home = utils.HomeDir()
	}

	keyID, err := resolveKey(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &SetupResult{KeyID: keyID}
	resources := buildResources(opts, keyID)

	result.Results, err = reconcile.Run(ctx, resources, reconcile.Options{DryRun: opts.DryRun})
	if err != nil {
		return result, err
	}
	if opts.DryRun {
		return result, nil
	}

	verification, err := Doctor(ctx, DoctorOptions{
		Runner: opts.Runner,
		Config: opts.Config,
		Home:   opts.Home,
	})
	if err != nil {
		return result, err
	}
	result.Verification = verification

	if !verification.Healthy(true) {
		return result, fmt.Errorf("%d error(s), %d warning(s) after setup: %w",
			verification.Summary.Errors, verification.Summary.Warnings,
			lkerrors.ErrVerificationFailed)
	}
	return result, nil
}

// resolveKey picks the store's GPG key: flag, then config, then the
// keyring (when it holds exactly one secret key), then the prompt. A
// flag or config value is trusted unvalidated since gpg may not even be
// installed until the package step runs.
func resolveKey(ctx context.Context, opts SetupOptions) (string, error) {
	if opts.GPGKey != "" {
		return opts.GPGKey, nil
	}
	if opts.Config.GPG.KeyID != "" {
		return opts.Config.GPG.KeyID, nil
	}

	if _, err := opts.Runner.LookPath("gpg"); err == nil {
		if id, err := gpg.ResolveKeyID(ctx, opts.Runner, ""); err == nil {
			return id, nil
		}
	}

	if opts.Prompt == nil {
		return "", fmt.Errorf("no GPG key configured and no prompt available: %w", lkerrors.ErrNoGPGKey)
	}
	answer, err := opts.Prompt("GPG key ID for the password store")
	if err != nil {
		return "", err
	}
	if answer == "" {
		return "", fmt.Errorf("no GPG key provided: %w", lkerrors.ErrNoGPGKey)
	}
	return answer, nil
}

func buildResources(opts SetupOptions, keyID string) []reconcile.Resource {
	var resources []reconcile.Resource

	if !opts.SkipPackages {
		resources = append(resources, &pkgmgr.AptInstall{
			Runner:   opts.Runner,
			Packages: opts.Config.Packages.Names,
		})
	}
	if !opts.SkipGCM {
		resources = append(resources, &release.GCMInstall{Runner: opts.Runner})
	}

	resources = append(resources,
		&gpg.AgentConf{Runner: opts.Runner, Home: opts.Home},
		&store.Init{Runner: opts.Runner, KeyID: keyID},
		&services.Mask{Runner: opts.Runner},
		&shell.StartupHook{
			Home:           opts.Home,
			Keys:           opts.Config.SSH.Keys,
			TimeoutMinutes: opts.Config.SSH.AgentTimeoutMinutes,
		},
		&gitcfg.CredentialStore{Runner: opts.Runner},
		&gitcfg.GCMConfigure{Runner: opts.Runner},
		&store.SeedEntries{Runner: opts.Runner, Hosts: opts.Config.Store.Hosts},
	)
	return resources
}
