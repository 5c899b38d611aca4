package workflows

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/latchkey-dev/latchkey/internal/agent"
	"github.com/latchkey-dev/latchkey/internal/configs"
	"github.com/latchkey-dev/latchkey/internal/gitcfg"
	"github.com/latchkey-dev/latchkey/internal/gpg"
	"github.com/latchkey-dev/latchkey/internal/shell"
	"github.com/latchkey-dev/latchkey/internal/store"
	"github.com/latchkey-dev/latchkey/internal/system"
	"github.com/latchkey-dev/latchkey/internal/utils"
)

// CheckStatus represents the result status of a health check.
type CheckStatus int

const (
	// CheckPass means the check passed.
	CheckPass CheckStatus = iota
	// CheckWarning means the check found a non-critical issue.
	CheckWarning
	// CheckError means the check found a critical issue.
	CheckError
)

// String returns a string representation of CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarning:
		return "warning"
	case CheckError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for CheckStatus.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CheckResult holds the result of a single health check.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// DoctorResult holds the complete result of the doctor workflow.
type DoctorResult struct {
	Checks      []CheckResult `json:"checks"`
	Summary     DoctorSummary `json:"summary"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// DoctorSummary holds counts of checks by status.
type DoctorSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// Healthy reports whether no check errored. Warnings count against
// health only when strict is set: routine health checks stay advisory
// about soft issues, first-time setup does not.
func (r *DoctorResult) Healthy(strict bool) bool {
	if r.Summary.Errors > 0 {
		return false
	}
	return !strict || r.Summary.Warnings == 0
}

// DoctorOptions configures the doctor workflow.
type DoctorOptions struct {
	// Runner executes the external tool probes.
	Runner system.Runner

	// Config is the desired-state descriptor being verified.
	Config *configs.Config

	// Home is the user home directory; defaults to utils.HomeDir().
	Home string
}

// requiredTools are the executables the whole environment depends on.
var requiredTools = []string{"keychain", "pass", "gpg", "git"}

// Doctor runs health checks on the latchkey-managed environment.
//
// The checks cover:
//   - Required tools and git-credential-manager on PATH
//   - GPG secret key availability
//   - gpg-agent pinentry configuration
//   - Password store initialization
//   - Git credential store backend
//   - Shell startup hook presence
//   - Agent socket validity and loaded identities
func Doctor(ctx context.Context, opts DoctorOptions) (*DoctorResult, error) {
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

	d := &doctor{runner: opts.Runner, cfg: opts.Config, home: opts.Home}

	checks := []func(context.Context) CheckResult{
		d.checkRequiredTools,
		d.checkCredentialManager,
		d.checkGPGKey,
		d.checkPinentryConfig,
		d.checkStoreInitialized,
		d.checkCredentialStoreBackend,
		d.checkStartupHook,
		d.checkAgentSocket,
		d.checkLoadedIdentities,
	}

	var results []CheckResult
	for _, check := range checks {
		results = append(results, check(ctx))
	}

	summary := calculateDoctorSummary(results)

	// Collect suggestions (deduplicated).
	var suggestions []string
	seen := make(map[string]bool)
	for _, result := range results {
		if result.Suggestion != "" && result.Status != CheckPass && !seen[result.Suggestion] {
			suggestions = append(suggestions, result.Suggestion)
			seen[result.Suggestion] = true
		}
	}

	return &DoctorResult{
		Checks:      results,
		Summary:     summary,
		Suggestions: suggestions,
	}, nil
}

type doctor struct {
	runner system.Runner
	cfg    *configs.Config
	home   string
}

func (d *doctor) checkRequiredTools(ctx context.Context) CheckResult {
	var missing []string
	for _, tool := range requiredTools {
		if _, err := d.runner.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return CheckResult{
			Name:       "Required tools",
			Status:     CheckError,
			Message:    fmt.Sprintf("Missing required tools: %s", strings.Join(missing, ", ")),
			Suggestion: "Run 'latchkey setup' to install missing packages",
		}
	}
	return CheckResult{
		Name:    "Required tools",
		Status:  CheckPass,
		Message: "All required tools are installed",
	}
}

func (d *doctor) checkCredentialManager(ctx context.Context) CheckResult {
	if _, err := d.runner.LookPath("git-credential-manager"); err != nil {
		return CheckResult{
			Name:       "Git Credential Manager",
			Status:     CheckError,
			Message:    "git-credential-manager not found on PATH",
			Suggestion: "Run 'latchkey setup' to install Git Credential Manager",
		}
	}
	return CheckResult{
		Name:    "Git Credential Manager",
		Status:  CheckPass,
		Message: "git-credential-manager is installed",
	}
}

func (d *doctor) checkGPGKey(ctx context.Context) CheckResult {
	if _, err := d.runner.LookPath("gpg"); err != nil {
		return CheckResult{
			Name:       "GPG key",
			Status:     CheckError,
			Message:    "Cannot check GPG key: gpg not installed",
			Suggestion: "Run 'latchkey setup' to install missing packages",
		}
	}

	keyID := d.cfg.GPG.KeyID
	if keyID == "" {
		id, err := gpg.ResolveKeyID(ctx, d.runner, "")
		if err != nil {
			return CheckResult{
				Name:       "GPG key",
				Status:     CheckError,
				Message:    "No GPG key configured and none could be auto-detected",
				Suggestion: "Set gpg.key_id with 'latchkey config init' or generate a key with 'gpg --full-generate-key'",
			}
		}
		return CheckResult{
			Name:    "GPG key",
			Status:  CheckPass,
			Message: fmt.Sprintf("Using auto-detected GPG key %s", id),
		}
	}

	if !gpg.HasSecretKey(ctx, d.runner, keyID) {
		return CheckResult{
			Name:       "GPG key",
			Status:     CheckError,
			Message:    fmt.Sprintf("Configured GPG key %s not found in secret keyring", keyID),
			Suggestion: "Import the key or update gpg.key_id in the latchkey config",
		}
	}
	return CheckResult{
		Name:    "GPG key",
		Status:  CheckPass,
		Message: fmt.Sprintf("GPG key %s is available", keyID),
	}
}

func (d *doctor) checkPinentryConfig(ctx context.Context) CheckResult {
	confPath := filepath.Join(d.home, ".gnupg", "gpg-agent.conf")
	found, err := utils.FileContains(confPath, "pinentry-program")
	if err != nil {
		return CheckResult{
			Name:       "Pinentry configuration",
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to read gpg-agent.conf: %v", err),
			Suggestion: "Check that ~/.gnupg is accessible",
		}
	}
	if !found {
		return CheckResult{
			Name:       "Pinentry configuration",
			Status:     CheckWarning,
			Message:    "gpg-agent.conf has no pinentry-program directive",
			Suggestion: "Run 'latchkey setup' to configure a terminal pinentry",
		}
	}
	return CheckResult{
		Name:    "Pinentry configuration",
		Status:  CheckPass,
		Message: "gpg-agent is configured for terminal pinentry",
	}
}

func (d *doctor) checkStoreInitialized(ctx context.Context) CheckResult {
	if _, err := d.runner.LookPath("pass"); err != nil {
		return CheckResult{
			Name:       "Password store",
			Status:     CheckError,
			Message:    "Cannot check password store: pass not installed",
			Suggestion: "Run 'latchkey setup' to install missing packages",
		}
	}
	if !store.Initialized(ctx, d.runner) {
		return CheckResult{
			Name:       "Password store",
			Status:     CheckError,
			Message:    "Password store is not initialized",
			Suggestion: "Run 'latchkey setup' to initialize the store with your GPG key",
		}
	}
	return CheckResult{
		Name:    "Password store",
		Status:  CheckPass,
		Message: "Password store is initialized",
	}
}

func (d *doctor) checkCredentialStoreBackend(ctx context.Context) CheckResult {
	value := gitcfg.GlobalGet(ctx, d.runner, gitcfg.CredentialStoreKey)
	if value != gitcfg.CredentialStoreGPG {
		message := "credential.credentialStore is not set"
		if value != "" {
			message = fmt.Sprintf("credential.credentialStore is %q, not %q", value, gitcfg.CredentialStoreGPG)
		}
		return CheckResult{
			Name:       "Credential store backend",
			Status:     CheckError,
			Message:    message,
			Suggestion: "Run 'latchkey setup' to point Git Credential Manager at the gpg backend",
		}
	}
	return CheckResult{
		Name:    "Credential store backend",
		Status:  CheckPass,
		Message: "Git Credential Manager uses the gpg credential store",
	}
}

func (d *doctor) checkStartupHook(ctx context.Context) CheckResult {
	var unhooked []string
	for _, name := range shell.DefaultRCFiles {
		found, err := utils.FileContains(filepath.Join(d.home, name), shell.HookGuard)
		if err != nil || !found {
			unhooked = append(unhooked, name)
		}
	}
	if len(unhooked) > 0 {
		return CheckResult{
			Name:       "Startup hook",
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Keychain hook missing from %s", strings.Join(unhooked, ", ")),
			Suggestion: "Run 'latchkey setup' to add the keychain hook to your shell startup files",
		}
	}
	return CheckResult{
		Name:    "Startup hook",
		Status:  CheckPass,
		Message: "Shell startup files invoke keychain",
	}
}

// checkAgentSocket is the one side-effecting check: when the current
// environment has no valid socket it asks keychain for one, which may
// start an agent.
func (d *doctor) checkAgentSocket(ctx context.Context) CheckResult {
	if agent.SocketValid(os.Getenv(agent.SockEnv)) {
		return CheckResult{
			Name:    "Agent socket",
			Status:  CheckPass,
			Message: fmt.Sprintf("Agent socket %s is valid", os.Getenv(agent.SockEnv)),
		}
	}

	if _, err := agent.Start(ctx, d.runner, d.cfg.SSH.Keys, d.cfg.SSH.AgentTimeoutMinutes); err != nil {
		return CheckResult{
			Name:       "Agent socket",
			Status:     CheckError,
			Message:    fmt.Sprintf("Could not acquire an agent socket: %v", err),
			Suggestion: "Run 'eval \"$(latchkey agent start)\"' or open a fresh login shell",
		}
	}
	return CheckResult{
		Name:    "Agent socket",
		Status:  CheckPass,
		Message: fmt.Sprintf("Agent socket %s is valid", os.Getenv(agent.SockEnv)),
	}
}

func (d *doctor) checkLoadedIdentities(ctx context.Context) CheckResult {
	ids, err := agent.ListIdentities(ctx, d.runner)
	if err != nil {
		return CheckResult{
			Name:       "Loaded identities",
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Could not list agent identities: %v", err),
			Suggestion: "Run 'eval \"$(latchkey agent start)\"' or open a fresh login shell",
		}
	}
	if len(ids) == 0 {
		return CheckResult{
			Name:       "Loaded identities",
			Status:     CheckWarning,
			Message:    "Agent is running but holds no identities",
			Suggestion: "Load your keys with 'ssh-add' or open a fresh login shell",
		}
	}
	return CheckResult{
		Name:    "Loaded identities",
		Status:  CheckPass,
		Message: fmt.Sprintf("Agent holds %d identit%s", len(ids), pluralIes(len(ids))),
	}
}

func pluralIes(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

// calculateDoctorSummary calculates the counts of checks by status.
func calculateDoctorSummary(results []CheckResult) DoctorSummary {
	var summary DoctorSummary
	for _, result := range results {
		switch result.Status {
		case CheckPass:
			summary.Passed++
		case CheckWarning:
			summary.Warnings++
		case CheckError:
			summary.Errors++
		}
	}
	return summary
}
