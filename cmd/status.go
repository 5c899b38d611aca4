package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/latchkey-dev/latchkey/internal/agent"
	"github.com/latchkey-dev/latchkey/internal/configs"
	"github.com/latchkey-dev/latchkey/internal/gitcfg"
	"github.com/latchkey-dev/latchkey/internal/shell"
	"github.com/latchkey-dev/latchkey/internal/store"
	"github.com/latchkey-dev/latchkey/internal/ui"
	"github.com/latchkey-dev/latchkey/internal/utils"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show credential environment status",
	Long: `Display the state of the latchkey-managed environment: configuration,
agent socket, loaded identities, password store, and git credential
wiring.

Examples:
  latchkey status            # full status
  latchkey status --compact  # one-line summary`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")
		spinner, cleanup := startSpinner("Gathering environment status...", verbose)
		defer cleanup()

		compact, _ := cmd.Flags().GetBool("compact")

		status, err := gatherStatus(context.Background())
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to gather status: %v", err)
		}

		var finalMessage strings.Builder
		if compact {
			finalMessage.WriteString(formatCompactStatus(status))
		} else {
			finalMessage.WriteString(formatDetailedStatus(status))
		}

		spinner.FinalMSG = finalMessage.String()
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("compact", false, "show a one-line summary")
}

// resetStatusCommandState resets the status command flags for testing.
func resetStatusCommandState() {
	statusCmd.Flags().Set("compact", "false") //nolint:errcheck
}

// environmentStatus holds all status information.
type environmentStatus struct {
	// Configuration
	ConfigPath   string
	ConfigExists bool
	GPGKeyID     string
	SSHKeys      []string
	StoreHosts   []string

	// Agent
	AgentSock     string
	AgentSockOK   bool
	Identities    []agent.Identity
	IdentitiesErr error

	// Store and git wiring
	StoreInitialized bool
	CredentialStore  string
	CredentialHelper string

	// Shell hook
	HookedFiles   []string
	UnhookedFiles []string
}

// gatherStatus collects all environment status information. Probes that
// fail are reported as absent rather than failing the command.
func gatherStatus(ctx context.Context) (*environmentStatus, error) {
	cfg, err := configs.Load()
	if err != nil {
		return nil, err
	}

	status := &environmentStatus{
		GPGKeyID:   cfg.GPG.KeyID,
		SSHKeys:    cfg.SSH.Keys,
		StoreHosts: cfg.Store.Hosts,
	}

	if path, err := configs.Path(); err == nil {
		status.ConfigPath = path
	}
	if exists, err := configs.Exists(); err == nil {
		status.ConfigExists = exists
	}

	status.AgentSock = os.Getenv(agent.SockEnv)
	status.AgentSockOK = agent.SocketValid(status.AgentSock)
	if status.AgentSockOK {
		status.Identities, status.IdentitiesErr = agent.ListIdentities(ctx, sysRunner)
	}

	status.StoreInitialized = store.Initialized(ctx, sysRunner)
	status.CredentialStore = gitcfg.GlobalGet(ctx, sysRunner, gitcfg.CredentialStoreKey)
	status.CredentialHelper = gitcfg.GlobalGet(ctx, sysRunner, "credential.helper")

	home := utils.HomeDir()
	for _, name := range shell.DefaultRCFiles {
		hooked, err := utils.FileContains(filepath.Join(home, name), shell.HookGuard)
		if err == nil && hooked {
			status.HookedFiles = append(status.HookedFiles, name)
		} else {
			status.UnhookedFiles = append(status.UnhookedFiles, name)
		}
	}

	return status, nil
}

// formatDetailedStatus renders the full status view.
func formatDetailedStatus(status *environmentStatus) string {
	var b strings.Builder

	banner := figure.NewFigure("latchkey", "", true)
	b.WriteString("\n" + banner.String() + "\n")

	b.WriteString("Configuration\n")
	if status.ConfigExists {
		b.WriteString(fmt.Sprintf("  %s Config file: %s\n", ui.Tick(), ui.Path.Sprint(status.ConfigPath)))
	} else {
		b.WriteString(fmt.Sprintf("  %s No config file %s\n", ui.Bang(),
			ui.Muted.Sprint("using defaults, run `latchkey config init`")))
	}
	if status.GPGKeyID != "" {
		b.WriteString(fmt.Sprintf("  %s GPG key: %s\n", ui.Tick(), ui.Highlight.Sprint(status.GPGKeyID)))
	} else {
		b.WriteString(fmt.Sprintf("  %s GPG key: auto-detect\n", ui.Arrow()))
	}
	b.WriteString(fmt.Sprintf("  %s SSH keys: %s\n", ui.Arrow(), strings.Join(status.SSHKeys, ", ")))

	b.WriteString("\nSSH agent\n")
	if status.AgentSockOK {
		b.WriteString(fmt.Sprintf("  %s Socket: %s\n", ui.Tick(), ui.Path.Sprint(status.AgentSock)))
		switch {
		case status.IdentitiesErr != nil:
			b.WriteString(fmt.Sprintf("  %s Could not list identities: %v\n", ui.Bang(), status.IdentitiesErr))
		case len(status.Identities) == 0:
			b.WriteString(fmt.Sprintf("  %s No identities loaded\n", ui.Bang()))
		default:
			for _, id := range status.Identities {
				b.WriteString(fmt.Sprintf("  %s %s %s\n", ui.Tick(), id.Fingerprint,
					ui.Muted.Sprint(strings.TrimSpace(id.Comment+" "+id.Type))))
			}
		}
	} else {
		b.WriteString(fmt.Sprintf("  %s No valid agent socket %s\n", ui.Cross(),
			ui.Muted.Sprint(`run eval "$(latchkey agent start)"`)))
	}

	b.WriteString("\nCredentials\n")
	if status.StoreInitialized {
		b.WriteString(fmt.Sprintf("  %s Password store initialized\n", ui.Tick()))
	} else {
		b.WriteString(fmt.Sprintf("  %s Password store not initialized\n", ui.Cross()))
	}
	if status.CredentialStore == gitcfg.CredentialStoreGPG {
		b.WriteString(fmt.Sprintf("  %s credential.credentialStore = gpg\n", ui.Tick()))
	} else {
		b.WriteString(fmt.Sprintf("  %s credential.credentialStore = %q\n", ui.Cross(), status.CredentialStore))
	}
	if strings.Contains(status.CredentialHelper, "git-credential-manager") {
		b.WriteString(fmt.Sprintf("  %s credential.helper -> git-credential-manager\n", ui.Tick()))
	} else {
		b.WriteString(fmt.Sprintf("  %s credential.helper = %q\n", ui.Cross(), status.CredentialHelper))
	}

	b.WriteString("\nShell hook\n")
	for _, name := range status.HookedFiles {
		b.WriteString(fmt.Sprintf("  %s %s\n", ui.Tick(), ui.Path.Sprint("~/"+name)))
	}
	for _, name := range status.UnhookedFiles {
		b.WriteString(fmt.Sprintf("  %s %s %s\n", ui.Cross(), ui.Path.Sprint("~/"+name),
			ui.Muted.Sprint("no keychain hook")))
	}

	return b.String()
}

// formatCompactStatus renders a single summary line.
func formatCompactStatus(status *environmentStatus) string {
	part := func(ok bool, label string) string {
		if ok {
			return ui.Tick() + " " + label
		}
		return ui.Cross() + " " + label
	}
	return strings.Join([]string{
		part(status.AgentSockOK, "agent"),
		part(len(status.Identities) > 0, "identities"),
		part(status.StoreInitialized, "store"),
		part(status.CredentialStore == gitcfg.CredentialStoreGPG, "gcm"),
		part(len(status.UnhookedFiles) == 0, "hook"),
	}, "  ") + "\n"
}
