package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	lkerrors "github.com/latchkey-dev/latchkey/internal/errors"
	"github.com/latchkey-dev/latchkey/internal/reconcile"
	"github.com/latchkey-dev/latchkey/internal/ui"
	"github.com/latchkey-dev/latchkey/internal/utils"
	"github.com/latchkey-dev/latchkey/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	setupGPGKey       string
	setupDryRun       bool
	setupSkipPackages bool
	setupSkipGCM      bool
	setupJSONOutput   bool
	// setupExitFunc is the function called to exit with a specific code.
	// Can be overridden for testing.
	setupExitFunc = os.Exit
)

func init() {
	setupCmd.Flags().StringVar(&setupGPGKey, "gpg-key", "", "GPG key ID for the password store")
	setupCmd.Flags().BoolVar(&setupDryRun, "dry-run", false, "report changes without applying them")
	setupCmd.Flags().BoolVar(&setupSkipPackages, "skip-packages", false, "do not install apt packages")
	setupCmd.Flags().BoolVar(&setupSkipGCM, "skip-gcm", false, "do not install git-credential-manager")
	setupCmd.Flags().BoolVar(&setupJSONOutput, "json", false, "output in JSON format")
}

func resetSetupCommandState() {
	setupGPGKey = ""
	setupDryRun = false
	setupSkipPackages = false
	setupSkipGCM = false
	setupJSONOutput = false
	setupExitFunc = os.Exit
}

// SetSetupExitFunc sets the exit function for testing purposes.
func SetSetupExitFunc(f func(int)) {
	setupExitFunc = f
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure this login for keychain, pass, and Git Credential Manager",
	Long: `Brings the login environment into its desired state, in order:

  1. Install required packages (keychain, pass, gnupg2, pinentry)
  2. Install Git Credential Manager from its release artifacts
  3. Point gpg-agent at a terminal pinentry
  4. Initialize the GPG-backed password store
  5. Mask conflicting desktop keyring services
  6. Hook keychain into shell startup files
  7. Point Git Credential Manager at the gpg credential store
  8. Seed password store entries for configured hosts

Every step is idempotent: rerunning setup changes nothing that is
already in place. A successful run ends with a strict verification
pass.

Examples:
  latchkey setup                          # full setup
  latchkey setup --dry-run                # show what would change
  latchkey setup --gpg-key ABC123DEF456   # pin the store key`,
	RunE: runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting setup command")

	result, err := workflows.Setup(context.Background(), workflows.SetupOptions{
		Runner:       sysRunner,
		GPGKey:       setupGPGKey,
		Prompt:       promptGPGKey,
		DryRun:       setupDryRun,
		SkipPackages: setupSkipPackages,
		SkipGCM:      setupSkipGCM,
	})
	if result == nil {
		// Setup never started: bad config or no usable GPG key.
		if errors.Is(err, lkerrors.ErrNoGPGKey) {
			Logger.Errorf("%v", err)
			fmt.Printf("%s Setup needs a GPG key for the password store\n", ui.Cross())
			fmt.Printf("  %s Pass one with %s or generate one with %s\n",
				ui.Arrow(), ui.Code.Sprint("latchkey setup --gpg-key <id>"),
				ui.Code.Sprint("gpg --full-generate-key"))
			setupExitFunc(1)
			return nil
		}
		return err
	}

	if setupJSONOutput {
		if jsonErr := outputSetupJSON(result, err); jsonErr != nil {
			return jsonErr
		}
	} else {
		printSetupResults(result, err)
	}

	if err != nil {
		setupExitFunc(1)
	}
	return nil
}

// promptGPGKey asks for the store key on the terminal. Non-interactive
// runs return an empty answer, which key resolution treats as fatal.
func promptGPGKey(question string) (string, error) {
	if !utils.IsTerminal() {
		return "", nil
	}
	return utils.PromptLine(question + ": ")
}

// setupReport is the JSON shape of a setup run.
type setupReport struct {
	KeyID        string                  `json:"key_id"`
	DryRun       bool                    `json:"dry_run"`
	Steps        []setupStep             `json:"steps"`
	Verification *workflows.DoctorResult `json:"verification,omitempty"`
	Error        string                  `json:"error,omitempty"`
}

type setupStep struct {
	Name    string `json:"name"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

func outputSetupJSON(result *workflows.SetupResult, runErr error) error {
	report := setupReport{
		KeyID:        result.KeyID,
		DryRun:       setupDryRun,
		Verification: result.Verification,
	}
	for _, r := range result.Results {
		step := setupStep{Name: r.Name, Outcome: r.Outcome.String()}
		if r.Err != nil {
			step.Error = r.Err.Error()
		}
		report.Steps = append(report.Steps, step)
	}
	if runErr != nil {
		report.Error = runErr.Error()
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// printSetupResults prints the run in a human-readable format.
func printSetupResults(result *workflows.SetupResult, runErr error) {
	if setupDryRun {
		fmt.Println("Dry run: no changes applied")
		fmt.Println()
	}

	for _, r := range result.Results {
		switch r.Outcome {
		case reconcile.Applied:
			fmt.Printf("%s %s: applied\n", ui.Tick(), r.Name)
		case reconcile.AlreadySatisfied:
			fmt.Printf("%s %s: already in place\n", ui.Tick(), r.Name)
		case reconcile.WouldApply:
			fmt.Printf("%s %s: would apply\n", ui.Arrow(), r.Name)
		case reconcile.Advisory:
			fmt.Printf("%s %s: skipped (%v)\n", ui.Bang(), r.Name, r.Err)
		case reconcile.Failed:
			fmt.Printf("%s %s: %v\n", ui.Cross(), r.Name, r.Err)
		}
	}

	fmt.Println()
	switch {
	case runErr != nil && errors.Is(runErr, lkerrors.ErrVerificationFailed):
		fmt.Printf("%s Setup applied, but verification found problems\n", ui.Cross())
		printVerification(result.Verification)
	case runErr != nil:
		fmt.Printf("%s Setup stopped: %v\n", ui.Cross(), runErr)
		fmt.Printf("  %s Fix the failure and rerun %s; completed steps are kept\n",
			ui.Arrow(), ui.Code.Sprint("latchkey setup"))
	case setupDryRun:
		fmt.Printf("%s Dry run complete\n", ui.Tick())
	default:
		fmt.Printf("%s Setup complete and verified\n", ui.Tick())
		fmt.Printf("  %s Open a fresh login shell, or run %s now\n",
			ui.Arrow(), ui.Code.Sprint(`eval "$(latchkey agent start)"`))
	}
}

// printVerification lists the non-passing verification checks.
func printVerification(verification *workflows.DoctorResult) {
	if verification == nil {
		return
	}
	for _, check := range verification.Checks {
		if check.Status == workflows.CheckPass {
			continue
		}
		icon := ui.Bang()
		if check.Status == workflows.CheckError {
			icon = ui.Cross()
		}
		fmt.Printf("  %s %s\n", icon, check.Message)
	}
	if len(verification.Suggestions) > 0 {
		fmt.Println()
		fmt.Println("Suggestions:")
		for _, suggestion := range verification.Suggestions {
			fmt.Printf("  %s %s\n", ui.Arrow(), suggestion)
		}
	}
}
