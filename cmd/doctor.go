package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/latchkey-dev/latchkey/internal/ui"
	"github.com/latchkey-dev/latchkey/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	doctorJSONOutput bool
	doctorStrict     bool
	// doctorExitFunc is the function called to exit with a specific code.
	// Can be overridden for testing.
	doctorExitFunc = os.Exit
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSONOutput, "json", false, "output in JSON format")
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "treat warnings as errors")
}

func resetDoctorCommandState() {
	doctorJSONOutput = false
	doctorStrict = false
	doctorExitFunc = os.Exit
}

// SetDoctorExitFunc sets the exit function for testing purposes.
func SetDoctorExitFunc(f func(int)) {
	doctorExitFunc = f
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on the credential environment",
	Long: `Runs a series of health checks on the latchkey-managed environment
and reports issues.

The doctor command checks:
  - Required tools (keychain, pass, gpg, git) on PATH
  - Git Credential Manager installation
  - GPG secret key availability
  - gpg-agent pinentry configuration
  - Password store initialization
  - Git credential store backend
  - Shell startup hook presence
  - Agent socket validity and loaded identities

Warnings are advisory: they are reported but do not fail the run unless
--strict is set.

Exit codes:
  0 - All checks passed, or warnings only (without --strict)
  1 - Warnings found, with --strict
  2 - Errors found (critical issues)

Use --json for machine-readable output.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting doctor command")

	spinner, cleanup := startSpinner("Running health checks...", verbose)
	defer cleanup()

	result, err := workflows.Doctor(context.Background(), workflows.DoctorOptions{
		Runner: sysRunner,
	})
	if err != nil {
		spinner.FinalMSG = ui.Cross() + " Failed to run health checks: " + err.Error()
		return err
	}

	for _, check := range result.Checks {
		Logger.Debugf("Check %s: status=%s, message=%s", check.Name, check.Status.String(), check.Message)
	}

	if doctorJSONOutput {
		spinner.FinalMSG = ""
		if err := outputDoctorJSON(result); err != nil {
			return err
		}
	} else {
		spinner.FinalMSG = ""
		printDoctorResults(result)
		if result.Summary.Errors > 0 {
			spinner.FinalMSG = ui.Cross() + " Health checks completed with errors"
		} else if result.Summary.Warnings > 0 {
			spinner.FinalMSG = ui.Bang() + " Health checks completed with warnings"
		} else {
			spinner.FinalMSG = ui.Tick() + " Health checks completed"
		}
	}

	// Set exit code based on results. Warnings only count against the
	// exit status under --strict.
	if result.Summary.Errors > 0 {
		doctorExitFunc(2)
	} else if doctorStrict && result.Summary.Warnings > 0 {
		doctorExitFunc(1)
	}
	return nil
}

// outputDoctorJSON outputs the result as JSON.
func outputDoctorJSON(result *workflows.DoctorResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// printDoctorResults prints the doctor results in a human-readable format.
func printDoctorResults(result *workflows.DoctorResult) {
	fmt.Println("Running health checks...")
	fmt.Println()

	for _, check := range result.Checks {
		var statusIcon string
		switch check.Status {
		case workflows.CheckPass:
			statusIcon = ui.Tick()
		case workflows.CheckWarning:
			statusIcon = ui.Bang()
		case workflows.CheckError:
			statusIcon = ui.Cross()
		}
		fmt.Printf("%s %s\n", statusIcon, check.Message)
	}

	fmt.Println()
	fmt.Printf("Summary: %d passed", result.Summary.Passed)
	if result.Summary.Warnings > 0 {
		fmt.Printf(", %s", ui.Warning.Sprintf("%d warning(s)", result.Summary.Warnings))
	}
	if result.Summary.Errors > 0 {
		fmt.Printf(", %s", ui.Error.Sprintf("%d error(s)", result.Summary.Errors))
	}
	fmt.Println()

	if len(result.Suggestions) > 0 {
		fmt.Println()
		fmt.Println("Suggestions:")
		for _, suggestion := range result.Suggestions {
			fmt.Printf("  %s %s\n", ui.Arrow(), suggestion)
		}
	}
}
