package cmd

import (
	"fmt"
	"os"

	logger "github.com/latchkey-dev/latchkey/internal/logging"
	"github.com/latchkey-dev/latchkey/internal/system"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	// sysRunner executes every external tool the commands touch.
	// Swapped for a fake in tests.
	sysRunner system.Runner = system.NewExec()

	rootCmd = &cobra.Command{
		Use:   "latchkey",
		Short: "Latchkey - headless credential plumbing for Git and SSH.",
		Long: `Latchkey wires a headless Linux login to ssh-agent, the pass password
manager, and Git Credential Manager, so Git over HTTPS and SSH both work
without a desktop keyring.

Features:
  - One-shot setup: packages, GPG pinentry, password store, shell hook
  - Health checks that tell you exactly what is broken and how to fix it
  - Agent helpers for shells that missed the login hook

Run 'latchkey help <command>' for more details on a specific command.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing latchkey with verbose=%t, debug=%t", verbose, debug)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Helper functions for testing

// GetRootCmd returns the root command for testing.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	sysRunner = system.NewExec()
	resetSetupCommandState()
	resetDoctorCommandState()
	resetConfigCommandState()
	resetStatusCommandState()
}

// SetRunner swaps the system runner for testing.
func SetRunner(r system.Runner) {
	sysRunner = r
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}
