package cmd

import (
	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage the ssh-agent behind keychain",
	Long: `Helpers for shells that missed the login hook.

  start  - Print export lines for an agent (starting one if needed)
  list   - Show identities loaded in the agent`,
}

func init() {
	agentCmd.AddCommand(agentStartCmd)
	agentCmd.AddCommand(agentListCmd)
}
