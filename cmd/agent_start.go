package cmd

import (
	"context"
	"fmt"

	"github.com/latchkey-dev/latchkey/internal/agent"
	"github.com/latchkey-dev/latchkey/internal/configs"
	"github.com/spf13/cobra"
)

var agentStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Attach to (or start) the ssh-agent and print its environment",
	Long: `Invokes keychain for the configured keys and prints sh export lines
for the resulting agent on stdout. Everything else goes to stderr, so
the output is safe to eval:

  eval "$(latchkey agent start)"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting agent start command")

		cfg, err := configs.Load()
		if err != nil {
			return err
		}

		env, err := agent.Start(context.Background(), sysRunner, cfg.SSH.Keys, cfg.SSH.AgentTimeoutMinutes)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to start agent: %v", err)
		}

		for _, line := range env.ExportLines() {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}
