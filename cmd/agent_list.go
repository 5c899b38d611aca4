package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/latchkey-dev/latchkey/internal/agent"
	"github.com/latchkey-dev/latchkey/internal/ui"
	"github.com/spf13/cobra"
)

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show identities loaded in the ssh-agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting agent list command")

		ids, err := agent.ListIdentities(context.Background(), sysRunner)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to list identities: %v", err)
		}

		if len(ids) == 0 {
			fmt.Printf("%s Agent holds no identities\n", ui.Bang())
			fmt.Printf("  %s Load your keys with %s or open a fresh login shell\n",
				ui.Arrow(), ui.Code.Sprint("ssh-add"))
			return nil
		}

		fmt.Printf("%s %d identit%s loaded:\n\n", ui.Tick(), len(ids), pluralIdentities(len(ids)))
		for _, id := range ids {
			detail := strings.TrimSpace(fmt.Sprintf("%s %s", id.Comment, ui.Muted.Sprint(id.Type)))
			fmt.Printf("  %d %s %s\n", id.Bits, id.Fingerprint, detail)
		}
		return nil
	},
}

func pluralIdentities(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
