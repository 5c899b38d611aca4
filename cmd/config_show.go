package cmd

import (
	"fmt"

	"github.com/latchkey-dev/latchkey/internal/configs"
	"github.com/latchkey-dev/latchkey/internal/ui"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Prints the configuration latchkey will use, merging the config file
(when present) over the built-in defaults.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config show command")

		cfg, err := configs.Load()
		if err != nil {
			return err
		}

		exists, err := configs.Exists()
		if err != nil {
			return err
		}
		path, _ := configs.Path()
		if exists {
			fmt.Printf("# %s\n", path)
		} else {
			fmt.Printf("# defaults %s\n", ui.Muted.Sprintf("no config at %s", path))
		}

		return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
	},
}
