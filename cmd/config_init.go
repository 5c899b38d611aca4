package cmd

import (
	"fmt"

	"github.com/latchkey-dev/latchkey/internal/configs"
	"github.com/latchkey-dev/latchkey/internal/ui"
	"github.com/spf13/cobra"
)

var (
	configInitGPGKey string
	configInitKeys   []string
	configInitForce  bool
)

func init() {
	configInitCmd.Flags().StringVar(&configInitGPGKey, "gpg-key", "", "GPG key ID for the password store")
	configInitCmd.Flags().StringSliceVar(&configInitKeys, "ssh-key", nil, "SSH key to load at login (repeatable)")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
}

func resetConfigCommandState() {
	configInitGPGKey = ""
	configInitKeys = nil
	configInitForce = false
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the latchkey config file",
	Long: `Writes the configuration file with the default settings, optionally
pinned to a GPG key and a set of SSH keys.

Examples:
  latchkey config init
  latchkey config init --gpg-key ABC123DEF456 --ssh-key ~/.ssh/id_ed25519`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config init command")

		exists, err := configs.Exists()
		if err != nil {
			return err
		}
		if exists && !configInitForce {
			path, _ := configs.Path()
			fmt.Printf("%s Config already exists at %s\n", ui.Bang(), ui.Path.Sprint(path))
			fmt.Printf("  %s Rerun with %s to overwrite\n", ui.Arrow(), ui.Code.Sprint("--force"))
			return nil
		}

		cfg := configs.Default()
		if configInitGPGKey != "" {
			cfg.GPG.KeyID = configInitGPGKey
		}
		if len(configInitKeys) > 0 {
			cfg.SSH.Keys = configInitKeys
		}

		if err := cfg.Save(); err != nil {
			return Logger.ErrorfAndReturn("Failed to write config: %v", err)
		}

		path, _ := configs.Path()
		fmt.Printf("%s Wrote %s\n", ui.Tick(), ui.Path.Sprint(path))
		return nil
	},
}
