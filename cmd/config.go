package cmd

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the latchkey configuration file",
	Long: `View and edit the latchkey configuration.

  init - Write a config file with the defaults
  show - Print the effective configuration`,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
