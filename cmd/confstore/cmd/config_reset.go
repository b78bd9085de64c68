// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
)

var configReset = &cobra.Command{
	Use:   "reset NAME [VERSION]",
	Short: "Reset a configuration to some version",
	Long: `Reset a configuration to some version, discarding the versions that follow it.

Without a version, the working copy is reset to the current version.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		var version string
		if len(args) > 1 {
			version = args[1]
		}
		service, _ := newService()
		c, err := service.ResetConfiguration(args[0], version)
		if err != nil {
			fatalFor("reset configuration", err)
			return
		}
		mustRender(c, configurationTable(c))
	},
}

func init() {
	configCmd.AddCommand(configReset)
}
