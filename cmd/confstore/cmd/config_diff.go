// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
)

var configDiff = &cobra.Command{
	Use:   "diff NAME OLD_VERSION NEW_VERSION",
	Short: "Compare two versions of a configuration",
	Long: `Compare two versions of a configuration, element by element.

Changes to the layout metadata of elements are not reported.`,
	Example: `% confstore config diff factory v1.0.0 v1.0.2 --unchanged`,
	Args:    cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		service, _ := newService()
		d, err := service.CompareConfigurationVersions(args[0], args[1], args[2], confstoreFlags.config.Unchanged)
		if err != nil {
			fatalFor("compare versions", err)
			return
		}
		mustRender(d, diffTable(d))
	},
}

func init() {
	addUnchangedFlag(configDiff)
	configCmd.AddCommand(configDiff)
}
