// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
)

var configVersions = &cobra.Command{
	Use:     "versions NAME",
	Short:   "List the versions of a configuration",
	Long:    `List the versions of a configuration, most recent first.`,
	Aliases: []string{"log"},
	Example: `% confstore config versions factory
VERSION  CUSTOM NAME  COMMIT    SAVED
v1.0.1                5d1b3c0a  2 minutes ago
v1.0.0   initial      e0f2a617  3 hours ago`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, _ := newService()
		versions, err := service.ListConfigurationVersions(args[0])
		if err != nil {
			fatalFor("list versions", err)
			return
		}
		mustRender(versions, versionsTable(versions))
	},
}

func init() {
	configCmd.AddCommand(configVersions)
}
