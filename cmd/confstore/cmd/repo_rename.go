// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
)

var repoRename = &cobra.Command{
	Use:     "rename NAME NEW_NAME",
	Short:   "Rename a configuration",
	Long:    `Rename a configuration. Its versions are kept.`,
	Aliases: []string{"mv"},
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		service, _ := newService()
		c, err := service.RenameConfiguration(args[0], args[1])
		if err != nil {
			fatalFor("rename configuration", err)
			return
		}
		mustRender(c, configurationTable(c))
	},
}

func init() {
	repoCmd.AddCommand(repoRename)
}
