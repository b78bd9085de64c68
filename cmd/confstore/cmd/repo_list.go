// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
)

var repoList = &cobra.Command{
	Use:     "list",
	Short:   "List configurations",
	Long:    `List the current version of all configurations`,
	Aliases: []string{"ls"},
	Example: `% confstore repo list
NAME      VERSION  CUSTOM NAME  MODELS  NODES  RELATIONS  SAVED
factory   v1.0.2   release-1    2       14     9          3 hours ago`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		service, _ := newService()
		configurations, err := service.ListConfigurations()
		if err != nil {
			fatalFor("list configurations", err)
			return
		}
		mustRender(configurations, configurationsTable(configurations))
	},
}

func init() {
	repoCmd.AddCommand(repoList)
}
