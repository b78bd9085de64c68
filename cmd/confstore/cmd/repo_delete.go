// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
)

var repoDelete = &cobra.Command{
	Use:     "delete NAME",
	Short:   "Delete a configuration",
	Long:    `Delete a configuration with all its versions. This cannot be undone.`,
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, _ := newService()
		if err := service.DeleteConfiguration(args[0]); err != nil {
			fatalFor("delete configuration", err)
			return
		}
		infoLogger.Printf("deleted configuration %q", args[0])
	},
}

func init() {
	repoCmd.AddCommand(repoDelete)
}
