// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
)

var configTag = &cobra.Command{
	Use:     "tag NAME VERSION CUSTOM_NAME",
	Short:   "Give a custom name to a version",
	Long:    `Give a custom name to a version of a configuration. Custom names may contain any character.`,
	Example: `% confstore config tag factory v1.0.2 "golden: build 1"`,
	Args:    cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		service, _ := newService()
		v, err := service.TagConfigurationVersion(args[0], args[1], args[2])
		if err != nil {
			fatalFor("tag version", err)
			return
		}
		mustRender(v, versionTable(v))
	},
}

func init() {
	configCmd.AddCommand(configTag)
}
