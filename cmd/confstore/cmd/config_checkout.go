// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
)

var configCheckout = &cobra.Command{
	Use:   "checkout NAME VERSION",
	Short: "Check out a version of a configuration",
	Long: `Check out a version of a configuration, which becomes the current version.

Later versions are kept. Saving after checking out an older version adds a version after the latest one.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		service, _ := newService()
		c, err := service.CheckoutConfigurationVersion(args[0], args[1])
		if err != nil {
			fatalFor("check out version", err)
			return
		}
		mustRender(c, configurationTable(c))
	},
}

func init() {
	configCmd.AddCommand(configCheckout)
}
