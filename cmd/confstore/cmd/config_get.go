// Copyright © 2018 One Concern

package cmd

import (
	"github.com/oneconcern/confstore/pkg/model"
	"github.com/spf13/cobra"
)

var configGet = &cobra.Command{
	Use:   "get NAME",
	Short: "Get a configuration",
	Long:  `Get the current version of a configuration, or some other version.`,
	Example: `% confstore config get factory --version v1.0.1 -o yaml
% confstore config get factory --version release-1`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, _ := newService()
		var (
			c   *model.Configuration
			err error
		)
		if confstoreFlags.config.Version == "" {
			c, err = service.GetConfiguration(args[0])
		} else {
			c, err = service.GetConfigurationVersion(args[0], confstoreFlags.config.Version)
		}
		if err != nil {
			fatalFor("get configuration", err)
			return
		}
		mustRender(c, configurationTable(c))
	},
}

func init() {
	addVersionFlag(configGet)
	configCmd.AddCommand(configGet)
}
