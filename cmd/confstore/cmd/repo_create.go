// Copyright © 2018 One Concern

package cmd

import (
	"github.com/oneconcern/confstore/pkg/model"
	"github.com/spf13/cobra"
)

var repoCreate = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a configuration",
	Long: `Create a configuration, with a first version.

The first version is empty, unless a configuration document is given.`,
	Example: `% confstore repo create factory --file factory.yaml --name initial`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := &model.Configuration{}
		if confstoreFlags.config.File != "" {
			var err error
			c, err = readDocument(confstoreFlags.config.File)
			if err != nil {
				wrapFatalln("read configuration document", err)
				return
			}
		}
		c.Name = args[0]
		c.Version = newVersionRequest()

		service, _ := newService()
		saved, err := service.CreateConfiguration(c)
		if err != nil {
			fatalFor("create configuration", err)
			return
		}
		mustRender(saved, configurationTable(saved))
	},
}

// newVersionRequest asks for a custom name of the version about to be saved, if any
func newVersionRequest() *model.ConfigurationVersion {
	if confstoreFlags.config.CustomName == "" {
		return nil
	}
	return &model.ConfigurationVersion{CustomName: confstoreFlags.config.CustomName}
}

func init() {
	addFileFlag(repoCreate)
	addCustomNameFlag(repoCreate)
	repoCmd.AddCommand(repoCreate)
}
