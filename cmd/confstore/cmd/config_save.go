// Copyright © 2018 One Concern

package cmd

import (
	"github.com/oneconcern/confstore/pkg/core"
	"github.com/oneconcern/confstore/pkg/core/status"
	"github.com/oneconcern/confstore/pkg/errors"
	"github.com/oneconcern/confstore/pkg/model"
	"github.com/spf13/cobra"
)

var configSave = &cobra.Command{
	Use:   "save",
	Short: "Save a new version of a configuration",
	Long: `Save a configuration document as the new version of a configuration.

The configuration is created when it does not exist. The elements of the document replace all
the elements of the current version. Elements without an id get a generated one.

Any version given in the document is ignored.`,
	Example: `% confstore config save --file factory.yaml --name "release 2"
% confstore config get factory -o json | confstore config save -f -`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c, err := readDocument(confstoreFlags.config.File)
		if err != nil {
			wrapFatalln("read configuration document", err)
			return
		}
		c.Version = newVersionRequest()

		service, _ := newService()
		saved, err := saveConfiguration(service, c)
		if err != nil {
			fatalFor("save configuration", err)
			return
		}
		mustRender(saved, configurationTable(saved))
	},
}

// saveConfiguration updates a configuration, or creates it when it is not found
func saveConfiguration(service *core.Service, c *model.Configuration) (*model.Configuration, error) {
	saved, err := service.UpdateConfiguration(c)
	if errors.Is(err, status.ErrNotFound) {
		return service.CreateConfiguration(c)
	}
	return saved, err
}

func init() {
	addFileFlag(configSave)
	addCustomNameFlag(configSave)
	_ = configSave.MarkFlagRequired("file")
	configCmd.AddCommand(configSave)
}
