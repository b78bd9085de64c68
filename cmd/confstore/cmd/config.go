// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
)

// configCmd represents the configuration related commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage configurations and their versions",
	Long: `Commands to manage configurations and their versions.

Versions are designated by their version name (e.g. v1.0.2), their custom name or their commit id.
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
