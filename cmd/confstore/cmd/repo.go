// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
)

// repoCmd represents the repository related commands
var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Commands to manage configuration repositories",
	Long: `Commands to manage configuration repositories.

Every configuration lives in a repository of the same name, under the root directory.
`,
}

func init() {
	rootCmd.AddCommand(repoCmd)
}
