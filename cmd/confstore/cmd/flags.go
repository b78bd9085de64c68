// Copyright © 2018 One Concern

package cmd

import (
	"strings"

	"github.com/oneconcern/confstore/pkg/config"
	"github.com/oneconcern/confstore/pkg/dlogger"
	"github.com/spf13/cobra"
)

type flagsT struct {
	root struct {
		ConfigFile string
		Root       string
		Encoding   string
		Branch     string
		IDs        string
		LogLevel   string
		Format     string
	}
	config struct {
		File       string
		Version    string
		CustomName string
		Unchanged  bool
	}
}

var confstoreFlags = flagsT{}

// output formats
const (
	formatTable = "table"
	formatYAML  = "yaml"
	formatJSON  = "json"
)

func addConfigFileFlag(cmd *cobra.Command) string {
	c := "config"
	cmd.PersistentFlags().StringVar(&confstoreFlags.root.ConfigFile, c, "",
		"Settings file (default is confstore.yaml in ., $HOME/.confstore or /etc/confstore)")
	return c
}

func addRootFlag(cmd *cobra.Command) string {
	c := "root"
	cmd.PersistentFlags().StringVar(&confstoreFlags.root.Root, c, config.DefaultRoot,
		"The directory holding configuration repositories")
	return c
}

func addEncodingFlag(cmd *cobra.Command) string {
	c := "encoding"
	cmd.PersistentFlags().StringVar(&confstoreFlags.root.Encoding, c, config.DefaultEncoding,
		"The text encoding of stored files")
	return c
}

func addBranchFlag(cmd *cobra.Command) string {
	c := "branch"
	cmd.PersistentFlags().StringVar(&confstoreFlags.root.Branch, c, config.DefaultBranch,
		"The branch versions are committed to")
	return c
}

func addIDsFlag(cmd *cobra.Command) string {
	c := "ids"
	cmd.PersistentFlags().StringVar(&confstoreFlags.root.IDs, c, config.DefaultIDs,
		"The scheme of generated element ids: uuid or ksuid")
	return c
}

func addLogLevelFlag(cmd *cobra.Command) string {
	c := "log-level"
	cmd.PersistentFlags().StringVar(&confstoreFlags.root.LogLevel, c, dlogger.LogLevelInfo,
		"The logging level. Levels by increasing order of verbosity: "+strings.Join(reverse(dlogger.Levels()), ", "))
	return c
}

func addFormatFlag(cmd *cobra.Command) string {
	c := "format"
	cmd.PersistentFlags().StringVarP(&confstoreFlags.root.Format, c, "o", formatTable,
		"The output format: table, yaml or json")
	return c
}

func addFileFlag(cmd *cobra.Command) string {
	c := "file"
	cmd.Flags().StringVarP(&confstoreFlags.config.File, c, "f", "",
		"A configuration document, in YAML or JSON. Use - to read from stdin")
	return c
}

func addVersionFlag(cmd *cobra.Command) string {
	c := "version"
	cmd.Flags().StringVar(&confstoreFlags.config.Version, c, "",
		"A version of the configuration: version name, custom name or commit id")
	return c
}

func addCustomNameFlag(cmd *cobra.Command) string {
	c := "name"
	cmd.Flags().StringVar(&confstoreFlags.config.CustomName, c, "",
		"A custom name for the new version")
	return c
}

func addUnchangedFlag(cmd *cobra.Command) string {
	c := "unchanged"
	cmd.Flags().BoolVar(&confstoreFlags.config.Unchanged, c, false,
		"Also list unchanged elements")
	return c
}

func reverse(levels []string) []string {
	reversed := make([]string, 0, len(levels))
	for i := len(levels) - 1; i >= 0; i-- {
		reversed = append(reversed, levels[i])
	}
	return reversed
}
