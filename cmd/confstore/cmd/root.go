// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/oneconcern/confstore/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "confstore",
	Short: "Confstore keeps versioned configurations",
	Long: `Confstore keeps versioned configurations of models, nodes and relations.

Every configuration is stored in its own git repository. Each save creates a new version,
named v1.0.0, v1.0.1 and so on, which may also be given a custom name.

Versions may be listed, compared, checked out or reset to.
`,
	SilenceUsage: true,
}

var settings *config.Config

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	addConfigFileFlag(rootCmd)
	addFormatFlag(rootCmd)

	// settings flags override the settings file and the environment
	flags := rootCmd.PersistentFlags()
	mustBind(flags, config.KeyRoot, addRootFlag(rootCmd))
	mustBind(flags, config.KeyEncoding, addEncodingFlag(rootCmd))
	mustBind(flags, config.KeyBranch, addBranchFlag(rootCmd))
	mustBind(flags, config.KeyIDs, addIDsFlag(rootCmd))
	mustBind(flags, config.KeyLogLevel, addLogLevelFlag(rootCmd))
}

func mustBind(flags *pflag.FlagSet, key, flag string) {
	if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
		logFatalln(err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	var err error
	settings, err = config.Load(viper.GetViper(), confstoreFlags.root.ConfigFile)
	if err != nil {
		wrapFatalln("loading settings", err)
		return
	}
	if used := viper.ConfigFileUsed(); used != "" {
		infoLogger.Println("Using config file:", used)
	}
}
