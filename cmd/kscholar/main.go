// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the kscholar CLI. kscholar searches
// the KCI and RISS open APIs with normalized Korean queries and merges the
// results into one deduplicated record set.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/learninglab/kscholar/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets *secrets.Store

// rootCmd is the base command for the kscholar CLI.
var rootCmd = &cobra.Command{
	Use:   "kscholar",
	Short: "Search Korean academic indexes with normalized queries",
	Long: `kscholar aggregates paper metadata from KCI (the national research
citation index) and RISS (the thesis and article index). A free-form Korean
query is normalized into canonical search terms through a term table and an
optional AI suggestion step, each backend is queried with several strategy
variants, and the results are merged into one deduplicated record set.

Each stage is a subcommand: normalize, search, history, and serve.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./kscholar.yaml or ~/.config/kscholar/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("kscholar")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "kscholar"))
		}
	}

	viper.SetEnvPrefix("KSCHOLAR")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
