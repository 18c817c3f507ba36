// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the openreview-corpus CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/openreview-corpus/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the openreview-corpus CLI.
var rootCmd = &cobra.Command{
	Use:   "openreview-corpus",
	Short: "Build a local corpus of conference papers, reviews, and code",
	Long: `openreview-corpus reads the submissions table of a conference hosted on
OpenReview and downloads, for every paper, its full review history, the PDF,
any supplementary material, and the linked code repository. Output goes to a
fixed directory layout with a metadata.csv index. Reruns skip anything
already on disk.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(afero.NewOsFs(), ".secrets/", nil)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./openreview-corpus.yaml or ~/.config/openreview-corpus/openreview-corpus.yaml)")
	flags.String("download-root", "", "output directory (default downloads)")
	flags.String("submissions-url", "", "conference submissions page")
	flags.String("api-base-url", "", "OpenReview API v2 base URL")
	flags.String("site-base-url", "", "OpenReview site base URL for forum pages")
	flags.StringSlice("invitation", nil, "submission invitation to list forums from when no table is found (repeatable)")
	flags.Duration("timeout", 0, "HTTP request timeout (default 30s)")
	flags.Duration("request-interval", 0, "minimum spacing between HTTP requests (default 300ms)")
	flags.Int("max-attempts", 0, "attempts per download including the first (default 3)")
	flags.Duration("retry-delay", 0, "wait between download attempts (default 2s)")
	flags.String("log-level", "", "log level: debug, info, warn, error (default info)")
	flags.String("log-file", "", "also write logs to this file")

	bindFlags(flags, map[string]string{
		"download_root":    "download-root",
		"submissions_url":  "submissions-url",
		"api_base_url":     "api-base-url",
		"site_base_url":    "site-base-url",
		"invitations":      "invitation",
		"timeout":          "timeout",
		"request_interval": "request-interval",
		"max_attempts":     "max-attempts",
		"retry_delay":      "retry-delay",
		"log_level":        "log-level",
		"log_file":         "log-file",
	})
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("openreview-corpus")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "openreview-corpus"))
		}
	}

	viper.SetEnvPrefix("OPENREVIEW_CORPUS")
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
