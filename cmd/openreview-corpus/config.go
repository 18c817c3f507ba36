// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/openreview-corpus/internal/secrets"
	"github.com/pdiddy/openreview-corpus/pkg/types"
)

const redacted = "********"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Config resolves defaults, the config file, OPENREVIEW_CORPUS_* environment
variables, and flags, then prints the result. The password is redacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Credentials.Password != "" {
			cfg.Credentials.Password = redacted
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// bindFlags binds each viper key to the named flag. Zero-valued flags do
// not override the file or environment because viper only reads a bound
// flag once it has been changed.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", name, err))
		}
	}
}

// setDefaults registers every config key with its default so that viper
// resolves environment variables for all of them.
func setDefaults(d types.CorpusConfig) {
	viper.SetDefault("download_root", d.DownloadRoot)
	viper.SetDefault("submissions_url", d.SubmissionsURL)
	viper.SetDefault("api_base_url", d.APIBaseURL)
	viper.SetDefault("site_base_url", d.SiteBaseURL)
	viper.SetDefault("timeout", d.Timeout)
	viper.SetDefault("user_agent", d.UserAgent)
	viper.SetDefault("max_attempts", d.MaxAttempts)
	viper.SetDefault("retry_delay", d.RetryDelay)
	viper.SetDefault("request_interval", d.RequestInterval)
	viper.SetDefault("paper_delay", d.PaperDelay)
	viper.SetDefault("clone_timeout", d.CloneTimeout)
	viper.SetDefault("skip_code", d.SkipCode)
	viper.SetDefault("skip_supplementary", d.SkipSupplementary)
	viper.SetDefault("manifest", d.Manifest)
	viper.SetDefault("invitations", d.Invitations)
	viper.SetDefault("log_level", d.LogLevel)
	viper.SetDefault("log_file", d.LogFile)
}

// loadConfig merges defaults, config file, environment, and flags, then
// attaches credentials from .secrets/ or the environment.
func loadConfig() (types.CorpusConfig, error) {
	setDefaults(types.DefaultCorpusConfig())

	var cfg types.CorpusConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	cfg.Credentials = secrets.Credentials(loadedSecrets, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
