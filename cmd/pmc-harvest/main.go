// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pmc-harvest CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pmc-harvest/internal/secrets"
	"github.com/pdiddy/pmc-harvest/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "pmc-harvest/0.1"
)

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is the process-wide logger, configured in the root command's
// PersistentPreRunE from the --log-level flag.
var logger zerolog.Logger

// secretDefault returns fallback when set, otherwise the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the pmc-harvest CLI.
var rootCmd = &cobra.Command{
	Use:   "pmc-harvest",
	Short: "Retrieve article metadata and open-access files from PubMed Central",
	Long: `pmc-harvest talks to the NCBI E-utilities and the PMC Open Access Web
Service. It searches PubMed Central for article identifiers in a
publication-date window, fetches structured metadata (title, abstract,
authors, keywords, references) for sets of identifiers, and downloads
open-access full text as {pmcid}.pdf and {pmcid}.nxml files.

Each operation is a subcommand: search, fetch, and download. The harvest
subcommand composes all three into one run.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		levelName, _ := cmd.Flags().GetString("log-level")
		level, err := zerolog.ParseLevel(strings.ToLower(levelName))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", levelName, err)
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(level).
			With().Timestamp().Logger()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug().Int("count", len(s)).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pmc-harvest.yaml or ~/.config/pmc-harvest/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pmc-harvest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pmc-harvest"))
		}
	}

	viper.SetEnvPrefix("PMC_HARVEST")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// httpConfig assembles the shared HTTP settings from flags, config file,
// and loaded secrets.
func httpConfig(cmd *cobra.Command) types.HTTPConfig {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = viper.GetDuration("timeout")
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}

	userAgent := viper.GetString("user_agent")
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return types.HTTPConfig{
		Timeout:   timeout,
		UserAgent: userAgent,
		APIKey:    secretDefault(secrets.NCBIAPIKey, viper.GetString("api_key")),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
