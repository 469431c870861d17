// Package cmd implements the searchintent command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/paidsearchlab/searchintent/internal/config"
	"github.com/paidsearchlab/searchintent/internal/logger"
)

var (
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:   "searchintent",
		Short: "Search term intent classification for Google Ads accounts",
		Long: `searchintent assigns an intent category to every distinct search
term in a Google Ads account, using cheap deterministic rules first and
cost-gated LLM calls only for the highest-traffic unresolved terms.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	_ = godotenv.Load()
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newClassifyCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newCacheCommand())
}

// loadConfig loads configuration and builds the logger shared by all
// subcommands.
func loadConfig() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logCfg := cfg.Logging
	if debug {
		logCfg.Level = "debug"
		logCfg.Development = true
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
