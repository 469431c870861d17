package cmd

import (
	"github.com/spf13/cobra"

	"github.com/paidsearchlab/searchintent/internal/cache"
	"github.com/paidsearchlab/searchintent/internal/server"
)

func newServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the classifier HTTP API",
		Long: `Serves cache inspection, manual overrides, account cache rebuilds, and
rule-only classification over HTTP, plus prometheus metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			store, err := cache.Open(cfg.Cache.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			if port == 0 {
				port = cfg.Server.Port
			}
			return server.Run(port, store, log)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")
	return cmd
}
