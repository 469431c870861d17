package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/paidsearchlab/searchintent/internal/cache"
	"github.com/paidsearchlab/searchintent/internal/domain"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the classification cache",
	}
	cmd.AddCommand(newCacheStatsCommand())
	cmd.AddCommand(newCacheClearCommand())
	return cmd
}

func newCacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cached term count and category distribution",
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

			ctx := cmd.Context()
			count, err := store.Count(ctx, cfg.Account.ID)
			if err != nil {
				return err
			}
			dist, err := store.Distribution(ctx, cfg.Account.ID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "account %s: %d cached terms\n", cfg.Account.ID, count)
			cats := make([]domain.IntentCategory, 0, len(dist))
			for cat := range dist {
				cats = append(cats, cat)
			}
			sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
			for _, cat := range cats {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %6d\n", cat, dist[cat])
			}
			return nil
		},
	}
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached entry for the configured account",
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

			removed, err := store.DeleteAccount(cmd.Context(), cfg.Account.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached terms for account %s\n", removed, cfg.Account.ID)
			return nil
		},
	}
}
