package cmd

import (
	"fmt"

	"github.com/Digital-Shane/vod2strm/internal/cache"
	"github.com/Digital-Shane/vod2strm/internal/log"
	"github.com/Digital-Shane/vod2strm/internal/media"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached catalogue, provider-info and TMDB data",
}

var cacheAccounts []string

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached data for some accounts, or everything",
	Long: `Remove cached data. With --account only the named accounts' catalogue
lists and provider-info documents are removed. Without it the whole cache,
including TMDB responses and images, is cleared. Journals are kept.`,
	Args: cobra.NoArgs,
	RunE: runCacheClear,
}

func init() {
	cacheClearCmd.Flags().StringSliceVar(&cacheAccounts, "account", nil, "Account name to clear (repeatable)")
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	store := cache.New(cfg.CacheDir, cfg.DryRun, log.NewComponentLogger(logger, "cache"), cacheKeep...)
	if len(cacheAccounts) == 0 {
		if err := store.ClearAll(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		logger.Info("cache cleared", "path", store.Dir())
		return nil
	}

	accounts := make([]media.Account, 0, len(cacheAccounts))
	for _, name := range cacheAccounts {
		accounts = append(accounts, media.Account{Name: name})
	}
	clearAccounts(store, accounts, logger)
	return nil
}
