package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Digital-Shane/vod2strm/internal/cache"
	"github.com/Digital-Shane/vod2strm/internal/config"
	"github.com/Digital-Shane/vod2strm/internal/export"
	"github.com/Digital-Shane/vod2strm/internal/library"
	"github.com/Digital-Shane/vod2strm/internal/log"
	"github.com/Digital-Shane/vod2strm/internal/media"
	"github.com/Digital-Shane/vod2strm/internal/provider"
	"github.com/Digital-Shane/vod2strm/internal/provider/dispatcharr"
	"github.com/Digital-Shane/vod2strm/internal/provider/omdb"
	"github.com/Digital-Shane/vod2strm/internal/provider/tmdb"
	"github.com/Digital-Shane/vod2strm/internal/provider/xtream"
	"github.com/Digital-Shane/vod2strm/internal/series"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export VOD for every matching account (default command)",
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

// cacheKeep lists cache-root entries that are not cached data.
var cacheKeep = []string{"journal", "vod2strm.lock"}

func isFatal(err error) bool {
	return errors.Is(err, dispatcharr.ErrUnauthorized)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	lock, err := acquireLock(cfg.LockPath())
	if err != nil {
		return err
	}
	defer lock.Unlock()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	journal := log.NewJournal(cfg.JournalDir(), cfg.EnableJournal)
	journal.Start("export", args, cfg.DryRun)
	defer func() {
		path, err := journal.End()
		switch {
		case err != nil:
			logger.Warn("failed to write operation journal", "error", err)
		case path != "":
			logger.Info("operation journal written", "path", path)
		}
		if n, err := journal.Cleanup(cfg.JournalRetentionDays); err != nil {
			logger.Warn("journal cleanup failed", "error", err)
		} else if n > 0 {
			logger.Debug("pruned old journals", "count", n)
		}
	}()

	return exportAccounts(ctx, cfg, journal, logger)
}

// acquireLock takes the single-run lock without waiting.
func acquireLock(path string) (*flock.Flock, error) {
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another export is running (lock held on %s)", path)
	}
	return lock, nil
}

func exportAccounts(ctx context.Context, cfg *config.Config, journal *log.Journal, logger *slog.Logger) error {
	start := time.Now()
	logger.Info("export started", "base_url", cfg.BaseURL, "dry_run", cfg.DryRun)
	if cfg.DryRun {
		logger.Info("dry run: no files, directories or caches will be written or deleted")
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	opts := dispatcharr.Options{
		BaseURL:    cfg.BaseURL,
		Username:   cfg.Username,
		Password:   cfg.Password,
		UserAgent:  cfg.UserAgent,
		PageSize:   cfg.PageSize,
		HTTPClient: httpClient,
		Logger:     log.NewComponentLogger(logger, "dispatcharr"),
	}
	session := dispatcharr.NewSession(opts)
	if err := session.Login(ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	client := dispatcharr.NewClient(session, opts)

	all, err := client.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	accounts, err := export.SelectAccounts(all, cfg.AccountNames)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		logger.Info("selected account", "account", a.Name, "id", int(a.ID), "fallback_credentials", a.HasXtreamCredentials())
	}

	store := cache.New(cfg.CacheDir, cfg.DryRun, log.NewComponentLogger(logger, "cache"), cacheKeep...)
	if cfg.ClearCache {
		clearAccounts(store, accounts, logger)
	}

	urls, err := library.NewURLBuilder(cfg.BaseURL)
	if err != nil {
		return err
	}

	var secondary series.SecondarySource
	if cfg.Fallback {
		secondary = xtream.NewClient(httpClient, cfg.UserAgent)
	}
	resolver := series.NewResolver(store.ProviderInfo(client, isFatal), secondary, cfg.Fallback,
		log.NewComponentLogger(logger, "resolver"))

	enricher, images, err := enrichment(cfg, httpClient, logger)
	if err != nil {
		return err
	}

	exp := export.New(export.Options{
		Config:   cfg,
		Lister:   client,
		Store:    store,
		Resolver: resolver,
		Enricher: enricher,
		Images:   images,
		URLs:     urls,
		Writer:   library.NewWriter(cfg.DryRun, journal, log.NewComponentLogger(logger, "writer")),
		Fatal:    isFatal,
		Logger:   log.NewComponentLogger(logger, "export"),
	})

	var movies, shows export.Summary
	for _, a := range accounts {
		journal.AddAccount(a.Name)
		sum, err := exp.Account(ctx, a)
		if err != nil {
			return fmt.Errorf("account %s: %w", a.Name, err)
		}
		if sum.Movies != nil {
			movies.Add(*sum.Movies)
		}
		if sum.Series != nil {
			shows.Add(*sum.Series)
		}
	}

	movies.Kind, shows.Kind = export.KindMovies, export.KindSeries
	logger.Info("movie totals", movies.Attrs()...)
	logger.Info("series totals", shows.Attrs()...)
	logger.Info("export finished", "accounts", len(accounts), "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// enrichment builds the metadata chain from the configured API keys. Both
// return values are nil when NFOs are disabled or no provider is configured.
func enrichment(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (provider.Enricher, export.Images, error) {
	if !cfg.EnableNFO {
		return nil, nil, nil
	}

	chain := provider.NewChain()
	var images export.Images
	if cfg.TMDBAPIKey != "" {
		tp, err := tmdb.New(tmdb.Options{
			APIKey:     cfg.TMDBAPIKey,
			Language:   cfg.NFOLanguage,
			CacheDir:   filepath.Join(cfg.CacheDir, "tmdb"),
			Throttle:   cfg.TMDBThrottle,
			DryRun:     cfg.DryRun,
			HTTPClient: httpClient,
			Logger:     logger,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := chain.Register(tp.Name(), tp, 100); err != nil {
			return nil, nil, err
		}
		images = tp
	}
	if cfg.OMDBAPIKey != "" {
		op, err := omdb.New(cfg.OMDBAPIKey, httpClient)
		if err != nil {
			return nil, nil, err
		}
		if err := chain.Register(op.Name(), op, 50); err != nil {
			return nil, nil, err
		}
	}

	if chain.Len() == 0 {
		logger.Info("no metadata provider configured, NFOs carry catalogue data only")
		return nil, nil, nil
	}
	logger.Info("metadata providers configured", "providers", chain.List())
	return chain, images, nil
}

func clearAccounts(store *cache.Store, accounts []media.Account, logger *slog.Logger) {
	for _, a := range accounts {
		if err := store.ClearAccount(a); err != nil {
			logger.Warn("failed to clear account cache", "account", a.Name, "error", err)
		}
	}
}
