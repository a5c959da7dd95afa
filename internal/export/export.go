// Package export turns one account's catalogue into its .strm/.nfo trees.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path"
	"strings"

	"github.com/Digital-Shane/vod2strm/internal/cache"
	"github.com/Digital-Shane/vod2strm/internal/config"
	"github.com/Digital-Shane/vod2strm/internal/library"
	"github.com/Digital-Shane/vod2strm/internal/media"
	"github.com/Digital-Shane/vod2strm/internal/provider"
	"github.com/Digital-Shane/vod2strm/internal/series"
)

// Catalogue kinds, also used as list cache names.
const (
	KindMovies = "movies"
	KindSeries = "series"
)

// Lister returns the raw catalogue lists of the primary service.
type Lister interface {
	MovieItems(ctx context.Context, accountID int, limit int) ([]json.RawMessage, error)
	SeriesItems(ctx context.Context, accountID int, limit int) ([]json.RawMessage, error)
}

// SeriesResolver produces the canonical episode structure for a series.
type SeriesResolver interface {
	Resolve(ctx context.Context, account media.Account, s media.Series) (series.Result, error)
}

// Images returns a local copy of a remote artwork path. An empty path with a
// nil error means the image is not available locally.
type Images interface {
	Image(ctx context.Context, size, imagePath string) (string, error)
}

// Options wires an Exporter. Enricher and Images are optional.
type Options struct {
	Config   *config.Config
	Lister   Lister
	Store    *cache.Store
	Resolver SeriesResolver
	Enricher provider.Enricher
	Images   Images
	URLs     library.URLBuilder
	Writer   *library.Writer
	// Fatal reports errors that must stop the run instead of degrading.
	Fatal  func(error) bool
	Logger *slog.Logger
}

// Exporter runs the movie and series phases for accounts.
type Exporter struct {
	cfg      *config.Config
	lister   Lister
	store    *cache.Store
	resolver SeriesResolver
	enricher provider.Enricher
	images   Images
	urls     library.URLBuilder
	writer   *library.Writer
	fatal    func(error) bool
	logger   *slog.Logger
}

// New creates an Exporter.
func New(opts Options) *Exporter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fatal := opts.Fatal
	if fatal == nil {
		fatal = func(error) bool { return false }
	}
	return &Exporter{
		cfg:      opts.Config,
		lister:   opts.Lister,
		store:    opts.Store,
		resolver: opts.Resolver,
		enricher: opts.Enricher,
		images:   opts.Images,
		urls:     opts.URLs,
		writer:   opts.Writer,
		fatal:    fatal,
		logger:   logger,
	}
}

// AccountSummary holds the phase summaries of one account. A phase that was
// disabled is nil.
type AccountSummary struct {
	Account string
	Movies  *Summary
	Series  *Summary
}

// Account exports every enabled phase for account. Only fatal errors are
// returned; everything else is logged and counted.
func (e *Exporter) Account(ctx context.Context, account media.Account) (AccountSummary, error) {
	logger := e.logger.With("account", account.Name)
	out := AccountSummary{Account: account.Name}

	if e.cfg.ExportMovies {
		sum, err := e.Movies(ctx, account)
		if err != nil {
			return out, err
		}
		out.Movies = &sum
	} else {
		logger.Info("movie export disabled")
	}

	if e.cfg.ExportSeries {
		sum, err := e.Series(ctx, account)
		if err != nil {
			return out, err
		}
		out.Series = &sum
	} else {
		logger.Info("series export disabled")
	}
	return out, nil
}

// list fetches a catalogue list and caches it. When the fetch fails for a
// non-fatal reason the last cached list is used instead. ok is false when no
// list is available at all.
func (e *Exporter) list(ctx context.Context, account media.Account, kind string) (items []json.RawMessage, ok bool, err error) {
	logger := e.logger.With("account", account.Name, "kind", kind)

	var fetch func(context.Context, int, int) ([]json.RawMessage, error)
	limit := e.cfg.LimitMovies
	switch kind {
	case KindMovies:
		fetch = e.lister.MovieItems
	default:
		fetch = e.lister.SeriesItems
		limit = e.cfg.LimitSeries
	}

	items, err = fetch(ctx, int(account.ID), limit)
	if err == nil {
		logger.Info("fetched catalogue", "items", len(items), "limit", limit)
		if err := e.store.SaveList(account, kind, items); err != nil {
			logger.Warn("failed to cache catalogue", "error", err)
		}
		return items, true, nil
	}
	if e.fatal(err) || ctx.Err() != nil {
		return nil, false, err
	}

	logger.Warn("catalogue fetch failed, trying cached list", "error", err)
	cached, cacheErr := e.store.LoadList(account, kind)
	if cacheErr != nil {
		logger.Warn("no cached catalogue available", "error", cacheErr)
		return nil, false, nil
	}
	logger.Info("using cached catalogue", "items", len(cached))
	return cached, true, nil
}

// cleanup removes stale files below the reconciler's root when enabled.
func (e *Exporter) cleanup(rec *library.Reconciler, logger *slog.Logger) {
	if !e.cfg.DeleteOld {
		return
	}
	removed, err := rec.Cleanup()
	if err != nil {
		logger.Warn("cleanup finished with errors", "removed", removed, "error", err)
		return
	}
	logger.Info("cleanup finished", "root", rec.Root(), "removed", removed)
}

// SelectAccounts keeps the accounts whose names match any of the glob
// patterns. Zero accounts or zero matches is an error.
func SelectAccounts(accounts []media.Account, patterns []string) ([]media.Account, error) {
	if len(accounts) == 0 {
		return nil, errors.New("no accounts returned by the proxy service")
	}
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}

	var out []media.Account
	for _, a := range accounts {
		if matchAny(a.Name, patterns) {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no accounts match " + strings.Join(patterns, ","))
	}
	return out, nil
}

func matchAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if p == "*" {
			return true
		}
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
