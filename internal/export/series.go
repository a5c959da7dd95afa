package export

import (
	"context"

	"github.com/Digital-Shane/vod2strm/internal/library"
	"github.com/Digital-Shane/vod2strm/internal/media"
	"github.com/Digital-Shane/vod2strm/internal/provider/dispatcharr"
)

// Series resolves and writes every series of account, then removes stale
// episode files when cleanup is enabled. A fatal resolver error stops the
// phase before any cleanup.
func (e *Exporter) Series(ctx context.Context, account media.Account) (Summary, error) {
	root := e.cfg.SeriesRoot(media.FSSafe(account.Name))
	logger := e.logger.With("account", account.Name, "kind", KindSeries)
	logger.Info("exporting series", "root", root)

	sum := Summary{Kind: KindSeries}
	items, ok, err := e.list(ctx, account, KindSeries)
	if err != nil {
		return sum, err
	}
	if !ok {
		logger.Warn("no series catalogue, leaving the series tree untouched")
		return sum, nil
	}

	shows := dispatcharr.DecodeSeries(items)
	sum.Items = len(shows)
	rec := library.NewReconciler(root, e.writer, logger)
	prog := newProgress(logger, KindSeries, len(shows))

	for i, s := range shows {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		fallback, empty, err := e.show(ctx, rec, account, s)
		if err != nil {
			return sum, err
		}
		if fallback {
			sum.Fallback++
		}
		if empty {
			sum.Empty++
		}
		prog.step(i + 1)
	}

	e.cleanup(rec, logger)
	sum.Stats = rec.Stats()
	sum.Active = rec.Active()
	logger.Info("series export summary", sum.Attrs()...)
	return sum, nil
}

func (e *Exporter) show(ctx context.Context, rec *library.Reconciler, account media.Account, s media.Series) (fallback, empty bool, err error) {
	logger := e.logger.With("account", account.Name, "series", s.Name)

	title := media.NormalizeTitle(s.Name)
	if title == "" {
		logger.Debug("skipping series without a title", "id", int(s.ID))
		rec.Skip()
		return false, false, nil
	}

	res, err := e.resolver.Resolve(ctx, account, s)
	if err != nil {
		return false, false, err
	}
	if res.Info.EpisodeCount() == 0 {
		logger.Debug("series has no episodes")
		return res.UsedFallback, true, nil
	}

	showDir := library.ItemDir(rec.Root(), s.Genre, e.cfg.CategoryDirs, title, int(s.Year))
	accountID := int(account.ID)
	written := rec.WriteSeries(showDir, res.Info, func(ep media.Episode) (string, bool) {
		return e.urls.Episode(accountID, s.UUID, ep)
	})
	logger.Debug("series written", "episodes", len(written), "fallback", res.UsedFallback)

	if e.cfg.EnableNFO && len(written) > 0 {
		e.enrichShow(ctx, rec, showDir, title, s, written)
	}
	return res.UsedFallback, false, nil
}
