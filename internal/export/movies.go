package export

import (
	"context"
	"path/filepath"

	"github.com/Digital-Shane/vod2strm/internal/library"
	"github.com/Digital-Shane/vod2strm/internal/media"
	"github.com/Digital-Shane/vod2strm/internal/provider/dispatcharr"
)

// Movies writes "<Title> (<Year>)/<Title> (<Year>).strm" for every movie of
// account and removes stale movie files when cleanup is enabled.
func (e *Exporter) Movies(ctx context.Context, account media.Account) (Summary, error) {
	root := e.cfg.MoviesRoot(media.FSSafe(account.Name))
	logger := e.logger.With("account", account.Name, "kind", KindMovies)
	logger.Info("exporting movies", "root", root)

	sum := Summary{Kind: KindMovies}
	items, ok, err := e.list(ctx, account, KindMovies)
	if err != nil {
		return sum, err
	}
	if !ok {
		logger.Warn("no movie catalogue, leaving the movie tree untouched")
		return sum, nil
	}

	movies := dispatcharr.DecodeMovies(items)
	sum.Items = len(movies)
	rec := library.NewReconciler(root, e.writer, logger)
	prog := newProgress(logger, KindMovies, len(movies))

	for i, m := range movies {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		e.movie(ctx, rec, account, m)
		prog.step(i + 1)
	}

	e.cleanup(rec, logger)
	sum.Stats = rec.Stats()
	sum.Active = rec.Active()
	logger.Info("movie export summary", sum.Attrs()...)
	return sum, nil
}

func (e *Exporter) movie(ctx context.Context, rec *library.Reconciler, account media.Account, m media.Movie) {
	title := media.NormalizeTitle(m.Name)
	if title == "" {
		e.logger.Debug("skipping movie without a title", "id", int(m.ID))
		rec.Skip()
		return
	}
	url, ok := e.urls.Movie(int(account.ID), m.UUID)
	if !ok {
		e.logger.Debug("skipping movie without a uuid", "title", title)
		rec.Skip()
		return
	}

	year := int(m.Year)
	dir := library.ItemDir(rec.Root(), m.Genre, e.cfg.CategoryDirs, title, year)
	strm := filepath.Join(dir, library.ItemFolder(title, year)+library.StrmExt)
	if _, err := rec.WriteStrm(strm, url); err != nil {
		e.logger.Warn("failed to write movie", "path", strm, "error", err)
		return
	}

	if e.cfg.EnableNFO {
		e.enrichMovie(ctx, rec, dir, title, m)
	}
}
