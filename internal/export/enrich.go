package export

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Digital-Shane/vod2strm/internal/library"
	"github.com/Digital-Shane/vod2strm/internal/media"
	"github.com/Digital-Shane/vod2strm/internal/nfo"
	"github.com/Digital-Shane/vod2strm/internal/provider"
	"github.com/Digital-Shane/vod2strm/internal/provider/tmdb"
)

const (
	movieNFO  = "movie.nfo"
	showNFO   = "tvshow.nfo"
	posterJPG = "poster.jpg"
	fanartJPG = "fanart.jpg"
)

func yearString(year int) string {
	if year <= 0 {
		return ""
	}
	return strconv.Itoa(year)
}

// needed reports whether a sidecar has to be produced. An existing file that
// may not be overwritten is kept as is.
func (e *Exporter) needed(rec *library.Reconciler, path string) bool {
	if e.cfg.OverwriteNFO {
		return true
	}
	return !rec.Keep(path)
}

func (e *Exporter) lookup(kind, title string, fn func() (*provider.Metadata, error)) *provider.Metadata {
	if e.enricher == nil {
		return nil
	}
	meta, err := fn()
	if err != nil {
		if provider.IsNotFound(err) {
			e.logger.Debug("no metadata found", "kind", kind, "title", title)
		} else {
			e.logger.Warn("metadata lookup failed", "kind", kind, "title", title, "error", err)
		}
		return nil
	}
	return meta
}

func (e *Exporter) writeNFO(rec *library.Reconciler, path string, doc any) {
	data, err := nfo.Marshal(doc)
	if err != nil {
		e.logger.Warn("failed to render nfo", "path", path, "error", err)
		return
	}
	if _, err := rec.WriteArtifact(path, data, e.cfg.OverwriteNFO); err != nil {
		e.logger.Warn("failed to write nfo", "path", path, "error", err)
	}
}

func (e *Exporter) enrichMovie(ctx context.Context, rec *library.Reconciler, dir, title string, m media.Movie) {
	year := yearString(int(m.Year))
	path := filepath.Join(dir, movieNFO)
	nfoNeeded := e.needed(rec, path)
	var meta *provider.Metadata
	if nfoNeeded || e.artworkMissing(rec, dir) {
		meta = e.lookup(KindMovies, title, func() (*provider.Metadata, error) {
			return e.enricher.Movie(ctx, provider.Request{
				Title:  title,
				Year:   year,
				TMDBID: strings.TrimSpace(string(m.TMDBID)),
				IMDBID: strings.TrimSpace(m.IMDBID),
			})
		})
		if nfoNeeded {
			e.writeNFO(rec, path, nfo.NewMovie(title, year, meta))
		}
	}
	e.artwork(ctx, rec, dir, meta)
}

func (e *Exporter) enrichShow(ctx context.Context, rec *library.Reconciler, dir, title string, s media.Series, written []library.WrittenEpisode) {
	year := yearString(int(s.Year))
	req := provider.Request{
		Title:  title,
		Year:   year,
		TMDBID: strings.TrimSpace(string(s.TMDBID)),
		IMDBID: strings.TrimSpace(s.IMDBID),
	}
	meta := e.lookup(KindSeries, title, func() (*provider.Metadata, error) {
		return e.enricher.Show(ctx, req)
	})
	if meta != nil {
		// Episode lookups reuse the ids the show resolved to.
		if req.TMDBID == "" {
			req.TMDBID = meta.TMDBID
		}
		if req.IMDBID == "" {
			req.IMDBID = meta.IMDBID
		}
	}

	if path := filepath.Join(dir, showNFO); e.needed(rec, path) {
		e.writeNFO(rec, path, nfo.NewTVShow(title, year, meta))
	}
	e.artwork(ctx, rec, dir, meta)

	for _, w := range written {
		if ctx.Err() != nil {
			return
		}
		path := strings.TrimSuffix(w.Path, library.StrmExt) + ".nfo"
		if !e.needed(rec, path) {
			continue
		}
		ep := w.Episode
		var epMeta *provider.Metadata
		if meta != nil {
			epMeta = e.lookup("episode", title, func() (*provider.Metadata, error) {
				return e.enricher.Episode(ctx, provider.EpisodeRequest{Show: req, Season: ep.Season, Episode: ep.Number})
			})
		}
		e.writeNFO(rec, path, nfo.NewEpisode(title, ep.Season, ep.Number, ep.Title, epMeta))
	}
}

type artworkFile struct {
	name string
	size string
	path func(*provider.Metadata) string
}

var artworkFiles = []artworkFile{
	{name: posterJPG, size: tmdb.PosterSize, path: func(m *provider.Metadata) string { return m.PosterPath }},
	{name: fanartJPG, size: tmdb.BackdropSize, path: func(m *provider.Metadata) string { return m.BackdropPath }},
}

// artworkMissing reports whether any artwork file still has to be fetched.
func (e *Exporter) artworkMissing(rec *library.Reconciler, dir string) bool {
	if !e.cfg.EnableArtwork || e.images == nil {
		return false
	}
	missing := false
	for _, a := range artworkFiles {
		if !rec.Keep(filepath.Join(dir, a.name)) {
			missing = true
		}
	}
	return missing
}

// artwork copies poster and fanart from the image cache into dir. Existing
// files are kept.
func (e *Exporter) artwork(ctx context.Context, rec *library.Reconciler, dir string, meta *provider.Metadata) {
	if !e.cfg.EnableArtwork || e.images == nil {
		return
	}
	for _, a := range artworkFiles {
		dst := filepath.Join(dir, a.name)
		if rec.Keep(dst) || meta == nil {
			continue
		}
		remote := a.path(meta)
		if remote == "" {
			continue
		}
		local, err := e.images.Image(ctx, a.size, remote)
		if err != nil {
			e.logger.Warn("failed to fetch artwork", "path", remote, "error", err)
			continue
		}
		if local == "" {
			continue
		}
		if _, err := rec.CopyArtifact(local, dst, false); err != nil {
			e.logger.Warn("failed to write artwork", "path", dst, "error", err)
		}
	}
}
