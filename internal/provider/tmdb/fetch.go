package tmdb

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/Digital-Shane/vod2strm/internal/provider"
	"github.com/ryanbradynd05/go-tmdb"
)

// searchHit is the cached outcome of a title search. ID 0 records a miss so
// unknown titles are not searched again on every run.
type searchHit struct {
	ID int `json:"id"`
}

// Movie looks a movie up by TMDB id, or by title and year.
func (p *Provider) Movie(ctx context.Context, req provider.Request) (*provider.Metadata, error) {
	id, err := p.movieID(ctx, req)
	if err != nil {
		return nil, err
	}
	movie, err := cached(ctx, p, "movie", strconv.Itoa(id), func() (*tmdb.Movie, error) {
		return p.client.GetMovieInfo(id, p.options())
	})
	if err != nil {
		return nil, err
	}
	return movieToMetadata(movie), nil
}

// Show looks a show up by TMDB id, or by title and year.
func (p *Provider) Show(ctx context.Context, req provider.Request) (*provider.Metadata, error) {
	id, err := p.showID(ctx, req)
	if err != nil {
		return nil, err
	}
	show, err := cached(ctx, p, "tv", strconv.Itoa(id), func() (*tmdb.TV, error) {
		options := p.options()
		options["append_to_response"] = "external_ids"
		return p.client.GetTvInfo(id, options)
	})
	if err != nil {
		return nil, err
	}
	return tvToMetadata(show), nil
}

// Episode looks up one episode. The show is resolved the same way as Show.
func (p *Provider) Episode(ctx context.Context, req provider.EpisodeRequest) (*provider.Metadata, error) {
	if req.Season <= 0 || req.Episode <= 0 {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeInvalidRequest,
			Message:  "episode lookup requires season and episode numbers",
		}
	}
	showID, err := p.showID(ctx, req.Show)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%d_s%02de%02d", showID, req.Season, req.Episode)
	episode, err := cached(ctx, p, "episode", key, func() (*tmdb.TvEpisode, error) {
		return p.client.GetTvEpisodeInfo(showID, req.Season, req.Episode, p.options())
	})
	if err != nil {
		return nil, err
	}
	return episodeToMetadata(episode), nil
}

func (p *Provider) options() map[string]string {
	return map[string]string{"language": p.language}
}

func (p *Provider) movieID(ctx context.Context, req provider.Request) (int, error) {
	if id := knownID(req.TMDBID); id > 0 {
		return id, nil
	}
	if strings.TrimSpace(req.Title) == "" {
		return 0, invalidRequest("movie lookup requires a title or a TMDB id")
	}
	hit, err := cached(ctx, p, "search/movie", searchKey(req.Title, req.Year), func() (*searchHit, error) {
		options := p.options()
		if req.Year != "" {
			options["year"] = req.Year
		}
		results, err := p.client.SearchMovie(req.Title, options)
		if err != nil {
			return nil, err
		}
		hit := &searchHit{}
		if results != nil {
			for _, r := range results.Results {
				if hit.ID == 0 {
					hit.ID = r.ID
				}
				if req.Year != "" && yearOf(r.ReleaseDate) == req.Year {
					hit.ID = r.ID
					break
				}
			}
		}
		return hit, nil
	})
	if err != nil {
		return 0, err
	}
	if hit.ID == 0 {
		return 0, notFound("no results found for movie: " + req.Title)
	}
	return hit.ID, nil
}

func (p *Provider) showID(ctx context.Context, req provider.Request) (int, error) {
	if id := knownID(req.TMDBID); id > 0 {
		return id, nil
	}
	if strings.TrimSpace(req.Title) == "" {
		return 0, invalidRequest("show lookup requires a title or a TMDB id")
	}
	hit, err := cached(ctx, p, "search/tv", searchKey(req.Title, req.Year), func() (*searchHit, error) {
		options := p.options()
		if req.Year != "" {
			options["first_air_date_year"] = req.Year
		}
		results, err := p.client.SearchTv(req.Title, options)
		if err != nil {
			return nil, err
		}
		hit := &searchHit{}
		if results != nil {
			for _, r := range results.Results {
				if hit.ID == 0 {
					hit.ID = r.ID
				}
				if req.Year != "" && yearOf(r.FirstAirDate) == req.Year {
					hit.ID = r.ID
					break
				}
			}
		}
		return hit, nil
	})
	if err != nil {
		return 0, err
	}
	if hit.ID == 0 {
		return 0, notFound("no results found for show: " + req.Title)
	}
	return hit.ID, nil
}

func knownID(s string) int {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// searchKey folds a title and year into a file-name-safe cache key.
func searchKey(title, year string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	key := strings.TrimRight(b.String(), "-")
	if year != "" {
		key += "_" + year
	}
	return key
}

func yearOf(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return ""
}

func rating(v float32) float64 {
	return math.Round(float64(v)*10) / 10
}

func notFound(msg string) error {
	return &provider.ProviderError{Provider: providerName, Code: provider.CodeNotFound, Message: msg}
}

func invalidRequest(msg string) error {
	return &provider.ProviderError{Provider: providerName, Code: provider.CodeInvalidRequest, Message: msg}
}

// Conversion functions

func movieToMetadata(movie *tmdb.Movie) *provider.Metadata {
	return &provider.Metadata{
		Title:        movie.Title,
		Year:         yearOf(movie.ReleaseDate),
		Plot:         movie.Overview,
		AirDate:      movie.ReleaseDate,
		Rating:       rating(movie.VoteAverage),
		TMDBID:       strconv.Itoa(movie.ID),
		IMDBID:       movie.ImdbID,
		PosterPath:   movie.PosterPath,
		BackdropPath: movie.BackdropPath,
		Source:       providerName,
	}
}

func tvToMetadata(show *tmdb.TV) *provider.Metadata {
	meta := &provider.Metadata{
		Title:        show.Name,
		Year:         yearOf(show.FirstAirDate),
		Plot:         show.Overview,
		AirDate:      show.FirstAirDate,
		Rating:       rating(show.VoteAverage),
		TMDBID:       strconv.Itoa(show.ID),
		PosterPath:   show.PosterPath,
		BackdropPath: show.BackdropPath,
		Source:       providerName,
	}
	if show.ExternalIDs != nil {
		meta.IMDBID = show.ExternalIDs.ImdbID
	}
	return meta
}

func episodeToMetadata(episode *tmdb.TvEpisode) *provider.Metadata {
	meta := &provider.Metadata{
		Title:      episode.Name,
		Year:       yearOf(episode.AirDate),
		Plot:       episode.Overview,
		AirDate:    episode.AirDate,
		Rating:     rating(episode.VoteAverage),
		PosterPath: episode.StillPath,
		Source:     providerName,
	}
	if episode.ID > 0 {
		meta.TMDBID = strconv.Itoa(episode.ID)
	}
	return meta
}
