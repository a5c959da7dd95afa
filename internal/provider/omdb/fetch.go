package omdb

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/Digital-Shane/omdb"
	"github.com/Digital-Shane/vod2strm/internal/provider"
)

// Movie looks a movie up by IMDb id, or by title and year.
func (p *Provider) Movie(ctx context.Context, req provider.Request) (*provider.Metadata, error) {
	result, err := p.lookup(ctx, req, "movie")
	if err != nil {
		return nil, err
	}
	switch movie := result.(type) {
	case omdb.MovieResult:
		return movieResultToMetadata(movie), nil
	case *omdb.MovieResult:
		return movieResultToMetadata(*movie), nil
	default:
		return nil, notFound("movie not found")
	}
}

// Show looks a series up by IMDb id, or by title and year.
func (p *Provider) Show(ctx context.Context, req provider.Request) (*provider.Metadata, error) {
	result, err := p.lookup(ctx, req, "series")
	if err != nil {
		return nil, err
	}
	switch series := result.(type) {
	case omdb.SeriesResult:
		return seriesResultToMetadata(series), nil
	case *omdb.SeriesResult:
		return seriesResultToMetadata(*series), nil
	default:
		return nil, notFound("series not found")
	}
}

// Episode looks up one episode of a series identified by IMDb id or title.
func (p *Provider) Episode(ctx context.Context, req provider.EpisodeRequest) (*provider.Metadata, error) {
	if req.Season <= 0 || req.Episode <= 0 {
		return nil, invalidRequest("episode fetch requires valid season and episode numbers")
	}

	title := strings.TrimSpace(req.Show.Title)
	imdbID := strings.TrimSpace(req.Show.IMDBID)
	if imdbID == "" && title == "" {
		return nil, invalidRequest("episode fetch requires a title or an IMDb ID")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := omdb.QueryData{
		Title:   title,
		Year:    req.Show.Year,
		Season:  strconv.Itoa(req.Season),
		Episode: strconv.Itoa(req.Episode),
		Plot:    "full",
	}

	var result any
	var err error
	if imdbID != "" {
		query.ImdbID = imdbID
		result, err = p.client.SearchByImdbID(query)
	} else {
		result, err = p.client.SearchByTitle(query)
	}
	if err != nil {
		return nil, p.mapError(err)
	}

	switch episode := result.(type) {
	case omdb.EpisodeResult:
		return episodeResultToMetadata(&episode), nil
	case *omdb.EpisodeResult:
		return episodeResultToMetadata(episode), nil
	default:
		return nil, notFound("episode not found")
	}
}

// lookup performs a movie or series query, preferring an IMDb id.
func (p *Provider) lookup(ctx context.Context, req provider.Request, searchType string) (any, error) {
	title := strings.TrimSpace(req.Title)
	imdbID := strings.TrimSpace(req.IMDBID)
	if imdbID == "" && title == "" {
		return nil, invalidRequest(searchType + " fetch requires a title or an IMDb ID")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result any
	var err error
	if imdbID != "" {
		result, err = p.client.SearchByImdbID(omdb.QueryData{ImdbID: imdbID, Plot: "full"})
	} else {
		result, err = p.client.SearchByTitle(omdb.QueryData{
			Title:      title,
			Year:       req.Year,
			SearchType: searchType,
			Plot:       "full",
		})
	}
	if err != nil {
		return nil, p.mapError(err)
	}
	return result, nil
}

func notFound(msg string) error {
	return &provider.ProviderError{Provider: providerName, Code: provider.CodeNotFound, Message: msg}
}

func invalidRequest(msg string) error {
	return &provider.ProviderError{Provider: providerName, Code: provider.CodeInvalidRequest, Message: msg}
}

func rating(value string) float64 {
	return math.Round(float64(omdb.ParseRating(value))*10) / 10
}

// plot drops OMDb's "N/A" placeholder.
func plot(s string) string {
	if strings.TrimSpace(s) == "N/A" {
		return ""
	}
	return s
}

func movieResultToMetadata(result omdb.MovieResult) *provider.Metadata {
	return &provider.Metadata{
		Title:  result.Title,
		Year:   omdb.FirstYear(result.Year),
		Plot:   plot(result.Plot),
		Rating: rating(result.ImdbRating),
		IMDBID: result.ImdbID,
		Source: providerName,
	}
}

func seriesResultToMetadata(result omdb.SeriesResult) *provider.Metadata {
	return &provider.Metadata{
		Title:  result.Title,
		Year:   omdb.FirstYear(result.Year),
		Plot:   plot(result.Plot),
		Rating: rating(result.ImdbRating),
		IMDBID: result.ImdbID,
		Source: providerName,
	}
}

func episodeResultToMetadata(resp *omdb.EpisodeResult) *provider.Metadata {
	aired := releaseDate(resp.Released)
	year := ""
	if len(aired) >= 4 {
		year = aired[:4]
	}
	return &provider.Metadata{
		Title:   resp.Title,
		Year:    year,
		Plot:    plot(resp.Plot),
		AirDate: aired,
		Rating:  rating(resp.ImdbRating),
		IMDBID:  resp.ImdbID,
		Source:  providerName,
	}
}
