// Package provider defines the metadata enrichment contract shared by the
// TMDB and OMDb lookups, and the priority chain that merges their results.
package provider

import (
	"context"
	"errors"
)

// Metadata is what an enricher knows about a movie, show or episode.
type Metadata struct {
	Title        string  `json:"title,omitempty"`
	Year         string  `json:"year,omitempty"`
	Plot         string  `json:"plot,omitempty"`
	AirDate      string  `json:"air_date,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	TMDBID       string  `json:"tmdb_id,omitempty"`
	IMDBID       string  `json:"imdb_id,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
	Source       string  `json:"source,omitempty"`
}

// Request identifies a movie or show. Known ids take precedence over a
// title search.
type Request struct {
	Title  string
	Year   string
	TMDBID string
	IMDBID string
}

// EpisodeRequest identifies one episode of a show.
type EpisodeRequest struct {
	Show    Request
	Season  int
	Episode int
}

// Enricher looks up metadata for library items.
type Enricher interface {
	Movie(ctx context.Context, req Request) (*Metadata, error)
	Show(ctx context.Context, req Request) (*Metadata, error)
	Episode(ctx context.Context, req EpisodeRequest) (*Metadata, error)
}

// Error codes carried by ProviderError.
const (
	CodeAuthFailed     = "AUTH_FAILED"
	CodeNotFound       = "NOT_FOUND"
	CodeRateLimited    = "RATE_LIMITED"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeUnknown        = "UNKNOWN"
)

// ProviderError represents an error from a provider
type ProviderError struct {
	Provider   string
	Code       string
	Message    string
	Retry      bool
	RetryAfter int // Seconds to wait before retry
}

func (e *ProviderError) Error() string {
	return e.Message
}

// IsNotFound reports whether err is a NOT_FOUND ProviderError.
func IsNotFound(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr) && perr.Code == CodeNotFound
}

// Merge fills the empty fields of dst from src and records src's source.
// It returns dst, or a copy of src when dst is nil.
func Merge(dst, src *Metadata) *Metadata {
	if src == nil {
		return dst
	}
	if dst == nil {
		m := *src
		return &m
	}

	filled := false
	fill := func(d *string, s string) {
		if *d == "" && s != "" {
			*d = s
			filled = true
		}
	}
	fill(&dst.Title, src.Title)
	fill(&dst.Year, src.Year)
	fill(&dst.Plot, src.Plot)
	fill(&dst.AirDate, src.AirDate)
	fill(&dst.TMDBID, src.TMDBID)
	fill(&dst.IMDBID, src.IMDBID)
	fill(&dst.PosterPath, src.PosterPath)
	fill(&dst.BackdropPath, src.BackdropPath)
	if dst.Rating == 0 && src.Rating != 0 {
		dst.Rating = src.Rating
		filled = true
	}

	if filled && src.Source != "" {
		if dst.Source == "" {
			dst.Source = src.Source
		} else {
			dst.Source += "+" + src.Source
		}
	}
	return dst
}

// Complete reports whether every descriptive field is already known, so
// lower-priority providers have nothing to add.
func (m *Metadata) Complete() bool {
	return m != nil && m.Title != "" && m.Year != "" && m.Plot != "" && m.Rating != 0 && m.IMDBID != ""
}
