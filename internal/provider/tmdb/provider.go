// Package tmdb enriches movies, shows and episodes from The Movie Database.
// Every detail response and downloaded image is cached on disk indefinitely.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Digital-Shane/vod2strm/internal/provider"
	"github.com/patrickmn/go-cache"
	"github.com/ryanbradynd05/go-tmdb"
)

const (
	providerName = "tmdb"

	// DefaultImageBase serves poster, backdrop and still images.
	DefaultImageBase = "https://image.tmdb.org/t/p/"
)

// TMDBClient interface for testing (matches *tmdb.TMDb exactly)
type TMDBClient interface {
	SearchMovie(name string, options map[string]string) (*tmdb.MovieSearchResults, error)
	SearchTv(name string, options map[string]string) (*tmdb.TvSearchResults, error)
	GetMovieInfo(id int, options map[string]string) (*tmdb.Movie, error)
	GetTvInfo(id int, options map[string]string) (*tmdb.TV, error)
	GetTvEpisodeInfo(showID, seasonNum, episodeNum int, options map[string]string) (*tmdb.TvEpisode, error)
}

// Options configures a Provider.
type Options struct {
	APIKey   string
	Language string
	// CacheDir holds json/ and images/ subdirectories.
	CacheDir   string
	Throttle   time.Duration
	DryRun     bool
	HTTPClient *http.Client
	ImageBase  string
	Logger     *slog.Logger
}

// Provider implements provider.Enricher for TMDB
type Provider struct {
	client      TMDBClient
	memo        *cache.Cache
	dir         string
	language    string
	dryRun      bool
	http        *http.Client
	imageBase   string
	rateLimiter *rateLimiter
	logger      *slog.Logger
}

// New creates a provider backed by the live TMDB API.
func New(opts Options) (*Provider, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("tmdb: api key is required")
	}
	client := tmdb.Init(tmdb.Config{
		APIKey:   apiKey,
		Proxies:  nil,
		UseProxy: false,
	})
	return NewWithClient(client, opts), nil
}

// NewWithClient creates a provider around an existing client.
func NewWithClient(client TMDBClient, opts Options) *Provider {
	if opts.Language == "" {
		opts.Language = "en-US"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.ImageBase == "" {
		opts.ImageBase = DefaultImageBase
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Provider{
		client:      client,
		memo:        cache.New(time.Hour, 10*time.Minute),
		dir:         opts.CacheDir,
		language:    opts.Language,
		dryRun:      opts.DryRun,
		http:        opts.HTTPClient,
		imageBase:   strings.TrimRight(opts.ImageBase, "/") + "/",
		rateLimiter: newRateLimiter(opts.Throttle),
		logger:      opts.Logger.With("component", providerName),
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return providerName
}

// cached resolves kind/key from the in-memory memo, then the disk cache, then
// fetch. Successful fetches are written to both caches.
func cached[T any](ctx context.Context, p *Provider, kind, key string, fetch func() (*T, error)) (*T, error) {
	memoKey := kind + "/" + key
	if v, ok := p.memo.Get(memoKey); ok {
		if t, ok := v.(*T); ok {
			return t, nil
		}
	}

	path := p.jsonPath(kind, key)
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			var t T
			if err := json.Unmarshal(data, &t); err == nil {
				p.memo.Set(memoKey, &t, cache.DefaultExpiration)
				return &t, nil
			}
			p.logger.Warn("ignoring unreadable cache entry", "path", path)
		}
	}

	if err := p.rateLimiter.wait(ctx); err != nil {
		return nil, err
	}
	t, err := fetch()
	if err != nil {
		return nil, p.mapError(err)
	}
	if t == nil {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeNotFound,
			Message:  fmt.Sprintf("%s %s not found", kind, key),
		}
	}

	p.memo.Set(memoKey, t, cache.DefaultExpiration)
	if path != "" && !p.dryRun {
		if err := writeJSON(path, t); err != nil {
			p.logger.Warn("failed to write cache entry", "path", path, "error", err)
		}
	}
	return t, nil
}

func (p *Provider) jsonPath(kind, key string) string {
	if p.dir == "" {
		return ""
	}
	return filepath.Join(p.dir, "json", kind, key+".json")
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// mapError maps TMDB errors to provider errors
func (p *Provider) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "401") || strings.Contains(errStr, "unauthorized") {
		return &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeAuthFailed,
			Message:  "TMDB authentication failed: " + err.Error(),
			Retry:    false,
		}
	}
	if strings.Contains(errStr, "404") || strings.Contains(errStr, "could not be found") {
		return &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeNotFound,
			Message:  "TMDB resource not found",
			Retry:    false,
		}
	}
	if strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit") {
		return &provider.ProviderError{
			Provider:   providerName,
			Code:       provider.CodeRateLimited,
			Message:    "TMDB rate limit exceeded",
			Retry:      true,
			RetryAfter: 10,
		}
	}

	return &provider.ProviderError{
		Provider: providerName,
		Code:     provider.CodeUnknown,
		Message:  "TMDB error: " + err.Error(),
		Retry:    false,
	}
}
