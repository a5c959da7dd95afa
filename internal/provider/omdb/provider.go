// Package omdb fills gaps in TMDB metadata from the Open Movie Database.
package omdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Digital-Shane/omdb"
	"github.com/Digital-Shane/vod2strm/internal/provider"
)

const providerName = "omdb"

// Provider implements provider.Enricher for OMDb. It supplies no artwork.
type Provider struct {
	client *omdb.Client
}

// New creates a provider. A nil httpClient gets a 10 second timeout.
func New(apiKey string, httpClient *http.Client) (*Provider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("omdb: api key is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{client: omdb.NewClient(apiKey, httpClient)}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

func (p *Provider) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "invalid api key"), strings.Contains(lower, "missing omdb api key"):
		return &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeAuthFailed,
			Message:  "OMDb authentication failed: " + msg,
			Retry:    false,
		}
	case strings.Contains(lower, "not found"):
		return &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeNotFound,
			Message:  msg,
			Retry:    false,
		}
	case strings.Contains(lower, "limit reached"), strings.Contains(lower, "too many requests"):
		return &provider.ProviderError{
			Provider:   providerName,
			Code:       provider.CodeRateLimited,
			Message:    msg,
			Retry:      true,
			RetryAfter: 5,
		}
	default:
		return &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeUnknown,
			Message:  msg,
			Retry:    false,
		}
	}
}

// releaseDate converts OMDb's "17 Apr 2011" into 2011-04-17.
func releaseDate(value string) string {
	t, err := time.Parse("02 Jan 2006", strings.TrimSpace(value))
	if err != nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
