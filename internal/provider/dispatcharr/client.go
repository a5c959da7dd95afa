package dispatcharr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Digital-Shane/vod2strm/internal/media"
)

// Client performs authenticated GETs against the primary service.
type Client struct {
	session   *Session
	http      *http.Client
	baseURL   string
	userAgent string
	pageSize  int
	logger    *slog.Logger
}

// NewClient creates a client that authenticates through session.
func NewClient(session *Session, opts Options) *Client {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		session:   session,
		http:      opts.httpClient(),
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		pageSize:  pageSize,
		logger:    logger,
	}
}

// Get fetches path with query and returns the body. A 401 triggers exactly
// one Refresh and retry; a second 401 yields ErrUnauthorized.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	status, body, err := c.do(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		c.logger.Warn("token rejected, re-authenticating", "url", endpoint)
		if err := c.session.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("re-authenticate: %w", err)
		}
		status, body, err = c.do(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			return nil, fmt.Errorf("GET %s: %w", endpoint, ErrUnauthorized)
		}
	}
	if status < 200 || status >= 300 {
		return nil, &StatusError{StatusCode: status, URL: endpoint, Body: snippet(body)}
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s: %w", endpoint, err)
	}
	return resp.StatusCode, body, nil
}

// Accounts lists the provider accounts configured in the service.
func (c *Client) Accounts(ctx context.Context) ([]media.Account, error) {
	body, err := c.Get(ctx, "/api/m3u/accounts/", nil)
	if err != nil {
		return nil, err
	}
	p, err := decodePage(body)
	if err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	accounts := make([]media.Account, 0, len(p.items))
	for _, raw := range p.items {
		var a media.Account
		if err := json.Unmarshal(raw, &a); err != nil || a.ID <= 0 {
			continue
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// MovieItems returns the raw movie list for an account, at most limit items
// when limit is positive.
func (c *Client) MovieItems(ctx context.Context, accountID int, limit int) ([]json.RawMessage, error) {
	return c.Paginate(ctx, "/api/vod/movies/", accountQuery(accountID), limit)
}

// SeriesItems returns the raw series list for an account.
func (c *Client) SeriesItems(ctx context.Context, accountID int, limit int) ([]json.RawMessage, error) {
	return c.Paginate(ctx, "/api/vod/series/", accountQuery(accountID), limit)
}

// ProviderInfo returns the raw provider-info document for a series,
// including episodes.
func (c *Client) ProviderInfo(ctx context.Context, seriesID int) ([]byte, error) {
	path := "/api/vod/series/" + strconv.Itoa(seriesID) + "/provider-info/"
	return c.Get(ctx, path, url.Values{"include_episodes": {"true"}})
}

func accountQuery(accountID int) url.Values {
	return url.Values{"m3u_account": {strconv.Itoa(accountID)}}
}

// DecodeMovies converts raw list items, dropping items without an id.
func DecodeMovies(items []json.RawMessage) []media.Movie {
	out := make([]media.Movie, 0, len(items))
	for _, raw := range items {
		var m media.Movie
		if err := json.Unmarshal(raw, &m); err != nil || m.ID <= 0 {
			continue
		}
		out = append(out, m)
	}
	return out
}

// DecodeSeries converts raw list items, dropping items without an id.
func DecodeSeries(items []json.RawMessage) []media.Series {
	out := make([]media.Series, 0, len(items))
	for _, raw := range items {
		var s media.Series
		if err := json.Unmarshal(raw, &s); err != nil || s.ID <= 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}
