// Package xtream talks to an upstream Xtream Codes style player API, which
// serves series details directly when the proxy service has none.
package xtream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Digital-Shane/vod2strm/internal/media"
)

// ResponseError describes a response that cannot be used as series info.
type ResponseError struct {
	StatusCode int
	Reason     string
}

func (e *ResponseError) Error() string {
	if e.StatusCode != 0 && e.StatusCode != http.StatusOK {
		return fmt.Sprintf("xtream: HTTP %d: %s", e.StatusCode, e.Reason)
	}
	return "xtream: " + e.Reason
}

// Client queries player_api.php for series info.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient returns a client. A nil httpClient gets a 30 second timeout.
func NewClient(httpClient *http.Client, userAgent string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{http: httpClient, userAgent: userAgent}
}

// SeriesInfo calls action=get_series_info for seriesID using the account's
// own upstream credentials. The decoded object is returned as-is.
func (c *Client) SeriesInfo(ctx context.Context, account media.Account, seriesID string) (map[string]any, error) {
	endpoint, err := seriesInfoURL(account, seriesID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get_series_info %s: %w", seriesID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read get_series_info %s: %w", seriesID, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ResponseError{StatusCode: resp.StatusCode, Reason: "unexpected status"}
	}

	var info map[string]any
	if err := json.Unmarshal(body, &info); err != nil || info == nil {
		return nil, &ResponseError{StatusCode: resp.StatusCode, Reason: "response is not a JSON object"}
	}
	return info, nil
}

// seriesInfoURL builds the player_api.php query. The server URL may be given
// with or without a scheme and trailing slash.
func seriesInfoURL(account media.Account, seriesID string) (string, error) {
	server := strings.TrimRight(strings.TrimSpace(account.ServerURL), "/")
	if server == "" {
		return "", &ResponseError{Reason: "account has no server url"}
	}
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	base, err := url.Parse(server + "/player_api.php")
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	base.RawQuery = url.Values{
		"username":  {account.Username},
		"password":  {account.Password},
		"action":    {"get_series_info"},
		"series_id": {seriesID},
	}.Encode()
	return base.String(), nil
}
