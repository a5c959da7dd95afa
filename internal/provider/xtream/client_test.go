package xtream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/Digital-Shane/vod2strm/internal/media"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

var account = media.Account{ID: 1, Name: "A", ServerURL: "upstream.example:8080/", Username: "user", Password: "p&ss"}

func TestSeriesInfo(t *testing.T) {
	t.Parallel()
	var gotURL string
	client := NewClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		return response(http.StatusOK, `{"info":{"name":"Dark"},"episodes":{"1":[{"episode_num":1}]}}`), nil
	})}, "VOD2strm/1.0")

	info, err := client.SeriesInfo(context.Background(), account, "9001")
	if err != nil {
		t.Fatalf("SeriesInfo() error = %v", err)
	}
	if _, ok := info["episodes"]; !ok {
		t.Errorf("episodes missing from %v", info)
	}
	want := "http://upstream.example:8080/player_api.php?action=get_series_info&password=p%26ss&series_id=9001&username=user"
	if gotURL != want {
		t.Errorf("url = %q, want %q", gotURL, want)
	}
}

func TestSeriesInfoUnusableResponses(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		status int
		body   string
	}{
		"html error page": {status: http.StatusOK, body: "<html>oops</html>"},
		"json array":      {status: http.StatusOK, body: `[]`},
		"json null":       {status: http.StatusOK, body: `null`},
		"server error":    {status: http.StatusInternalServerError, body: `{}`},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			client := NewClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
				return response(tc.status, tc.body), nil
			})}, "")
			_, err := client.SeriesInfo(context.Background(), account, "1")
			var respErr *ResponseError
			if !errors.As(err, &respErr) {
				t.Fatalf("SeriesInfo() error = %v, want ResponseError", err)
			}
		})
	}
}

func TestSeriesInfoMissingServer(t *testing.T) {
	t.Parallel()
	client := NewClient(nil, "")
	if _, err := client.SeriesInfo(context.Background(), media.Account{Username: "u", Password: "p"}, "1"); err == nil {
		t.Error("expected error for account without server url")
	}
}
