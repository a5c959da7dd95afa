// Package library lays out and reconciles the .strm/.nfo output tree.
package library

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/Digital-Shane/vod2strm/internal/media"
)

// separators are trimmed from both ends of generated names.
const separators = " -._"

// SeasonDir returns the directory name for a season, e.g. "Season 01".
func SeasonDir(season int) string {
	return fmt.Sprintf("Season %02d", season)
}

// EpisodeStem returns the file name stem for an episode, e.g.
// "S01E02 - Pilot". Colliding stems are not disambiguated.
func EpisodeStem(season, episode int, title string) string {
	stem := fmt.Sprintf("S%02dE%02d - %s", season, episode, title)
	return media.FSSafe(strings.Trim(stem, separators))
}

// ItemFolder returns the folder name for a movie or show, e.g. "Dark (2017)".
func ItemFolder(title string, year int) string {
	return media.FSSafe(media.Label(title, year))
}

// CategoryDir returns the legacy category directory for a genre list, using
// its first entry. It is empty when the genre is unknown.
func CategoryDir(genre string) string {
	first, _, _ := strings.Cut(genre, ",")
	first = strings.TrimSpace(first)
	if first == "" {
		return ""
	}
	return media.FSSafe(first)
}

// ItemDir joins root, the optional category level and the item folder.
func ItemDir(root, genre string, categories bool, title string, year int) string {
	if categories {
		if cat := CategoryDir(genre); cat != "" {
			return filepath.Join(root, cat, ItemFolder(title, year))
		}
	}
	return filepath.Join(root, ItemFolder(title, year))
}

// URLBuilder produces proxy playback URLs on the primary service's host.
type URLBuilder struct {
	host string
}

// NewURLBuilder takes the host[:port] of baseURL. A scheme is optional.
func NewURLBuilder(baseURL string) (URLBuilder, error) {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		return URLBuilder{}, errors.New("base url is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return URLBuilder{}, fmt.Errorf("parse base url: %w", err)
	}
	if u.Host == "" {
		return URLBuilder{}, fmt.Errorf("base url %q has no host", baseURL)
	}
	return URLBuilder{host: u.Host}, nil
}

// Movie returns the uuid-addressed movie URL, or false without a uuid.
func (b URLBuilder) Movie(accountID int, uuid string) (string, bool) {
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return "", false
	}
	return fmt.Sprintf("http://%s/proxy/vod/movie/%d/%s/stream.m3u8", b.host, accountID, url.PathEscape(uuid)), true
}

// Episode returns the playback URL for an episode. A series uuid addresses the
// episode by season and number; otherwise the episode's stream id is used.
// It returns false when neither is available.
func (b URLBuilder) Episode(accountID int, seriesUUID string, ep media.Episode) (string, bool) {
	if uuid := strings.TrimSpace(seriesUUID); uuid != "" {
		return fmt.Sprintf("http://%s/proxy/vod/series/%d/%s/season/%d/episode/%d/stream.m3u8",
			b.host, accountID, url.PathEscape(uuid), ep.Season, ep.Number), true
	}
	if id := strings.TrimSpace(ep.StreamID); id != "" {
		return fmt.Sprintf("http://%s/proxy/vod/series-episode/%d/%s/stream.m3u8", b.host, accountID, url.PathEscape(id)), true
	}
	return "", false
}
