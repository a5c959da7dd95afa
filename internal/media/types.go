package media

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Account identifies one upstream provider account configured in the proxy
// service. It is immutable for the duration of a run.
type Account struct {
	ID        FlexInt `json:"id"`
	Name      string  `json:"name"`
	ServerURL string  `json:"server_url"`
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// HasXtreamCredentials reports whether the account carries everything the
// secondary source needs.
func (a Account) HasXtreamCredentials() bool {
	return strings.TrimSpace(a.ServerURL) != "" && a.Username != "" && a.Password != ""
}

// Series is one show entry for an account.
type Series struct {
	ID               FlexInt    `json:"id"`
	Name             string     `json:"name"`
	Year             FlexInt    `json:"year"`
	Genre            string     `json:"genre"`
	Description      string     `json:"description"`
	ExternalSeriesID FlexString `json:"external_series_id"`
	SeriesID         FlexString `json:"series_id"`
	UUID             string     `json:"uuid"`
	TMDBID           FlexString `json:"tmdb_id"`
	IMDBID           string     `json:"imdb_id"`
}

// ExternalID returns the identifier the secondary source knows the series
// by. The proxy's internal id is only used when nothing better exists.
func (s Series) ExternalID() string {
	if id := strings.TrimSpace(string(s.ExternalSeriesID)); id != "" {
		return id
	}
	if id := strings.TrimSpace(string(s.SeriesID)); id != "" {
		return id
	}
	if s.ID > 0 {
		return strconv.Itoa(int(s.ID))
	}
	return ""
}

// Movie is one movie entry for an account.
type Movie struct {
	ID          FlexInt    `json:"id"`
	Name        string     `json:"name"`
	Year        FlexInt    `json:"year"`
	Genre       string     `json:"genre"`
	Description string     `json:"description"`
	UUID        string     `json:"uuid"`
	TMDBID      FlexString `json:"tmdb_id"`
	IMDBID      string     `json:"imdb_id"`
}

// Episode is the canonical episode shape every raw payload converges to.
// Season and Number are always >= 1.
type Episode struct {
	Season             int
	Number             int
	Title              string
	StreamID           string
	ContainerExtension string
	DirectURL          string
	Raw                map[string]any
}

// Season groups episodes sorted ascending by number. A season never has zero
// episodes.
type Season struct {
	Number   int
	Episodes []Episode
}

// ProviderInfo is the normalized seasons/episodes structure for one series.
type ProviderInfo struct {
	Seasons []Season
}

// EpisodeCount returns the total number of episodes across all seasons.
func (p ProviderInfo) EpisodeCount() int {
	n := 0
	for _, s := range p.Seasons {
		n += len(s.Episodes)
	}
	return n
}

// FlexInt decodes a JSON number or numeric string. Values that cannot be read
// as an integer decode to 0 instead of failing the enclosing object.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(ToInt(v))
	return nil
}

// FlexString decodes a JSON string or number into its string form. Null and
// other types decode to the empty string.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*f = ""
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		*f = ""
		return nil
	}
	*f = FlexString(ToString(v))
	return nil
}

// ToInt coerces a decoded JSON value to an int. Numbers are truncated.
// Strings must hold an integer, so "2.5" yields 0 like everything else.
func ToInt(v any) int {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		if fl, err := t.Float64(); err == nil {
			return int(fl)
		}
	case string:
		s := strings.TrimSpace(t)
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
	}
	return 0
}

// ToString renders a decoded JSON scalar as a string. Whole floats are
// printed without a fractional part so numeric ids round-trip cleanly.
func ToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
