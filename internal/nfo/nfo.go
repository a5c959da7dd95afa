// Package nfo renders Kodi/Jellyfin style .nfo sidecar documents.
package nfo

import (
	"bytes"
	"encoding/xml"
	"strconv"

	"github.com/Digital-Shane/vod2strm/internal/provider"
)

// UniqueID is an external identifier such as a TMDB or IMDb id.
type UniqueID struct {
	Type    string `xml:"type,attr"`
	Default bool   `xml:"default,attr,omitempty"`
	Value   string `xml:",chardata"`
}

// Movie is the root of movie.nfo.
type Movie struct {
	XMLName   xml.Name   `xml:"movie"`
	Title     string     `xml:"title"`
	Year      string     `xml:"year,omitempty"`
	Plot      string     `xml:"plot,omitempty"`
	Premiered string     `xml:"premiered,omitempty"`
	Rating    string     `xml:"rating,omitempty"`
	UniqueIDs []UniqueID `xml:"uniqueid"`
	TMDBID    string     `xml:"tmdbid,omitempty"`
	IMDBID    string     `xml:"imdbid,omitempty"`
}

// TVShow is the root of tvshow.nfo.
type TVShow struct {
	XMLName   xml.Name   `xml:"tvshow"`
	Title     string     `xml:"title"`
	Year      string     `xml:"year,omitempty"`
	Plot      string     `xml:"plot,omitempty"`
	Premiered string     `xml:"premiered,omitempty"`
	Rating    string     `xml:"rating,omitempty"`
	UniqueIDs []UniqueID `xml:"uniqueid"`
	TMDBID    string     `xml:"tmdbid,omitempty"`
	IMDBID    string     `xml:"imdbid,omitempty"`
}

// Episode is the root of a per-episode .nfo.
type Episode struct {
	XMLName   xml.Name   `xml:"episodedetails"`
	Title     string     `xml:"title"`
	ShowTitle string     `xml:"showtitle,omitempty"`
	Season    int        `xml:"season"`
	Episode   int        `xml:"episode"`
	Plot      string     `xml:"plot,omitempty"`
	Aired     string     `xml:"aired,omitempty"`
	Rating    string     `xml:"rating,omitempty"`
	UniqueIDs []UniqueID `xml:"uniqueid"`
}

// NewMovie builds a movie document. Catalogue values are used where meta has
// nothing better; meta may be nil.
func NewMovie(title, year string, meta *provider.Metadata) Movie {
	doc := Movie{Title: title, Year: year}
	if meta == nil {
		return doc
	}
	doc.Title = first(meta.Title, title)
	doc.Year = first(meta.Year, year)
	doc.Plot = meta.Plot
	doc.Premiered = meta.AirDate
	doc.Rating = formatRating(meta.Rating)
	doc.UniqueIDs = uniqueIDs(meta)
	doc.TMDBID = meta.TMDBID
	doc.IMDBID = meta.IMDBID
	return doc
}

// NewTVShow builds a tvshow document; meta may be nil.
func NewTVShow(title, year string, meta *provider.Metadata) TVShow {
	doc := TVShow{Title: title, Year: year}
	if meta == nil {
		return doc
	}
	doc.Title = first(meta.Title, title)
	doc.Year = first(meta.Year, year)
	doc.Plot = meta.Plot
	doc.Premiered = meta.AirDate
	doc.Rating = formatRating(meta.Rating)
	doc.UniqueIDs = uniqueIDs(meta)
	doc.TMDBID = meta.TMDBID
	doc.IMDBID = meta.IMDBID
	return doc
}

// NewEpisode builds an episodedetails document; meta may be nil.
func NewEpisode(showTitle string, season, episode int, title string, meta *provider.Metadata) Episode {
	doc := Episode{Title: title, ShowTitle: showTitle, Season: season, Episode: episode}
	if meta == nil {
		return doc
	}
	doc.Title = first(meta.Title, title)
	doc.Plot = meta.Plot
	doc.Aired = meta.AirDate
	doc.Rating = formatRating(meta.Rating)
	doc.UniqueIDs = uniqueIDs(meta)
	return doc
}

// Marshal renders doc with the XML header and two-space indentation.
func Marshal(doc any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func uniqueIDs(meta *provider.Metadata) []UniqueID {
	var ids []UniqueID
	if meta.TMDBID != "" {
		ids = append(ids, UniqueID{Type: "tmdb", Default: true, Value: meta.TMDBID})
	}
	if meta.IMDBID != "" {
		ids = append(ids, UniqueID{Type: "imdb", Default: len(ids) == 0, Value: meta.IMDBID})
	}
	return ids
}

func formatRating(r float64) string {
	if r <= 0 {
		return ""
	}
	return strconv.FormatFloat(r, 'f', 1, 64)
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
