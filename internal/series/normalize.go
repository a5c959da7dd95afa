package series

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/Digital-Shane/vod2strm/internal/media"
)

const defaultContainer = "m3u8"

// Normalize converts a raw provider-info document of any known shape into the
// canonical seasons/episodes structure.
func Normalize(raw map[string]any) media.ProviderInfo {
	return Detect(raw).Normalize()
}

// Normalize builds the canonical structure for the resolved shape. Episodes
// and seasons that fail validation are dropped; the result never contains an
// empty season or an episode numbered 0.
func (p Payload) Normalize() media.ProviderInfo {
	bySeason := make(map[int][]media.Episode)
	add := func(season int, raw map[string]any) {
		if season < 1 {
			return
		}
		if ep, ok := toEpisode(season, raw); ok {
			bySeason[season] = append(bySeason[season], ep)
		}
	}

	switch p.Shape {
	case ShapeSeasonKeyed, ShapeSeasonList:
		for _, g := range p.groups {
			for _, raw := range g.episodes {
				add(g.number, raw)
			}
		}
	case ShapeFlatList:
		for _, raw := range p.flat {
			season := media.ToInt(firstValue(raw, seasonNumberKeys))
			if season < 1 {
				season = 1
			}
			add(season, raw)
		}
	}

	return assemble(bySeason)
}

func assemble(bySeason map[int][]media.Episode) media.ProviderInfo {
	info := media.ProviderInfo{}
	for number, eps := range bySeason {
		if len(eps) == 0 {
			continue
		}
		slices.SortStableFunc(eps, func(a, b media.Episode) int {
			return cmp.Compare(a.Number, b.Number)
		})
		info.Seasons = append(info.Seasons, media.Season{Number: number, Episodes: eps})
	}
	slices.SortFunc(info.Seasons, func(a, b media.Season) int {
		return cmp.Compare(a.Number, b.Number)
	})
	return info
}

// toEpisode extracts the canonical fields from one raw episode object. It
// reports false when the episode number is missing or unparseable.
func toEpisode(season int, raw map[string]any) (media.Episode, bool) {
	number := media.ToInt(firstValue(raw, episodeNumberKeys))
	if number < 1 {
		return media.Episode{}, false
	}

	title := media.NormalizeTitle(strings.TrimSpace(media.ToString(firstValue(raw, titleKeys))))
	if title == "" {
		title = "Episode " + strconv.Itoa(number)
	}

	container := strings.TrimPrefix(strings.TrimSpace(media.ToString(firstValue(raw, containerKeys))), ".")
	if container == "" {
		container = defaultContainer
	}

	return media.Episode{
		Season:             season,
		Number:             number,
		Title:              title,
		StreamID:           strings.TrimSpace(media.ToString(firstValue(raw, streamIDKeys))),
		ContainerExtension: container,
		DirectURL:          strings.TrimSpace(media.ToString(firstValue(raw, directURLKeys))),
		Raw:                raw,
	}, true
}
