package series

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Digital-Shane/vod2strm/internal/media"
)

// Shape identifies which raw provider-info layout a payload uses.
type Shape int

const (
	// ShapeEmpty carries no recognizable episode data.
	ShapeEmpty Shape = iota
	// ShapeSeasonKeyed maps season number strings to episode lists.
	ShapeSeasonKeyed
	// ShapeFlatList is one episode list with per-episode season fields.
	ShapeFlatList
	// ShapeSeasonList is a top-level "seasons" list, each with its own episodes.
	ShapeSeasonList
)

func (s Shape) String() string {
	switch s {
	case ShapeSeasonKeyed:
		return "season-keyed"
	case ShapeFlatList:
		return "flat-list"
	case ShapeSeasonList:
		return "season-list"
	default:
		return "empty"
	}
}

// Field fallback chains, first non-empty value wins.
var (
	episodeNumberKeys = []string{"episode_number", "episode_num", "num"}
	seasonNumberKeys  = []string{"season_number", "season", "season_num"}
	titleKeys         = []string{"title", "name", "episode_name"}
	streamIDKeys      = []string{"id", "stream_id"}
	containerKeys     = []string{"container_extension", "container"}
	directURLKeys     = []string{"direct_url", "url"}

	seasonEntryKeys = []string{"season_number", "number", "season", "season_num"}
)

// seasonGroup is one season's worth of raw episode objects.
type seasonGroup struct {
	number   int
	episodes []map[string]any
}

// Payload is a raw provider-info document whose shape has been resolved. The
// shape is decided once by Detect; Normalize dispatches on it without probing
// the other layouts.
type Payload struct {
	Shape  Shape
	groups []seasonGroup
	flat   []map[string]any
}

// Decode parses a raw provider-info response body. Anything that is not a
// JSON object decodes to an empty map.
func Decode(data []byte) map[string]any {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return map[string]any{}
	}
	return raw
}

// Detect resolves the shape of raw, in priority order: a non-empty
// season-keyed "episodes" mapping, a non-empty flat "episodes" list, then a
// non-empty "seasons" list.
func Detect(raw map[string]any) Payload {
	switch eps := raw["episodes"].(type) {
	case map[string]any:
		if len(eps) > 0 {
			return Payload{Shape: ShapeSeasonKeyed, groups: keyedGroups(eps)}
		}
	case []any:
		if len(eps) > 0 {
			return Payload{Shape: ShapeFlatList, flat: objects(eps)}
		}
	}
	if seasons, ok := raw["seasons"].([]any); ok && len(seasons) > 0 {
		return Payload{Shape: ShapeSeasonList, groups: listGroups(seasons)}
	}
	return Payload{Shape: ShapeEmpty}
}

// keyedGroups reads each mapping key as a season number. Keys that are not
// numeric fall back to the first episode's own season field.
func keyedGroups(m map[string]any) []seasonGroup {
	groups := make([]seasonGroup, 0, len(m))
	for key, v := range m {
		list, _ := v.([]any)
		eps := objects(list)
		number, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			number = 0
			if len(eps) > 0 {
				number = media.ToInt(firstValue(eps[0], seasonNumberKeys))
			}
		}
		groups = append(groups, seasonGroup{number: number, episodes: eps})
	}
	return groups
}

func listGroups(seasons []any) []seasonGroup {
	groups := make([]seasonGroup, 0, len(seasons))
	for _, s := range objects(seasons) {
		list, _ := s["episodes"].([]any)
		number := media.ToInt(firstValue(s, seasonEntryKeys))
		groups = append(groups, seasonGroup{number: number, episodes: objects(list)})
	}
	return groups
}

// objects keeps only the JSON objects in list.
func objects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// firstValue returns the first value among keys that is not empty.
func firstValue(obj map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && !isEmpty(v) {
			return v
		}
	}
	return nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case int:
		return t == 0
	case bool:
		return !t
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
