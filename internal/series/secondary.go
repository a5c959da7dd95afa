package series

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/Digital-Shane/vod2strm/internal/media"
)

// FromSecondary adapts a secondary-source series response into the
// season-list shape understood by Normalize. It reports false when the
// response has no "episodes" key at all.
//
// The secondary source returns episodes either keyed by season number or as
// a flat list; flat lists are grouped by each episode's own season field,
// defaulting to season 1.
func FromSecondary(info map[string]any) (map[string]any, bool) {
	eps, ok := info["episodes"]
	if !ok {
		return nil, false
	}

	grouped := make(map[int][]any)
	switch t := eps.(type) {
	case map[string]any:
		for key, v := range t {
			list, _ := v.([]any)
			number, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil {
				number = 0
				if first := objects(list); len(first) > 0 {
					number = media.ToInt(firstValue(first[0], seasonNumberKeys))
				}
			}
			grouped[number] = append(grouped[number], list...)
		}
	case []any:
		for _, item := range t {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			number := media.ToInt(firstValue(obj, seasonNumberKeys))
			if number < 1 {
				number = 1
			}
			grouped[number] = append(grouped[number], obj)
		}
	}

	numbers := make([]int, 0, len(grouped))
	for n := range grouped {
		numbers = append(numbers, n)
	}
	slices.SortFunc(numbers, cmp.Compare[int])

	seasons := make([]any, 0, len(numbers))
	for _, n := range numbers {
		seasons = append(seasons, map[string]any{
			"season_number": float64(n),
			"episodes":      grouped[n],
		})
	}
	return map[string]any{"seasons": seasons}, true
}
