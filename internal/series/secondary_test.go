package series

import (
	"testing"

	"github.com/Digital-Shane/vod2strm/internal/media"
	"github.com/google/go-cmp/cmp"
)

func TestFromSecondary(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		doc    string
		wantOK bool
		want   media.ProviderInfo
	}{
		"no episodes key": {
			doc:    `{"info": {"name": "Dark"}}`,
			wantOK: false,
		},
		"season keyed": {
			doc:    `{"episodes": {"2": [{"episode_num": 1, "title": "B", "id": "22"}], "1": [{"episode_num": 1, "title": "A", "id": "11", "container_extension": "mp4"}]}}`,
			wantOK: true,
			want: media.ProviderInfo{Seasons: []media.Season{
				{Number: 1, Episodes: []media.Episode{{Season: 1, Number: 1, Title: "A", StreamID: "11", ContainerExtension: "mp4"}}},
				{Number: 2, Episodes: []media.Episode{{Season: 2, Number: 1, Title: "B", StreamID: "22", ContainerExtension: "m3u8"}}},
			}},
		},
		"non numeric key uses episode season": {
			doc:    `{"episodes": {"specials": [{"episode_num": 4, "season": 5, "title": "S", "id": 9}]}}`,
			wantOK: true,
			want: media.ProviderInfo{Seasons: []media.Season{
				{Number: 5, Episodes: []media.Episode{{Season: 5, Number: 4, Title: "S", StreamID: "9", ContainerExtension: "m3u8"}}},
			}},
		},
		"flat list grouped by episode season": {
			doc:    `{"episodes": [{"episode_num": 2, "season": 2, "id": 3}, {"episode_num": 1, "id": 1}, {"episode_num": 1, "season": 2, "id": 2}]}`,
			wantOK: true,
			want: media.ProviderInfo{Seasons: []media.Season{
				{Number: 1, Episodes: []media.Episode{{Season: 1, Number: 1, Title: "Episode 1", StreamID: "1", ContainerExtension: "m3u8"}}},
				{Number: 2, Episodes: []media.Episode{
					{Season: 2, Number: 1, Title: "Episode 1", StreamID: "2", ContainerExtension: "m3u8"},
					{Season: 2, Number: 2, Title: "Episode 2", StreamID: "3", ContainerExtension: "m3u8"},
				}},
			}},
		},
		"episodes null": {
			doc:    `{"episodes": null}`,
			wantOK: true,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			adapted, ok := FromSecondary(Decode([]byte(tc.doc)))
			if ok != tc.wantOK {
				t.Fatalf("FromSecondary() ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			payload := Detect(adapted)
			if tc.want.EpisodeCount() > 0 && payload.Shape != ShapeSeasonList {
				t.Errorf("adapted shape = %v, want %v", payload.Shape, ShapeSeasonList)
			}
			if diff := cmp.Diff(tc.want, payload.Normalize(), ignoreRaw); diff != "" {
				t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
