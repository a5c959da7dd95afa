package series

import (
	"context"
	"errors"
	"testing"

	"github.com/Digital-Shane/vod2strm/internal/media"
	"github.com/google/go-cmp/cmp"
)

type fakePrimary struct {
	raw   map[string]any
	err   error
	calls int
}

func (f *fakePrimary) Get(ctx context.Context, account media.Account, seriesID int) (map[string]any, error) {
	f.calls++
	return f.raw, f.err
}

type fakeSecondary struct {
	info  map[string]any
	err   error
	calls int
	gotID string
}

func (f *fakeSecondary) SeriesInfo(ctx context.Context, account media.Account, seriesID string) (map[string]any, error) {
	f.calls++
	f.gotID = seriesID
	return f.info, f.err
}

var (
	withCreds    = media.Account{ID: 1, Name: "Provider", ServerURL: "http://upstream:8080", Username: "u", Password: "p"}
	withoutCreds = media.Account{ID: 2, Name: "NoCreds"}
	testSeries   = media.Series{ID: 10, Name: "Dark", ExternalSeriesID: "9001"}
)

func TestResolverStateMachine(t *testing.T) {
	t.Parallel()
	populated := `{"episodes": {"1": [{"episode_num": 1, "title": "Secrets", "id": 5}]}}`
	empty := `{"episodes": []}`
	secondaryOK := `{"info": {"name": "Dark"}, "episodes": {"1": [{"episode_num": 1, "title": "Fallback", "id": "77"}]}}`

	tests := map[string]struct {
		primary      string
		primaryErr   error
		secondary    string
		secondaryErr error
		fallback     bool
		account      media.Account
		wantCalls    int
		wantFallback bool
		wantEpisodes int
		wantTitle    string
		wantErr      bool
	}{
		"primary has episodes": {
			primary: populated, secondary: secondaryOK, fallback: true, account: withCreds,
			wantCalls: 0, wantEpisodes: 1, wantTitle: "Secrets",
		},
		"fallback disabled": {
			primary: empty, secondary: secondaryOK, fallback: false, account: withCreds,
			wantCalls: 0,
		},
		"missing credentials": {
			primary: empty, secondary: secondaryOK, fallback: true, account: withoutCreds,
			wantCalls: 0,
		},
		"fallback used": {
			primary: empty, secondary: secondaryOK, fallback: true, account: withCreds,
			wantCalls: 1, wantFallback: true, wantEpisodes: 1, wantTitle: "Fallback",
		},
		"secondary without episodes key": {
			primary: empty, secondary: `{"info": {"name": "Dark"}}`, fallback: true, account: withCreds,
			wantCalls: 1,
		},
		"secondary error": {
			primary: empty, secondaryErr: errors.New("boom"), fallback: true, account: withCreds,
			wantCalls: 1,
		},
		"secondary episodes invalid": {
			primary: empty, secondary: `{"episodes": [{"title": "no number"}]}`, fallback: true, account: withCreds,
			wantCalls: 1,
		},
		"primary fatal error": {
			primaryErr: errors.New("unauthorized"), secondary: secondaryOK, fallback: true, account: withCreds,
			wantCalls: 0, wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			primary := &fakePrimary{raw: Decode([]byte(tc.primary)), err: tc.primaryErr}
			secondary := &fakeSecondary{err: tc.secondaryErr}
			if tc.secondary != "" {
				secondary.info = Decode([]byte(tc.secondary))
			}

			r := NewResolver(primary, secondary, tc.fallback, nil)
			got, err := r.Resolve(context.Background(), tc.account, testSeries)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Resolve() error = %v, wantErr %v", err, tc.wantErr)
			}
			if primary.calls != 1 {
				t.Errorf("primary calls = %d, want 1", primary.calls)
			}
			if secondary.calls != tc.wantCalls {
				t.Errorf("secondary calls = %d, want %d", secondary.calls, tc.wantCalls)
			}
			if got.UsedFallback != tc.wantFallback {
				t.Errorf("UsedFallback = %v, want %v", got.UsedFallback, tc.wantFallback)
			}
			if n := got.Info.EpisodeCount(); n != tc.wantEpisodes {
				t.Errorf("EpisodeCount() = %d, want %d", n, tc.wantEpisodes)
			}
			if tc.wantTitle != "" && got.Info.Seasons[0].Episodes[0].Title != tc.wantTitle {
				t.Errorf("title = %q, want %q", got.Info.Seasons[0].Episodes[0].Title, tc.wantTitle)
			}
		})
	}
}

func TestResolverPrefersExternalSeriesID(t *testing.T) {
	t.Parallel()
	primary := &fakePrimary{raw: map[string]any{}}
	secondary := &fakeSecondary{info: map[string]any{}}

	r := NewResolver(primary, secondary, true, nil)
	if _, err := r.Resolve(context.Background(), withCreds, testSeries); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if secondary.gotID != "9001" {
		t.Errorf("secondary called with id %q, want %q", secondary.gotID, "9001")
	}
}

func TestResolverNilSecondaryDisablesFallback(t *testing.T) {
	t.Parallel()
	primary := &fakePrimary{raw: map[string]any{}}

	r := NewResolver(primary, nil, true, nil)
	got, err := r.Resolve(context.Background(), withCreds, testSeries)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if diff := cmp.Diff(Result{}, got); diff != "" {
		t.Errorf("Result mismatch (-want +got):\n%s", diff)
	}
}

func TestResolverCanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := &fakePrimary{}
	r := NewResolver(primary, nil, false, nil)
	if _, err := r.Resolve(ctx, withCreds, testSeries); !errors.Is(err, context.Canceled) {
		t.Errorf("Resolve() error = %v, want context.Canceled", err)
	}
	if primary.calls != 0 {
		t.Errorf("primary calls = %d, want 0", primary.calls)
	}
}
