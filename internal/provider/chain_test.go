package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type stubEnricher struct {
	meta  *Metadata
	err   error
	calls int
}

func (s *stubEnricher) Movie(ctx context.Context, req Request) (*Metadata, error) {
	s.calls++
	return s.meta, s.err
}

func (s *stubEnricher) Show(ctx context.Context, req Request) (*Metadata, error) {
	s.calls++
	return s.meta, s.err
}

func (s *stubEnricher) Episode(ctx context.Context, req EpisodeRequest) (*Metadata, error) {
	s.calls++
	return s.meta, s.err
}

func TestChainRegister(t *testing.T) {
	t.Parallel()
	c := NewChain()
	if err := c.Register("omdb", &stubEnricher{}, 90); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := c.Register("tmdb", &stubEnricher{}, 100); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := c.Register("tmdb", &stubEnricher{}, 1); err == nil {
		t.Error("duplicate registration should fail")
	}
	if err := c.Register("nil", nil, 1); err == nil {
		t.Error("nil enricher should fail")
	}
	if diff := cmp.Diff([]string{"tmdb", "omdb"}, c.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestChainMerge(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		primary   *stubEnricher
		secondary *stubEnricher
		want      *Metadata
		wantErr   bool
		wantCalls int
	}{
		"secondary fills gaps": {
			primary:   &stubEnricher{meta: &Metadata{Title: "Dark", Year: "2017", TMDBID: "70523", Source: "tmdb"}},
			secondary: &stubEnricher{meta: &Metadata{Title: "DARK", Plot: "A missing child.", Rating: 8.7, IMDBID: "tt5753856", Source: "omdb"}},
			want: &Metadata{
				Title: "Dark", Year: "2017", Plot: "A missing child.", Rating: 8.7,
				TMDBID: "70523", IMDBID: "tt5753856", Source: "tmdb+omdb",
			},
			wantCalls: 1,
		},
		"complete primary skips secondary": {
			primary:   &stubEnricher{meta: &Metadata{Title: "Dark", Year: "2017", Plot: "p", Rating: 8.4, IMDBID: "tt1", Source: "tmdb"}},
			secondary: &stubEnricher{meta: &Metadata{Plot: "other"}},
			want:      &Metadata{Title: "Dark", Year: "2017", Plot: "p", Rating: 8.4, IMDBID: "tt1", Source: "tmdb"},
			wantCalls: 0,
		},
		"primary error falls through": {
			primary:   &stubEnricher{err: &ProviderError{Provider: "tmdb", Code: CodeNotFound, Message: "no results"}},
			secondary: &stubEnricher{meta: &Metadata{Title: "Dark", Source: "omdb"}},
			want:      &Metadata{Title: "Dark", Source: "omdb"},
			wantCalls: 1,
		},
		"secondary adds nothing": {
			primary:   &stubEnricher{meta: &Metadata{Title: "Dark", Source: "tmdb"}},
			secondary: &stubEnricher{meta: &Metadata{Title: "Other", Source: "omdb"}},
			want:      &Metadata{Title: "Dark", Source: "tmdb"},
			wantCalls: 1,
		},
		"all fail": {
			primary:   &stubEnricher{err: errors.New("boom")},
			secondary: &stubEnricher{err: errors.New("bang")},
			wantErr:   true,
			wantCalls: 1,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := NewChain()
			_ = c.Register("tmdb", tc.primary, 100)
			_ = c.Register("omdb", tc.secondary, 90)

			got, err := c.Show(context.Background(), Request{Title: "Dark"})
			if (err != nil) != tc.wantErr {
				t.Fatalf("Show() error = %v, wantErr %v", err, tc.wantErr)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Show() mismatch (-want +got):\n%s", diff)
			}
			if tc.secondary.calls != tc.wantCalls {
				t.Errorf("secondary calls = %d, want %d", tc.secondary.calls, tc.wantCalls)
			}
		})
	}
}

func TestChainEmpty(t *testing.T) {
	t.Parallel()
	_, err := NewChain().Movie(context.Background(), Request{Title: "x"})
	if !IsNotFound(err) {
		t.Errorf("Movie() error = %v, want not found", err)
	}
}

func TestChainCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &stubEnricher{meta: &Metadata{Title: "x"}}
	c := NewChain()
	_ = c.Register("tmdb", s, 1)
	if _, err := c.Episode(ctx, EpisodeRequest{Season: 1, Episode: 1}); !errors.Is(err, context.Canceled) {
		t.Errorf("Episode() error = %v, want context.Canceled", err)
	}
	if s.calls != 0 {
		t.Errorf("calls = %d, want 0", s.calls)
	}
}

func TestMergeNil(t *testing.T) {
	t.Parallel()
	src := &Metadata{Title: "A"}
	got := Merge(nil, src)
	if got == src {
		t.Error("Merge(nil, src) must copy src")
	}
	if diff := cmp.Diff(src, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
	if Merge(got, nil) != got {
		t.Error("Merge(dst, nil) must return dst")
	}
}
