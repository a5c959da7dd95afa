package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Digital-Shane/vod2strm/internal/media"
	"github.com/google/go-cmp/cmp"
)

type fakeFetcher struct {
	body  []byte
	err   error
	calls int
}

func (f *fakeFetcher) ProviderInfo(ctx context.Context, seriesID int) ([]byte, error) {
	f.calls++
	return f.body, f.err
}

var (
	account    = media.Account{ID: 1, Name: "Provider: A"}
	errFatal   = errors.New("unauthorized")
	isFatalErr = func(err error) bool { return errors.Is(err, errFatal) }
)

func TestProviderInfoFetchesAndPersistsVerbatim(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	body := []byte(`{"episodes": {"1": [{"episode_num": 1}]}}`)
	f := &fakeFetcher{body: body}
	c := New(dir, false, nil).ProviderInfo(f, isFatalErr)

	got, err := c.Get(context.Background(), account, 42)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, ok := got["episodes"]; !ok {
		t.Errorf("Get() = %v, want episodes", got)
	}

	path := filepath.Join(dir, "Provider_ A", "provider-info", "42.json")
	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("cache file not written: %v", err)
	}
	if string(saved) != string(body) {
		t.Errorf("cache content = %s, want verbatim %s", saved, body)
	}

	// Second call is served from disk.
	if _, err := c.Get(context.Background(), account, 42); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if f.calls != 1 {
		t.Errorf("fetcher calls = %d, want 1", f.calls)
	}
}

func TestProviderInfoCorruptCacheRefetches(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := New(dir, false, nil)
	path := store.providerInfoPath(account, 7)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := &fakeFetcher{body: []byte(`{"seasons": []}`)}
	got, err := store.ProviderInfo(f, isFatalErr).Get(context.Background(), account, 7)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if f.calls != 1 {
		t.Errorf("fetcher calls = %d, want 1", f.calls)
	}
	if diff := cmp.Diff(map[string]any{"seasons": []any{}}, got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}
	saved, _ := os.ReadFile(path)
	if string(saved) != `{"seasons": []}` {
		t.Errorf("corrupt cache should be replaced, got %s", saved)
	}
}

func TestProviderInfoEmptyAndFailedFetches(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		fetcher *fakeFetcher
		wantErr bool
	}{
		"empty object":    {fetcher: &fakeFetcher{body: []byte(`{}`)}},
		"not an object":   {fetcher: &fakeFetcher{body: []byte(`[]`)}},
		"transport error": {fetcher: &fakeFetcher{err: errors.New("connection refused")}},
		"fatal error":     {fetcher: &fakeFetcher{err: errFatal}, wantErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			store := New(dir, false, nil)
			got, err := store.ProviderInfo(tc.fetcher, isFatalErr).Get(context.Background(), account, 3)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Get() error = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && len(got) != 0 {
				t.Errorf("Get() = %v, want empty", got)
			}
			if _, err := os.Stat(store.providerInfoPath(account, 3)); !os.IsNotExist(err) {
				t.Error("nothing should be cached")
			}
		})
	}
}

func TestProviderInfoDryRunDoesNotWrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := New(dir, true, nil)
	f := &fakeFetcher{body: []byte(`{"episodes": []}`)}

	if _, err := store.ProviderInfo(f, nil).Get(context.Background(), account, 1); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("dry run wrote %d entries", len(entries))
	}
}

func TestProviderInfoWriteFailureIsSwallowed(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// A file where the account directory should be makes every write fail.
	if err := os.WriteFile(filepath.Join(dir, media.FSSafe(account.Name)), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := &fakeFetcher{body: []byte(`{"episodes": []}`)}

	got, err := New(dir, false, nil).ProviderInfo(f, nil).Get(context.Background(), account, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, ok := got["episodes"]; !ok {
		t.Errorf("Get() = %v, want fetched data despite write failure", got)
	}
}

func TestListRoundTrip(t *testing.T) {
	t.Parallel()
	store := New(t.TempDir(), false, nil)
	items := []json.RawMessage{json.RawMessage(`{"id":1}`), json.RawMessage(`{"id":2}`)}
	if err := store.SaveList(account, "movies", items); err != nil {
		t.Fatalf("SaveList() error = %v", err)
	}
	got, err := store.LoadList(account, "movies")
	if err != nil {
		t.Fatalf("LoadList() error = %v", err)
	}
	if len(got) != 2 || string(got[1]) != `{"id":2}` {
		t.Errorf("LoadList() = %s", got)
	}
	if _, err := store.LoadList(account, "series"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadList(missing) error = %v, want not exist", err)
	}
}

func TestClear(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	other := media.Account{ID: 2, Name: "Other"}
	store := New(dir, false, nil, "journal", "vod2strm.lock")
	for _, a := range []media.Account{account, other} {
		if err := store.SaveList(a, "series", nil); err != nil {
			t.Fatal(err)
		}
	}
	for _, keep := range []string{"journal", "tmdb"} {
		if err := os.MkdirAll(filepath.Join(dir, keep), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	if err := store.ClearAccount(account); err != nil {
		t.Fatalf("ClearAccount() error = %v", err)
	}
	if _, err := os.Stat(store.AccountDir(account)); !os.IsNotExist(err) {
		t.Error("account cache should be removed")
	}
	if _, err := os.Stat(store.AccountDir(other)); err != nil {
		t.Error("other account cache should remain")
	}

	if err := store.ClearAll(); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	var names []string
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if diff := cmp.Diff([]string{"journal"}, names); diff != "" {
		t.Errorf("remaining entries mismatch (-want +got):\n%s", diff)
	}
}

func TestClearDryRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := New(dir, false, nil).SaveList(account, "movies", nil); err != nil {
		t.Fatal(err)
	}
	store := New(dir, true, nil)
	if err := store.ClearAll(); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	if err := store.ClearAccount(account); err != nil {
		t.Fatalf("ClearAccount() error = %v", err)
	}
	if _, err := os.Stat(store.AccountDir(account)); err != nil {
		t.Error("dry run must not remove anything")
	}
}
