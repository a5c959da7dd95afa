// Package cache keeps raw upstream responses on disk, per account, until an
// operator clears them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/Digital-Shane/vod2strm/internal/media"
)

// Store owns the cache directory layout:
//
//	<dir>/<account>/provider-info/<series id>.json
//	<dir>/<account>/movies.json
//	<dir>/<account>/series.json
type Store struct {
	dir    string
	dryRun bool
	logger *slog.Logger
	// keep lists top-level entries ClearAll leaves alone.
	keep []string
}

// New creates a Store rooted at dir. In dry-run mode nothing is written or
// removed.
func New(dir string, dryRun bool, logger *slog.Logger, keep ...string) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{dir: dir, dryRun: dryRun, logger: logger, keep: keep}
}

// Dir returns the cache root.
func (s *Store) Dir() string {
	return s.dir
}

// AccountDir returns the cache directory for one account.
func (s *Store) AccountDir(account media.Account) string {
	return filepath.Join(s.dir, media.FSSafe(account.Name))
}

func (s *Store) providerInfoPath(account media.Account, seriesID int) string {
	return filepath.Join(s.AccountDir(account), "provider-info", strconv.Itoa(seriesID)+".json")
}

func (s *Store) listPath(account media.Account, kind string) string {
	return filepath.Join(s.AccountDir(account), media.FSSafe(kind)+".json")
}

// SaveList persists a raw list response for the account.
func (s *Store) SaveList(account media.Account, kind string, items []json.RawMessage) error {
	if s.dryRun {
		return nil
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s list: %w", kind, err)
	}
	return writeAtomic(s.listPath(account, kind), data)
}

// LoadList reads a list saved by SaveList.
func (s *Store) LoadList(account media.Account, kind string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(s.listPath(account, kind))
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode cached %s list: %w", kind, err)
	}
	return items, nil
}

// ClearAccount removes everything cached for account.
func (s *Store) ClearAccount(account media.Account) error {
	dir := s.AccountDir(account)
	if s.dryRun {
		s.logger.Info("dry run: would clear account cache", "account", account.Name, "path", dir)
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear cache for %s: %w", account.Name, err)
	}
	s.logger.Info("cleared account cache", "account", account.Name, "path", dir)
	return nil
}

// ClearAll removes every cache entry, except the names given to New as keep.
func (s *Store) ClearAll() error {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}

	var errs []error
	for _, e := range entries {
		if slices.Contains(s.keep, e.Name()) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if s.dryRun {
			s.logger.Info("dry run: would remove cache entry", "path", path)
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("clear cache: %w", errors.Join(errs...))
	}
	s.logger.Info("cleared cache", "path", s.dir)
	return nil
}

// Fetcher retrieves a raw provider-info document from the primary service.
type Fetcher interface {
	ProviderInfo(ctx context.Context, seriesID int) ([]byte, error)
}

// ProviderInfoCache serves provider-info documents from disk, fetching and
// persisting on a miss.
type ProviderInfoCache struct {
	store   *Store
	fetcher Fetcher
	fatal   func(error) bool
}

// ProviderInfo returns a cache in front of fetcher. Fetch errors for which
// fatal reports true are returned to the caller; all others mean "no data".
func (s *Store) ProviderInfo(fetcher Fetcher, fatal func(error) bool) *ProviderInfoCache {
	if fatal == nil {
		fatal = func(error) bool { return false }
	}
	return &ProviderInfoCache{store: s, fetcher: fetcher, fatal: fatal}
}

// Get returns the raw document for a series. An empty map means the series
// currently has no data, which is not an error.
func (c *ProviderInfoCache) Get(ctx context.Context, account media.Account, seriesID int) (map[string]any, error) {
	path := c.store.providerInfoPath(account, seriesID)
	logger := c.store.logger.With("account", account.Name, "series_id", seriesID)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var raw map[string]any
		if jerr := json.Unmarshal(data, &raw); jerr == nil && raw != nil {
			return raw, nil
		}
		logger.Warn("cached provider-info is unreadable, refetching", "path", path)
	case !errors.Is(err, os.ErrNotExist):
		logger.Warn("failed to read provider-info cache", "path", path, "error", err)
	}

	body, err := c.fetcher.ProviderInfo(ctx, seriesID)
	if err != nil {
		if c.fatal(err) || ctx.Err() != nil {
			return nil, err
		}
		logger.Warn("provider-info fetch failed", "error", err)
		return map[string]any{}, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) == 0 {
		logger.Debug("provider-info is empty or not an object")
		return map[string]any{}, nil
	}

	if c.store.dryRun {
		logger.Debug("dry run: not caching provider-info", "path", path)
		return raw, nil
	}
	if err := writeAtomic(path, body); err != nil {
		logger.Warn("failed to cache provider-info", "path", path, "error", err)
	}
	return raw, nil
}

// writeAtomic writes data to a temporary sibling and renames it into place.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
