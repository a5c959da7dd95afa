package library

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Digital-Shane/vod2strm/internal/media"
)

// StrmExt is the extension of playback pointer files.
const StrmExt = ".strm"

// sidecarExts are files that belong to a .strm and are removed with its
// directory once nothing playable remains there.
var sidecarExts = map[string]bool{
	".nfo":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tbn":  true,
}

// Stats counts what a reconciler did to .strm files.
type Stats struct {
	Added     int
	Updated   int
	Unchanged int
	Removed   int
	Skipped   int
	Failed    int
	Artifacts int
}

// Reconciler writes one output root and removes whatever the current run did
// not produce there.
type Reconciler struct {
	root     string
	writer   *Writer
	logger   *slog.Logger
	expected map[string]struct{}
	stats    Stats
}

// NewReconciler creates a reconciler for root.
func NewReconciler(root string, writer *Writer, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reconciler{
		root:     filepath.Clean(root),
		writer:   writer,
		logger:   logger,
		expected: make(map[string]struct{}),
	}
}

// Root returns the output root.
func (r *Reconciler) Root() string {
	return r.root
}

// Stats returns the counters accumulated so far.
func (r *Reconciler) Stats() Stats {
	return r.stats
}

// Active returns the number of .strm files in the expected set.
func (r *Reconciler) Active() int {
	n := 0
	for p := range r.expected {
		if strings.EqualFold(filepath.Ext(p), StrmExt) {
			n++
		}
	}
	return n
}

// Expected reports whether path was produced in this run.
func (r *Reconciler) Expected(path string) bool {
	_, ok := r.expected[filepath.Clean(path)]
	return ok
}

// Keep adds an existing file to the expected set without touching it. It
// reports whether the file exists.
func (r *Reconciler) Keep(path string) bool {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	r.expected[path] = struct{}{}
	return true
}

// Skip counts an item that could not be written.
func (r *Reconciler) Skip() {
	r.stats.Skipped++
}

// WriteStrm writes a single-line .strm holding url and adds it to the
// expected set. A failed write is counted and returned.
func (r *Reconciler) WriteStrm(path, url string) (Result, error) {
	path = filepath.Clean(path)
	r.expected[path] = struct{}{}

	res, err := r.writer.WriteFile(path, []byte(url+"\n"), true)
	if err != nil {
		r.stats.Failed++
		return res, err
	}
	switch res {
	case Created:
		r.stats.Added++
	case Updated:
		r.stats.Updated++
	default:
		r.stats.Unchanged++
	}
	return res, nil
}

// WriteArtifact writes a sidecar such as an .nfo and keeps it from cleanup.
func (r *Reconciler) WriteArtifact(path string, data []byte, overwrite bool) (Result, error) {
	path = filepath.Clean(path)
	r.expected[path] = struct{}{}
	res, err := r.writer.WriteFile(path, data, overwrite)
	if err == nil && res != Unchanged {
		r.stats.Artifacts++
	}
	return res, err
}

// CopyArtifact copies a cached file such as artwork into the tree.
func (r *Reconciler) CopyArtifact(src, dst string, overwrite bool) (Result, error) {
	dst = filepath.Clean(dst)
	r.expected[dst] = struct{}{}
	res, err := r.writer.CopyFile(src, dst, overwrite)
	if err == nil && res != Unchanged {
		r.stats.Artifacts++
	}
	return res, err
}

// WrittenEpisode is an episode whose .strm is in the expected set.
type WrittenEpisode struct {
	Episode media.Episode
	Path    string
}

// WriteSeries writes every episode of info below showDir using
// "Season NN/SxxEyy - Title.strm". Episodes for which urlFor reports false
// are skipped. Write failures are logged and do not stop the series.
func (r *Reconciler) WriteSeries(showDir string, info media.ProviderInfo, urlFor func(media.Episode) (string, bool)) []WrittenEpisode {
	var written []WrittenEpisode
	for _, season := range info.Seasons {
		dir := filepath.Join(showDir, SeasonDir(season.Number))
		for _, ep := range season.Episodes {
			url, ok := urlFor(ep)
			if !ok {
				r.logger.Debug("skipping episode without a playable reference",
					"season", ep.Season, "episode", ep.Number)
				r.Skip()
				continue
			}
			path := filepath.Join(dir, EpisodeStem(ep.Season, ep.Number, ep.Title)+StrmExt)
			if _, err := r.WriteStrm(path, url); err != nil {
				r.logger.Warn("failed to write episode", "path", path, "error", err)
				continue
			}
			written = append(written, WrittenEpisode{Episode: ep, Path: path})
		}
	}
	return written
}

// Cleanup deletes every .strm under the root that is not expected, along
// with its .nfo sidecar, then removes directories left without content,
// deepest first. The root itself is kept. It returns the number of .strm
// files removed.
func (r *Reconciler) Cleanup() (int, error) {
	if _, err := os.Stat(r.root); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}

	var stale, dirs []string
	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.logger.Warn("cannot read path during cleanup", "path", path, "error", err)
			if d != nil && d.IsDir() && path != r.root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != r.root {
				dirs = append(dirs, path)
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), StrmExt) && !r.Expected(path) {
			stale = append(stale, path)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	gone := make(map[string]bool)
	removed := 0
	var errs []error
	for _, path := range stale {
		if err := r.writer.Remove(path); err != nil {
			errs = append(errs, err)
			continue
		}
		gone[path] = true
		removed++
		r.logger.Info("removed stale file", "path", path)

		sidecar := strings.TrimSuffix(path, filepath.Ext(path)) + ".nfo"
		if _, err := os.Stat(sidecar); err == nil && !r.Expected(sidecar) {
			if err := r.writer.Remove(sidecar); err != nil {
				errs = append(errs, err)
			} else {
				gone[sidecar] = true
			}
		}
	}
	r.stats.Removed += removed

	// Deepest first, so a parent sees its emptied children as gone.
	sort.SliceStable(dirs, func(i, j int) bool {
		return depth(dirs[i]) > depth(dirs[j])
	})
	for _, dir := range dirs {
		if err := r.removeIfHollow(dir, gone); err != nil {
			errs = append(errs, err)
		}
	}
	return removed, errors.Join(errs...)
}

// removeIfHollow removes dir when everything left in it is gone or is an
// unexpected sidecar file.
func (r *Reconciler) removeIfHollow(dir string, gone map[string]bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var orphans []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if gone[path] {
			continue
		}
		if e.IsDir() || r.Expected(path) || !sidecarExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		orphans = append(orphans, path)
	}

	for _, path := range orphans {
		if err := r.writer.Remove(path); err != nil {
			return err
		}
		gone[path] = true
	}
	if err := r.writer.RemoveDir(dir); err != nil {
		return err
	}
	gone[dir] = true
	r.logger.Debug("removed empty directory", "path", dir)
	return nil
}

func depth(path string) int {
	return strings.Count(filepath.ToSlash(path), "/")
}
