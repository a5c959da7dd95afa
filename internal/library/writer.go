package library

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Digital-Shane/vod2strm/internal/log"
)

// Result is the outcome of one write.
type Result int

const (
	Unchanged Result = iota // Content already on disk, or kept because overwriting is off
	Created                 // File did not exist
	Updated                 // File existed with different content
)

func (r Result) String() string {
	switch r {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Writer performs every output-tree mutation. In dry-run mode mutations are
// logged and journaled but not performed.
type Writer struct {
	dryRun  bool
	journal *log.Journal
	logger  *slog.Logger
}

// NewWriter creates a Writer. journal and logger may be nil.
func NewWriter(dryRun bool, journal *log.Journal, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Writer{dryRun: dryRun, journal: journal, logger: logger}
}

// DryRun reports whether mutations are suppressed.
func (w *Writer) DryRun() bool {
	return w.dryRun
}

// WriteFile writes data to path atomically. Identical content is never
// rewritten; differing content is replaced only when overwrite is set.
func (w *Writer) WriteFile(path string, data []byte, overwrite bool) (Result, error) {
	return w.write(log.OpWrite, path, "", data, overwrite)
}

// CopyFile copies src to dst with the same rules as WriteFile.
func (w *Writer) CopyFile(src, dst string, overwrite bool) (Result, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return Unchanged, fmt.Errorf("read %s: %w", src, err)
	}
	return w.write(log.OpCopy, dst, src, data, overwrite)
}

func (w *Writer) write(op log.OperationType, path, src string, data []byte, overwrite bool) (Result, error) {
	result := Created
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if bytes.Equal(existing, data) || !overwrite {
			return Unchanged, nil
		}
		result = Updated
	case !errors.Is(err, os.ErrNotExist):
		return Unchanged, fmt.Errorf("read %s: %w", path, err)
	}

	if w.dryRun {
		w.logger.Info("dry run: would write", "path", path, "result", result.String())
		w.journal.Record(op, path, src, nil)
		return result, nil
	}

	if err := w.mkdirAll(filepath.Dir(path)); err != nil {
		w.journal.Record(op, path, src, err)
		return Unchanged, err
	}
	if err := writeAtomic(path, data); err != nil {
		w.journal.Record(op, path, src, err)
		return Unchanged, fmt.Errorf("write %s: %w", path, err)
	}
	w.journal.Record(op, path, src, nil)
	w.logger.Debug("wrote file", "path", path, "result", result.String())
	return result, nil
}

func (w *Writer) mkdirAll(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		w.journal.Record(log.OpCreateDir, dir, "", err)
		return fmt.Errorf("create %s: %w", dir, err)
	}
	w.journal.Record(log.OpCreateDir, dir, "", nil)
	return nil
}

// Remove deletes a file.
func (w *Writer) Remove(path string) error {
	return w.remove(log.OpDelete, path)
}

// RemoveDir deletes an empty directory.
func (w *Writer) RemoveDir(path string) error {
	return w.remove(log.OpRemoveDir, path)
}

func (w *Writer) remove(op log.OperationType, path string) error {
	if w.dryRun {
		w.logger.Info("dry run: would remove", "path", path)
		w.journal.Record(op, path, "", nil)
		return nil
	}
	err := os.Remove(path)
	w.journal.Record(op, path, "", err)
	if err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	w.logger.Debug("removed", "path", path)
	return nil
}

// writeAtomic writes data to a temporary sibling and renames it over path.
func writeAtomic(path string, data []byte) error {
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
	if err := tmp.Chmod(0o644); err != nil {
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
