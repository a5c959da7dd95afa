package export

import (
	"log/slog"

	"github.com/Digital-Shane/vod2strm/internal/library"
)

// Summary reports one export phase for one account.
type Summary struct {
	Kind  string
	Items int
	library.Stats
	// Active is the number of .strm files the phase expects on disk.
	Active int
	// Fallback counts series resolved through the secondary source.
	Fallback int
	// Empty counts series that resolved to no episodes.
	Empty int
}

// Attrs returns the summary as structured log attributes.
func (s Summary) Attrs() []any {
	attrs := []any{
		"kind", s.Kind,
		"items", s.Items,
		"added", s.Added,
		"updated", s.Updated,
		"unchanged", s.Unchanged,
		"removed", s.Removed,
		"skipped", s.Skipped,
		"failed", s.Failed,
		"active", s.Active,
	}
	if s.Kind == KindSeries {
		attrs = append(attrs, "fallback", s.Fallback, "empty", s.Empty)
	}
	return attrs
}

// Add accumulates other into s.
func (s *Summary) Add(other Summary) {
	s.Items += other.Items
	s.Added += other.Added
	s.Updated += other.Updated
	s.Unchanged += other.Unchanged
	s.Removed += other.Removed
	s.Skipped += other.Skipped
	s.Failed += other.Failed
	s.Artifacts += other.Artifacts
	s.Active += other.Active
	s.Fallback += other.Fallback
	s.Empty += other.Empty
}

// progress logs a phase's advance at 10% steps, plus the first and last item.
type progress struct {
	logger *slog.Logger
	kind   string
	total  int
	next   int
}

func newProgress(logger *slog.Logger, kind string, total int) *progress {
	return &progress{logger: logger, kind: kind, total: total, next: 10}
}

// step records that done items have been processed and reports whether a
// progress line was logged.
func (p *progress) step(done int) bool {
	if p.total <= 0 {
		return false
	}
	pct := done * 100 / p.total
	if done != 1 && done != p.total && pct < p.next {
		return false
	}
	p.logger.Info("export progress", "kind", p.kind, "percent", pct, "done", done, "total", p.total)
	for p.next <= pct && p.next < 100 {
		p.next += 10
	}
	return true
}
