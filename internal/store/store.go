// Package store loads report snapshots from the published data root and
// resolves the "latest" and fallback semantics the dashboard relies on.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/pulseboard/pulseboard/internal/period"
	"github.com/pulseboard/pulseboard/internal/snapshot"
)

// indexMemoTTL bounds how long a memoized index survives without an
// explicit invalidation, so a fresh publish shows up even when no bump
// arrives (no Redis, worker down).
const indexMemoTTL = time.Minute

// ErrNoData marks a period for which no snapshot could be resolved, even
// after falling back through older weeks.
var ErrNoData = errors.New("store: no data for period")

// Store is the read surface over the data root.
type Store interface {
	// Index returns the published period index. Months and LatestMonth are
	// derived from the weeks when the pipeline omitted them.
	Index(ctx context.Context) (*snapshot.Index, error)
	// Report resolves a snapshot for the requested week, walking the index
	// toward older weeks when the exact file is missing. week may be
	// "latest". Exhausting the index yields ErrNoData.
	Report(ctx context.Context, dir, week string) (*snapshot.Document, error)
	// Week fetches exactly one week's snapshot. A missing file returns
	// (nil, nil); aggregation and compare tolerate gaps.
	Week(ctx context.Context, dir, week string) (*snapshot.Document, error)
}

// FallbackObserver is notified when Report serves an older week than the
// one requested.
type FallbackObserver interface {
	SnapshotFallback(dir, requested, served string)
}

// FS reads snapshots from an fs.FS rooted at the data directory.
type FS struct {
	fsys     fs.FS
	logger   *slog.Logger
	observer FallbackObserver

	mu       sync.Mutex
	idx      *snapshot.Index
	idxFetch time.Time
	now      func() time.Time
}

// NewFS constructs the filesystem store.
func NewFS(fsys fs.FS, logger *slog.Logger) *FS {
	if logger == nil {
		logger = slog.Default()
	}
	return &FS{fsys: fsys, logger: logger, now: time.Now}
}

// WithNow overrides the store clock for testing.
func (s *FS) WithNow(fn func() time.Time) *FS {
	if fn != nil {
		s.now = fn
	}
	return s
}

// WithObserver installs a fallback observer, usually the metrics registry.
func (s *FS) WithObserver(obs FallbackObserver) *FS {
	s.observer = obs
	return s
}

// Index loads and memoizes the index document. The memo is cleared by
// InvalidateIndex when a publish bumps the cache, and expires on its own
// after indexMemoTTL.
func (s *FS) Index(ctx context.Context) (*snapshot.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx != nil && s.now().Sub(s.idxFetch) < indexMemoTTL {
		return s.idx, nil
	}
	raw, err := fs.ReadFile(s.fsys, "index.json")
	if err != nil {
		return nil, fmt.Errorf("store: read index: %w", err)
	}
	var idx snapshot.Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, fmt.Errorf("store: decode index: %w", err)
	}
	if idx.Latest == "" && len(idx.Weeks) > 0 {
		idx.Latest = idx.Weeks[0]
	}
	if len(idx.Months) == 0 {
		idx.Months = period.MonthsOf(idx.Weeks)
	}
	if idx.LatestMonth == "" && len(idx.Months) > 0 {
		idx.LatestMonth = idx.Months[0]
	}
	s.idx = &idx
	s.idxFetch = s.now()
	return s.idx, nil
}

// InvalidateIndex drops the memoized index so the next read hits the
// data root again.
func (s *FS) InvalidateIndex() {
	s.mu.Lock()
	s.idx = nil
	s.mu.Unlock()
}

// Week reads one snapshot file. Missing files are not an error.
func (s *FS) Week(ctx context.Context, dir, week string) (*snapshot.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := path.Join(dir, week+".json")
	raw, err := fs.ReadFile(s.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", name, err)
	}
	body, err := snapshot.Normalize(dir, raw)
	if err != nil {
		return nil, err
	}
	return &snapshot.Document{Dir: dir, Week: week, Body: body}, nil
}

// Report resolves the requested week, falling back through older index
// weeks when the exact snapshot is missing.
func (s *FS) Report(ctx context.Context, dir, week string) (*snapshot.Document, error) {
	idx, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	if week == "" || week == period.Latest {
		week = idx.Latest
	}
	if week == "" {
		return nil, fmt.Errorf("%w: empty index", ErrNoData)
	}

	doc, err := s.Week(ctx, dir, week)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		return doc, nil
	}

	for _, candidate := range olderWeeks(idx.Weeks, week) {
		doc, err := s.Week(ctx, dir, candidate)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			continue
		}
		s.logger.Warn("snapshot fallback",
			slog.String("dir", dir),
			slog.String("requested", week),
			slog.String("served", candidate))
		if s.observer != nil {
			s.observer.SnapshotFallback(dir, week, candidate)
		}
		return doc, nil
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrNoData, dir, week)
}

// olderWeeks returns the index weeks strictly older than the requested
// week. Weeks are sorted newest first and the YYYY-Www form orders
// lexicographically, so a string comparison suffices. An unknown week
// falls back through the whole index.
func olderWeeks(weeks []string, week string) []string {
	out := make([]string, 0, len(weeks))
	for _, w := range weeks {
		if w < week {
			out = append(out, w)
		}
	}
	return out
}
