package store

import (
	"context"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/pulseboard/pulseboard/internal/snapshot"
)

type countingStore struct {
	inner Store
	reads atomic.Int64
}

func (c *countingStore) Index(ctx context.Context) (*snapshot.Index, error) {
	return c.inner.Index(ctx)
}

func (c *countingStore) Report(ctx context.Context, dir, week string) (*snapshot.Document, error) {
	c.reads.Add(1)
	return c.inner.Report(ctx, dir, week)
}

func (c *countingStore) Week(ctx context.Context, dir, week string) (*snapshot.Document, error) {
	c.reads.Add(1)
	return c.inner.Week(ctx, dir, week)
}

func newCacheFixture(t *testing.T) (*Cached, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	counting := &countingStore{inner: NewFS(testData(), nil)}
	return NewCached(counting, client, time.Minute), counting, mr
}

func TestCachedReportHit(t *testing.T) {
	cached, counting, _ := newCacheFixture(t)
	ctx := context.Background()

	doc1, err := cached.Report(ctx, snapshot.DirPulse, "latest")
	if err != nil {
		t.Fatalf("first Report: %v", err)
	}
	doc2, err := cached.Report(ctx, snapshot.DirPulse, "latest")
	if err != nil {
		t.Fatalf("second Report: %v", err)
	}
	if doc1.Week != doc2.Week {
		t.Fatalf("cached week mismatch: %s vs %s", doc1.Week, doc2.Week)
	}
	if got := counting.reads.Load(); got != 1 {
		t.Fatalf("inner reads = %d, want 1", got)
	}
}

func TestCachedWeekCachesMisses(t *testing.T) {
	cached, counting, _ := newCacheFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		doc, err := cached.Week(ctx, snapshot.DirPulse, "2026-W30")
		if err != nil {
			t.Fatalf("Week: %v", err)
		}
		if doc != nil {
			t.Fatalf("expected nil doc, got %+v", doc)
		}
	}
	if got := counting.reads.Load(); got != 1 {
		t.Fatalf("inner reads = %d, want 1", got)
	}
}

func TestBumpInvalidates(t *testing.T) {
	cached, counting, _ := newCacheFixture(t)
	ctx := context.Background()

	if _, err := cached.Report(ctx, snapshot.DirPulse, "latest"); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if err := cached.Bump(ctx); err != nil {
		t.Fatalf("Bump: %v", err)
	}
	if _, err := cached.Report(ctx, snapshot.DirPulse, "latest"); err != nil {
		t.Fatalf("Report after bump: %v", err)
	}
	if got := counting.reads.Load(); got != 2 {
		t.Fatalf("inner reads = %d, want 2 after bump", got)
	}
}

func TestBumpRefreshesIndex(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	fsys := testData()
	cached := NewCached(NewFS(fsys, nil), client, time.Minute)
	ctx := context.Background()

	if _, err := cached.Report(ctx, snapshot.DirPulse, "latest"); err != nil {
		t.Fatalf("Report: %v", err)
	}

	// A new publish rewrites the index and adds the week's snapshot.
	fsys["index.json"] = &fstest.MapFile{Data: []byte(`{
		"latest": "2026-W34",
		"weeks": ["2026-W34", "2026-W33", "2026-W32", "2026-W31", "2026-W30"]
	}`)}
	fsys["pulse/2026-W34.json"] = &fstest.MapFile{Data: []byte(`{"period":"2026-W34","kpi":{"totalTickets":150}}`)}

	if err := cached.Bump(ctx); err != nil {
		t.Fatalf("Bump: %v", err)
	}

	idx, err := cached.Index(ctx)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if idx.Latest != "2026-W34" {
		t.Fatalf("latest after bump = %s, want 2026-W34", idx.Latest)
	}
	doc, err := cached.Report(ctx, snapshot.DirPulse, "latest")
	if err != nil {
		t.Fatalf("Report after bump: %v", err)
	}
	if doc.Week != "2026-W34" {
		t.Fatalf("latest report week = %s, want 2026-W34", doc.Week)
	}
}

func TestNilClientPassesThrough(t *testing.T) {
	counting := &countingStore{inner: NewFS(testData(), nil)}
	cached := NewCached(counting, nil, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := cached.Report(ctx, snapshot.DirPulse, "latest"); err != nil {
			t.Fatalf("Report: %v", err)
		}
	}
	if got := counting.reads.Load(); got != 2 {
		t.Fatalf("inner reads = %d, want 2 without redis", got)
	}
}
