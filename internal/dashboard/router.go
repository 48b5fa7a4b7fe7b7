package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/pulseboard/pulseboard/internal/aggregate"
	"github.com/pulseboard/pulseboard/internal/period"
	"github.com/pulseboard/pulseboard/internal/snapshot"
	"github.com/pulseboard/pulseboard/internal/store"
)

// ErrBusy marks a navigation dropped because another one is still in
// flight. Dropped navigations are never queued.
var ErrBusy = errors.New("dashboard: navigation in progress")

// RenderObserver is notified of every completed navigation.
type RenderObserver interface {
	PageRender(view, report string)
}

// PeriodOption is one entry in the period selector.
type PeriodOption struct {
	Value    string
	Label    string
	Selected bool
}

// Page is the outcome of a completed navigation, ready for rendering.
type Page struct {
	View        View
	Report      Report
	Period      string
	PeriodLabel string
	Periods     []PeriodOption
	Doc         *snapshot.Document
	Query       url.Values
	// CompareAllowed is false for placeholder pages and monthly roll-ups,
	// which have no immediately preceding week to diff against.
	CompareAllowed bool
}

// Router executes navigation transitions against the snapshot store.
type Router struct {
	logger   *slog.Logger
	store    store.Store
	observer RenderObserver
	busy     atomic.Bool
}

// NewRouter constructs the navigation router.
func NewRouter(st store.Store, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{logger: logger, store: st}
}

// WithObserver installs a render observer, usually the metrics registry.
func (r *Router) WithObserver(obs RenderObserver) *Router {
	r.observer = obs
	return r
}

// Navigate runs one full transition: resolve the target, refresh the
// period options, load (or aggregate) the snapshot and record the new
// position on the session. The busy guard spans the whole transition, so
// an overlapping call is dropped before it issues any fetch.
func (r *Router) Navigate(ctx context.Context, sess *Session, req NavRequest) (*Page, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer r.busy.Store(false)

	view := ViewByID(req.View)
	report := view.Report(req.Report)

	idx, err := r.store.Index(ctx)
	if err != nil {
		return nil, err
	}

	resolved := r.resolvePeriod(idx, view, req.Period)
	page := &Page{
		View:           view,
		Report:         report,
		Period:         resolved,
		PeriodLabel:    periodLabel(view.PeriodType, resolved),
		Periods:        periodOptions(idx, view.PeriodType, resolved),
		Query:          NavRequest{View: view.ID, Report: report.ID, Period: resolved}.Values(),
		CompareAllowed: !report.Placeholder && view.PeriodType != PeriodMonth,
	}

	switch {
	case report.Placeholder:
		// Static page, nothing to load.
	case view.Aggregated():
		doc, err := r.AggregateMonth(ctx, report.Dir, resolved)
		if err != nil {
			return nil, err
		}
		page.Doc = doc
	default:
		doc, err := r.store.Report(ctx, report.Dir, resolved)
		if err != nil {
			return nil, err
		}
		page.Doc = doc
		// The address bar should reflect what is actually on screen when
		// the loader fell back to an older week.
		if doc.Week != resolved {
			page.Period = doc.Week
			page.PeriodLabel = periodLabel(view.PeriodType, doc.Week)
			page.Periods = periodOptions(idx, view.PeriodType, doc.Week)
			page.Query = NavRequest{View: view.ID, Report: report.ID, Period: doc.Week}.Values()
		}
	}

	if sess != nil {
		sess.SetPosition(view.ID, report.ID, page.Period)
	}
	if r.observer != nil {
		r.observer.PageRender(string(view.ID), report.ID)
	}
	r.logger.Debug("navigated",
		slog.String("view", string(view.ID)),
		slog.String("report", report.ID),
		slog.String("period", page.Period))
	return page, nil
}

// AggregateMonth loads every constituent week of month concurrently and
// merges them. Missing weeks are tolerated; a month with zero resolvable
// weeks is ErrNoData.
func (r *Router) AggregateMonth(ctx context.Context, dir, month string) (*snapshot.Document, error) {
	idx, err := r.store.Index(ctx)
	if err != nil {
		return nil, err
	}
	if month == "" || month == period.Latest {
		month = idx.LatestMonth
	}
	if !period.IsMonth(month) {
		return nil, fmt.Errorf("%w: bad month %q", store.ErrNoData, month)
	}

	weeks := period.WeeksOfMonth(idx.Weeks, month)
	// Oldest first: trend concatenation and latest-week-wins both assume
	// chronological order.
	sort.Strings(weeks)

	docs := make([]*snapshot.Document, len(weeks))
	g, gctx := errgroup.WithContext(ctx)
	for i, week := range weeks {
		g.Go(func() error {
			doc, err := r.store.Week(gctx, dir, week)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resolved := docs[:0]
	for _, doc := range docs {
		if doc != nil {
			resolved = append(resolved, doc)
		}
	}
	if len(resolved) == 0 {
		return nil, fmt.Errorf("%w: no weeks for %s/%s", store.ErrNoData, dir, month)
	}

	body, err := mergeDocs(dir, resolved, month)
	if err != nil {
		return nil, err
	}
	return &snapshot.Document{Dir: dir, Week: month, Body: body}, nil
}

func mergeDocs(dir string, docs []*snapshot.Document, month string) ([]byte, error) {
	switch dir {
	case snapshot.DirPulse:
		weeks := make([]snapshot.Pulse, 0, len(docs))
		for _, doc := range docs {
			var p snapshot.Pulse
			if err := doc.Decode(&p); err != nil {
				return nil, err
			}
			weeks = append(weeks, p)
		}
		return marshalDoc(aggregate.Pulse(weeks, month))
	case snapshot.DirQA:
		weeks := make([]snapshot.QA, 0, len(docs))
		for _, doc := range docs {
			var q snapshot.QA
			if err := doc.Decode(&q); err != nil {
				return nil, err
			}
			weeks = append(weeks, q)
		}
		return marshalDoc(aggregate.QA(weeks, month))
	default:
		return nil, fmt.Errorf("dashboard: no monthly aggregation for %s", dir)
	}
}

func marshalDoc(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (r *Router) resolvePeriod(idx *snapshot.Index, view View, p string) string {
	if view.PeriodType == PeriodMonth {
		if period.IsMonth(p) {
			return p
		}
		return idx.LatestMonth
	}
	if period.IsWeek(p) {
		return p
	}
	return idx.Latest
}

func periodLabel(pt PeriodType, p string) string {
	switch pt {
	case PeriodMonth:
		return period.MonthLabel(p)
	case PeriodDay:
		if w, err := period.Parse(p); err == nil {
			return w.DayLabel()
		}
	default:
		if w, err := period.Parse(p); err == nil {
			return w.Label()
		}
	}
	return p
}

func periodOptions(idx *snapshot.Index, pt PeriodType, selected string) []PeriodOption {
	if pt == PeriodMonth {
		opts := make([]PeriodOption, 0, len(idx.Months))
		for _, m := range idx.Months {
			opts = append(opts, PeriodOption{Value: m, Label: period.MonthLabel(m), Selected: m == selected})
		}
		return opts
	}
	opts := make([]PeriodOption, 0, len(idx.Weeks))
	for _, weekID := range idx.Weeks {
		opts = append(opts, PeriodOption{Value: weekID, Label: periodLabel(pt, weekID), Selected: weekID == selected})
	}
	return opts
}
