// Package compare implements the previous-period comparison toggle and its
// delta arithmetic.
package compare

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/pulseboard/pulseboard/internal/snapshot"
	"github.com/pulseboard/pulseboard/internal/store"
)

// Event describes a toggle outcome delivered to observers and renderers.
// Previous is nil when comparison is off or no earlier week exists.
type Event struct {
	Active   bool
	Week     string
	Previous *snapshot.Document
}

// State is the per-session comparison state. The previous snapshot is
// fetched once on first activation and kept across subsequent toggles;
// navigation resets the whole value.
type State struct {
	Active   bool
	Previous *snapshot.Document
	fetched  bool
}

// Reset clears the state after a navigation.
func (s *State) Reset() {
	*s = State{}
}

// Event materialises the observable view of the state.
func (s *State) Event(week string) Event {
	return Event{Active: s.Active, Week: week, Previous: s.Previous}
}

// Observer receives every toggle event.
type Observer func(Event)

// Engine resolves previous-period snapshots and fans toggle events out to
// an explicit observer list.
type Engine struct {
	store  store.Store
	logger *slog.Logger

	mu        sync.Mutex
	observers []Observer
}

// NewEngine constructs the compare engine.
func NewEngine(st store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: st, logger: logger}
}

// Subscribe appends an observer. Observers are called synchronously in
// subscription order on every toggle, activation and deactivation alike.
func (e *Engine) Subscribe(obs Observer) {
	if obs == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, obs)
}

// Toggle flips the comparison state for the given report position. The
// first activation resolves the index week immediately preceding week and
// fetches its snapshot; a missing previous week leaves Previous nil without
// failing the toggle.
func (e *Engine) Toggle(ctx context.Context, st *State, dir, week string) (Event, error) {
	st.Active = !st.Active
	if st.Active && !st.fetched {
		prev, err := e.fetchPrevious(ctx, dir, week)
		if err != nil {
			st.Active = false
			return Event{}, err
		}
		st.Previous = prev
		st.fetched = true
	}
	event := st.Event(week)
	e.broadcast(event)
	return event, nil
}

func (e *Engine) fetchPrevious(ctx context.Context, dir, week string) (*snapshot.Document, error) {
	idx, err := e.store.Index(ctx)
	if err != nil {
		return nil, err
	}
	prevWeek := previousWeek(idx.Weeks, week)
	if prevWeek == "" {
		return nil, nil
	}
	doc, err := e.store.Week(ctx, dir, prevWeek)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		e.logger.Debug("no previous snapshot", slog.String("dir", dir), slog.String("week", prevWeek))
	}
	return doc, nil
}

func (e *Engine) broadcast(event Event) {
	e.mu.Lock()
	observers := make([]Observer, len(e.observers))
	copy(observers, e.observers)
	e.mu.Unlock()
	for _, obs := range observers {
		obs(event)
	}
}

// previousWeek finds the index entry immediately after week in the
// newest-first list, i.e. the chronologically preceding period.
func previousWeek(weeks []string, week string) string {
	for i, w := range weeks {
		if w == week {
			if i+1 < len(weeks) {
				return weeks[i+1]
			}
			return ""
		}
	}
	return ""
}

// DeltaPct returns the percentage change from previous to current, rounded
// to the nearest whole percent. A zero previous yields zero rather than a
// division blowup.
func DeltaPct(current, previous float64) int {
	if previous == 0 {
		return 0
	}
	return int(math.Round((current - previous) / previous * 100))
}

// DeltaPoints returns the difference between two values already expressed
// in percentage points, rounded to one decimal.
func DeltaPoints(current, previous float64) float64 {
	return math.Round((current-previous)*10) / 10
}
