package compare

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/pulseboard/pulseboard/internal/snapshot"
	"github.com/pulseboard/pulseboard/internal/store"
)

func newEngine(t *testing.T) (*Engine, *State) {
	t.Helper()
	fsys := fstest.MapFS{
		"index.json":          &fstest.MapFile{Data: []byte(`{"latest":"2026-W33","weeks":["2026-W33","2026-W32","2026-W31"]}`)},
		"pulse/2026-W33.json": &fstest.MapFile{Data: []byte(`{"period":"2026-W33","kpi":{"totalTickets":120}}`)},
		"pulse/2026-W32.json": &fstest.MapFile{Data: []byte(`{"period":"2026-W32","kpi":{"totalTickets":100}}`)},
	}
	return NewEngine(store.NewFS(fsys, nil), nil), &State{}
}

func TestToggleFetchesPreviousOnce(t *testing.T) {
	engine, st := newEngine(t)
	ctx := context.Background()

	event, err := engine.Toggle(ctx, st, snapshot.DirPulse, "2026-W33")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !event.Active || event.Previous == nil || event.Previous.Week != "2026-W32" {
		t.Fatalf("activation event = %+v", event)
	}

	// Deactivate, then re-activate: the cached snapshot must survive.
	event, err = engine.Toggle(ctx, st, snapshot.DirPulse, "2026-W33")
	if err != nil {
		t.Fatalf("Toggle off: %v", err)
	}
	if event.Active {
		t.Fatalf("expected inactive event, got %+v", event)
	}
	if st.Previous == nil {
		t.Fatal("cached previous snapshot dropped on deactivation")
	}
	event, err = engine.Toggle(ctx, st, snapshot.DirPulse, "2026-W33")
	if err != nil {
		t.Fatalf("Toggle on again: %v", err)
	}
	if !event.Active || event.Previous == nil {
		t.Fatalf("re-activation event = %+v", event)
	}
}

func TestToggleMissingPreviousWeek(t *testing.T) {
	engine, st := newEngine(t)
	// W32 exists in the index but W31 has no pulse file.
	event, err := engine.Toggle(context.Background(), st, snapshot.DirPulse, "2026-W32")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !event.Active || event.Previous != nil {
		t.Fatalf("expected active event with nil previous, got %+v", event)
	}
}

func TestToggleOldestWeekHasNoPrevious(t *testing.T) {
	engine, st := newEngine(t)
	event, err := engine.Toggle(context.Background(), st, snapshot.DirPulse, "2026-W31")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if event.Previous != nil {
		t.Fatalf("oldest week should have nil previous: %+v", event)
	}
}

func TestObserversSeeEveryToggle(t *testing.T) {
	engine, st := newEngine(t)
	var events []Event
	engine.Subscribe(func(e Event) { events = append(events, e) })
	engine.Subscribe(func(e Event) { events = append(events, e) })

	ctx := context.Background()
	if _, err := engine.Toggle(ctx, st, snapshot.DirPulse, "2026-W33"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if _, err := engine.Toggle(ctx, st, snapshot.DirPulse, "2026-W33"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("observer calls = %d, want 4", len(events))
	}
	if !events[0].Active || events[2].Active {
		t.Fatalf("event order wrong: %+v", events)
	}
}

func TestStateReset(t *testing.T) {
	engine, st := newEngine(t)
	if _, err := engine.Toggle(context.Background(), st, snapshot.DirPulse, "2026-W33"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	st.Reset()
	if st.Active || st.Previous != nil || st.fetched {
		t.Fatalf("state not cleared: %+v", st)
	}
}

func TestDeltaPct(t *testing.T) {
	cases := []struct {
		current, previous float64
		want              int
	}{
		{110, 100, 10},
		{90, 100, -10},
		{100, 0, 0},
		{0, 50, -100},
		{105, 100, 5},
		{104.4, 100, 4},
	}
	for _, tc := range cases {
		if got := DeltaPct(tc.current, tc.previous); got != tc.want {
			t.Errorf("DeltaPct(%v, %v) = %d, want %d", tc.current, tc.previous, got, tc.want)
		}
	}
}

func TestDeltaPoints(t *testing.T) {
	if got := DeltaPoints(82.5, 80.0); got != 2.5 {
		t.Fatalf("DeltaPoints = %v, want 2.5", got)
	}
	if got := DeltaPoints(79.96, 80.0); got != 0.0 {
		t.Fatalf("DeltaPoints = %v, want 0.0", got)
	}
}
