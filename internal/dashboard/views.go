// Package dashboard holds the view registry, session state and the
// navigation router that drives every page render.
package dashboard

import "github.com/pulseboard/pulseboard/internal/snapshot"

// ViewID names a top-level dashboard view.
type ViewID string

// The three dashboard views.
const (
	ViewDaily   ViewID = "daily"
	ViewWeekly  ViewID = "weekly"
	ViewMonthly ViewID = "monthly"
)

// PeriodType decides how the period selector is populated and labeled.
type PeriodType string

// Period selector modes.
const (
	PeriodDay   PeriodType = "day"
	PeriodWeek  PeriodType = "week"
	PeriodMonth PeriodType = "month"
)

// Report is one selectable report within a view. Placeholder reports have
// no backing data directory and render a static page.
type Report struct {
	ID          string
	Title       string
	Dir         string
	Placeholder bool
}

// View is a top-level dashboard view with its fixed, ordered report list.
type View struct {
	ID         ViewID
	Title      string
	PeriodType PeriodType
	Reports    []Report
}

// Aggregated reports whether the view serves monthly roll-ups instead of
// raw weekly files.
func (v View) Aggregated() bool {
	return v.PeriodType == PeriodMonth
}

// Report resolves a report by id, falling back to the view's first report.
func (v View) Report(id string) Report {
	for _, r := range v.Reports {
		if r.ID == id {
			return r
		}
	}
	return v.Reports[0]
}

var registry = []View{
	{
		ID:         ViewDaily,
		Title:      "Daily",
		PeriodType: PeriodDay,
		Reports: []Report{
			{ID: "daily", Title: "Daily Ops", Dir: snapshot.DirDaily},
		},
	},
	{
		ID:         ViewWeekly,
		Title:      "Weekly",
		PeriodType: PeriodWeek,
		Reports: []Report{
			{ID: "pulse", Title: "Support Pulse", Dir: snapshot.DirPulse},
			{ID: "tickets", Title: "Ticket Report", Dir: snapshot.DirTickets},
			{ID: "qa", Title: "QA Report", Dir: snapshot.DirQA},
			{ID: "dsat", Title: "DSAT Review", Dir: snapshot.DirDSAT},
		},
	},
	{
		ID:         ViewMonthly,
		Title:      "Monthly",
		PeriodType: PeriodMonth,
		Reports: []Report{
			{ID: "pulse", Title: "Support Pulse", Dir: snapshot.DirPulse},
			{ID: "qa", Title: "QA Report", Dir: snapshot.DirQA},
			{ID: "manual", Title: "Manual Review", Placeholder: true},
		},
	},
}

// Views returns the ordered view registry.
func Views() []View {
	return registry
}

// ViewByID resolves a view, falling back to the weekly view for unknown
// identifiers.
func ViewByID(id ViewID) View {
	for _, v := range registry {
		if v.ID == id {
			return v
		}
	}
	return ViewByID(ViewWeekly)
}
