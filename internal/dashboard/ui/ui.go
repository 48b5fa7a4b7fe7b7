// Package ui shapes loaded snapshots into the view models the HTML
// templates consume: KPI cards, tables and pre-rendered charts.
package ui

import (
	"fmt"

	"github.com/pulseboard/pulseboard/internal/compare"
	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/period"
	"github.com/pulseboard/pulseboard/internal/snapshot"
)

// Card is one KPI tile. Delta is empty unless comparison is active and a
// previous value exists.
type Card struct {
	Label string
	Value string
	Delta string
	Trend string
}

// NavLink is one tab in the view or report switcher.
type NavLink struct {
	Label  string
	URL    string
	Active bool
}

// Model pairs a page with the template that renders it.
type Model struct {
	Page        *dashboard.Page
	Compare     compare.Event
	PrevLabel   string
	Template    string
	ViewLinks   []NavLink
	ReportLinks []NavLink
	Data        any
}

// Build decodes the page document into the report's view model.
func Build(page *dashboard.Page, ev compare.Event) (*Model, error) {
	m := &Model{Page: page, Compare: ev}
	m.ViewLinks, m.ReportLinks = navLinks(page)
	if ev.Active && ev.Previous != nil {
		if w, err := period.Parse(ev.Previous.Week); err == nil {
			m.PrevLabel = w.Label()
		} else {
			m.PrevLabel = ev.Previous.Week
		}
	}

	if page.Report.Placeholder {
		m.Template = "placeholder.html"
		return m, nil
	}

	var err error
	switch page.Report.Dir {
	case snapshot.DirPulse:
		m.Template = "pulse.html"
		m.Data, err = buildPulse(page, ev)
	case snapshot.DirTickets:
		m.Template = "tickets.html"
		m.Data, err = buildTickets(page, ev)
	case snapshot.DirQA:
		m.Template = "qa.html"
		m.Data, err = buildQA(page, ev)
	case snapshot.DirDSAT:
		m.Template = "dsat.html"
		m.Data, err = buildDSAT(page, ev)
	case snapshot.DirDaily:
		m.Template = "daily.html"
		m.Data, err = buildDaily(page)
	default:
		return nil, fmt.Errorf("ui: no renderer for %s", page.Report.Dir)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// navLinks builds the switcher tabs. Daily and weekly views share the
// week key, so the period carries over between them; crossing the month
// boundary resets it to latest. The report carries over when the target
// view has it.
func navLinks(page *dashboard.Page) (views, reports []NavLink) {
	fromMonth := page.View.PeriodType == dashboard.PeriodMonth
	for _, v := range dashboard.Views() {
		req := dashboard.NavRequest{View: v.ID, Report: page.Report.ID, Period: period.Latest}
		if (v.PeriodType == dashboard.PeriodMonth) == fromMonth {
			req.Period = page.Period
		}
		views = append(views, NavLink{
			Label:  v.Title,
			URL:    "/?" + req.Values().Encode(),
			Active: v.ID == page.View.ID,
		})
	}
	for _, r := range page.View.Reports {
		req := dashboard.NavRequest{View: page.View.ID, Report: r.ID, Period: page.Period}
		reports = append(reports, NavLink{
			Label:  r.Title,
			URL:    "/?" + req.Values().Encode(),
			Active: r.ID == page.Report.ID,
		})
	}
	return views, reports
}

func countCard(label string, current, previous int, havePrev bool) Card {
	c := Card{Label: label, Value: formatCount(current)}
	if havePrev {
		d := compare.DeltaPct(float64(current), float64(previous))
		c.Delta = fmt.Sprintf("%+d%%", d)
		c.Trend = trendOf(float64(d))
	}
	return c
}

func pctCard(label string, current, previous float64, havePrev bool) Card {
	c := Card{Label: label, Value: fmt.Sprintf("%.1f%%", current)}
	if havePrev {
		d := compare.DeltaPoints(current, previous)
		c.Delta = fmt.Sprintf("%+.1f pts", d)
		c.Trend = trendOf(d)
	}
	return c
}

func trendOf(d float64) string {
	switch {
	case d > 0:
		return "up"
	case d < 0:
		return "down"
	default:
		return "flat"
	}
}

func formatCount(n int) string {
	if n >= 10000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return fmt.Sprintf("%d", n)
}
