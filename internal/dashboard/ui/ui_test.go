package ui

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pulseboard/pulseboard/internal/compare"
	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/snapshot"
)

func pageFor(t *testing.T, reportID, dir, week string, body string) *dashboard.Page {
	t.Helper()
	view := dashboard.ViewByID(dashboard.ViewWeekly)
	return &dashboard.Page{
		View:   view,
		Report: view.Report(reportID),
		Period: week,
		Doc:    &snapshot.Document{Dir: dir, Week: week, Body: json.RawMessage(body)},
	}
}

func TestBuildPulse(t *testing.T) {
	page := pageFor(t, "pulse", snapshot.DirPulse, "2026-W33", `{
		"period": "2026-W33",
		"kpi": {"totalTickets": 120, "refunds": 4, "productCount": 2, "topProduct": "Widget", "dailyAvg": 17.1},
		"dailyTrend": [{"day": "Mon", "count": 20}, {"day": "Tue", "count": 30}],
		"productBreakdown": [{"product": "Widget", "count": 80, "pct": 66.7}, {"product": "Gadget", "count": 40, "pct": 33.3}]
	}`)

	m, err := Build(page, compare.Event{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Template != "pulse.html" {
		t.Fatalf("template = %s", m.Template)
	}
	data := m.Data.(*PulseModel)
	if len(data.Cards) != 4 {
		t.Fatalf("cards = %+v", data.Cards)
	}
	if data.Cards[0].Value != "120" || data.Cards[0].Delta != "" {
		t.Fatalf("tickets card = %+v", data.Cards[0])
	}
	if data.TrendSVG == "" || data.ProductsSVG == "" {
		t.Fatal("charts missing")
	}
	if strings.Contains(string(data.ProductsSVG), "Previous") {
		t.Fatal("single-series chart should not carry a comparison legend")
	}
}

func TestBuildPulseWithComparison(t *testing.T) {
	page := pageFor(t, "pulse", snapshot.DirPulse, "2026-W33", `{
		"period": "2026-W33",
		"kpi": {"totalTickets": 120, "refunds": 4, "productCount": 2},
		"productBreakdown": [{"product": "Widget", "count": 80, "pct": 66.7}, {"product": "Gizmo", "count": 40, "pct": 33.3}]
	}`)
	ev := compare.Event{
		Active: true,
		Week:   "2026-W33",
		Previous: &snapshot.Document{Dir: snapshot.DirPulse, Week: "2026-W32", Body: json.RawMessage(`{
			"period": "2026-W32",
			"kpi": {"totalTickets": 100, "refunds": 4, "productCount": 2},
			"productBreakdown": [{"product": "Widget", "count": 100, "pct": 100}]
		}`)},
	}

	m, err := Build(page, ev)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.PrevLabel == "" {
		t.Fatal("previous week label missing")
	}
	data := m.Data.(*PulseModel)
	if data.Cards[0].Delta != "+20%" || data.Cards[0].Trend != "up" {
		t.Fatalf("tickets delta = %+v", data.Cards[0])
	}
	if data.Cards[1].Delta != "+0%" || data.Cards[1].Trend != "flat" {
		t.Fatalf("refunds delta = %+v", data.Cards[1])
	}
	if !strings.Contains(string(data.ProductsSVG), "Previous") {
		t.Fatal("comparison chart should carry the overlay legend")
	}
}

func TestBuildQA(t *testing.T) {
	page := pageFor(t, "qa", snapshot.DirQA, "2026-W33", `{
		"period": "2026-W33",
		"bcr": {"overall": 85.5, "target": 90, "qaCount": 17, "customerCount": 3},
		"bcrWeeklyTrend": [{"week": "2026-W32", "weekRate": 80}, {"week": "2026-W33", "weekRate": 85.5}],
		"testExecution": {"totalRuns": 6, "passRate": 0.9, "velocity": 120, "blockedPct": 0.05},
		"regressionTrend": [{"product": "Widget", "passRate": 93}]
	}`)

	m, err := Build(page, compare.Event{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	data := m.Data.(*QAModel)
	if len(data.Cards) != 4 {
		t.Fatalf("cards = %+v", data.Cards)
	}
	if data.Cards[0].Value != "85.5%" {
		t.Fatalf("bcr card = %+v", data.Cards[0])
	}
	if data.Cards[3].Value != "90.0%" {
		t.Fatalf("pass rate card = %+v", data.Cards[3])
	}
	if data.BCRTrendSVG == "" || data.RegressionSVG == "" {
		t.Fatal("charts missing")
	}
}

func TestBuildDSATShare(t *testing.T) {
	page := pageFor(t, "dsat", snapshot.DirDSAT, "2026-W33", `{
		"period": "2026-W33",
		"totalBadRatings": 40,
		"withComments": 25,
		"aiNegative": 10,
		"aiNegativeRateOfComments": 40,
		"aiNegativeRateOfAll": 25
	}`)

	m, err := Build(page, compare.Event{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	data := m.Data.(*DSATModel)
	share := string(data.ShareSVG)
	for _, want := range []string{"AI negative", "Other comments", "No comment", "25%"} {
		if !strings.Contains(share, want) {
			t.Fatalf("share chart missing %q: %s", want, share)
		}
	}
	if data.Cards[3].Value != "40.0%" {
		t.Fatalf("rate card = %+v", data.Cards[3])
	}
}

func TestNavLinks(t *testing.T) {
	page := pageFor(t, "qa", snapshot.DirQA, "2026-W33", `{"period": "2026-W33", "bcr": {"overall": 85}}`)
	m, err := Build(page, compare.Event{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.ViewLinks) != 3 || len(m.ReportLinks) != 4 {
		t.Fatalf("links = %d views, %d reports", len(m.ViewLinks), len(m.ReportLinks))
	}
	if !m.ViewLinks[1].Active {
		t.Fatalf("weekly tab should be active: %+v", m.ViewLinks)
	}
	// Same granularity keeps the period, monthly resets to latest.
	if !strings.Contains(m.ViewLinks[0].URL, "week=2026-W33") {
		t.Fatalf("daily link = %s", m.ViewLinks[0].URL)
	}
	if !strings.Contains(m.ViewLinks[2].URL, "month=latest") {
		t.Fatalf("monthly link = %s", m.ViewLinks[2].URL)
	}
	if !strings.Contains(m.ReportLinks[3].URL, "report=dsat") {
		t.Fatalf("dsat link = %s", m.ReportLinks[3].URL)
	}
}

func TestBuildPlaceholder(t *testing.T) {
	view := dashboard.ViewByID(dashboard.ViewMonthly)
	page := &dashboard.Page{View: view, Report: view.Report("manual")}
	m, err := Build(page, compare.Event{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Template != "placeholder.html" || m.Data != nil {
		t.Fatalf("model = %+v", m)
	}
}
