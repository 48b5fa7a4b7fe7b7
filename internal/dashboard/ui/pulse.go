package ui

import (
	"fmt"
	"html/template"

	"github.com/pulseboard/pulseboard/internal/compare"
	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/snapshot"
	"github.com/pulseboard/pulseboard/internal/svg"
)

// PulseModel backs the pulse page.
type PulseModel struct {
	Pulse       snapshot.Pulse
	Cards       []Card
	TrendSVG    template.HTML
	ProductsSVG template.HTML
}

// TicketsModel backs the ticket-report page.
type TicketsModel struct {
	Tickets     snapshot.Tickets
	Cards       []Card
	TrendSVG    template.HTML
	ProductsSVG template.HTML
}

// DailyModel backs the daily operations page.
type DailyModel struct {
	Daily       snapshot.Daily
	Cards       []Card
	ProductsSVG template.HTML
}

func buildPulse(page *dashboard.Page, ev compare.Event) (*PulseModel, error) {
	var cur snapshot.Pulse
	if err := page.Doc.Decode(&cur); err != nil {
		return nil, fmt.Errorf("ui: decode pulse: %w", err)
	}
	var prev *snapshot.Pulse
	if ev.Active && ev.Previous != nil {
		prev = new(snapshot.Pulse)
		if err := ev.Previous.Decode(prev); err != nil {
			return nil, fmt.Errorf("ui: decode previous pulse: %w", err)
		}
	}

	m := &PulseModel{Pulse: cur}
	m.Cards = kpiCards(cur.KPI, kpiOf(prev))

	trend, err := trendLine(cur.DailyTrend, "Ticket volume by day")
	if err != nil {
		return nil, err
	}
	m.TrendSVG = trend

	var prevProducts []snapshot.ProductRow
	if prev != nil {
		prevProducts = prev.ProductBreakdown
	}
	products, err := productBars(cur.ProductBreakdown, prevProducts)
	if err != nil {
		return nil, err
	}
	m.ProductsSVG = products
	return m, nil
}

func buildTickets(page *dashboard.Page, ev compare.Event) (*TicketsModel, error) {
	var cur snapshot.Tickets
	if err := page.Doc.Decode(&cur); err != nil {
		return nil, fmt.Errorf("ui: decode tickets: %w", err)
	}
	var prev *snapshot.Tickets
	if ev.Active && ev.Previous != nil {
		prev = new(snapshot.Tickets)
		if err := ev.Previous.Decode(prev); err != nil {
			return nil, fmt.Errorf("ui: decode previous tickets: %w", err)
		}
	}

	m := &TicketsModel{Tickets: cur}
	var prevKPI *snapshot.KPI
	var prevProducts []snapshot.ProductRow
	if prev != nil {
		prevKPI = &prev.KPI
		prevProducts = prev.ProductBreakdown
	}
	m.Cards = kpiCards(cur.KPI, prevKPI)

	trend, err := trendLine(cur.DailyTrend, "Ticket volume by day")
	if err != nil {
		return nil, err
	}
	m.TrendSVG = trend

	products, err := productBars(cur.ProductBreakdown, prevProducts)
	if err != nil {
		return nil, err
	}
	m.ProductsSVG = products
	return m, nil
}

func buildDaily(page *dashboard.Page) (*DailyModel, error) {
	var cur snapshot.Daily
	if err := page.Doc.Decode(&cur); err != nil {
		return nil, fmt.Errorf("ui: decode daily: %w", err)
	}
	m := &DailyModel{Daily: cur}
	m.Cards = []Card{
		{Label: "Tickets", Value: formatCount(cur.KPI.TotalTickets)},
		{Label: "Products", Value: formatCount(cur.KPI.ProductCount)},
		{Label: "Top product", Value: orDash(cur.KPI.TopProduct)},
	}
	products, err := productBars(cur.ProductBreakdown, nil)
	if err != nil {
		return nil, err
	}
	m.ProductsSVG = products
	return m, nil
}

func kpiCards(cur snapshot.KPI, prev *snapshot.KPI) []Card {
	havePrev := prev != nil
	var prevTickets, prevRefunds, prevProducts int
	if havePrev {
		prevTickets = prev.TotalTickets
		prevRefunds = prev.Refunds
		prevProducts = prev.ProductCount
	}
	cards := []Card{
		countCard("Total tickets", cur.TotalTickets, prevTickets, havePrev),
		countCard("Refunds", cur.Refunds, prevRefunds, havePrev),
		countCard("Products", cur.ProductCount, prevProducts, havePrev),
	}
	if cur.DailyAvg > 0 {
		card := Card{Label: "Daily average", Value: fmt.Sprintf("%.1f", cur.DailyAvg)}
		if havePrev && prev.DailyAvg > 0 {
			d := compare.DeltaPct(cur.DailyAvg, prev.DailyAvg)
			card.Delta = fmt.Sprintf("%+d%%", d)
			card.Trend = trendOf(float64(d))
		}
		cards = append(cards, card)
	}
	return cards
}

func kpiOf(p *snapshot.Pulse) *snapshot.KPI {
	if p == nil {
		return nil
	}
	return &p.KPI
}

func trendLine(points []snapshot.TrendPoint, title string) (template.HTML, error) {
	if len(points) == 0 {
		return "", nil
	}
	series := make([]float64, len(points))
	labels := make([]string, len(points))
	for i, p := range points {
		series[i] = float64(p.Count)
		labels[i] = p.Day
	}
	return svg.Line(svg.DefaultWidth, svg.DefaultHeight, series, labels, svg.LineOpts{
		Title:    title,
		ShowDots: true,
	})
}

// productBars aligns the previous week's counts by product name so a
// product absent last week renders a zero-height comparison bar.
func productBars(cur, prev []snapshot.ProductRow) (template.HTML, error) {
	if len(cur) == 0 {
		return "", nil
	}
	seriesA := make([]float64, len(cur))
	labels := make([]string, len(cur))
	for i, row := range cur {
		seriesA[i] = float64(row.Count)
		labels[i] = row.Product
	}
	var seriesB []float64
	if prev != nil {
		byProduct := make(map[string]int, len(prev))
		for _, row := range prev {
			byProduct[row.Product] = row.Count
		}
		seriesB = make([]float64, len(cur))
		for i, row := range cur {
			seriesB[i] = float64(byProduct[row.Product])
		}
	}
	return svg.Bars(svg.DefaultWidth, svg.DefaultHeight, seriesA, seriesB, labels, svg.BarOpts{
		Title: "Tickets by product",
	})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
