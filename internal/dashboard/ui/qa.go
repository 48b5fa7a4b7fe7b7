package ui

import (
	"fmt"
	"html/template"

	"github.com/pulseboard/pulseboard/internal/compare"
	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/snapshot"
	"github.com/pulseboard/pulseboard/internal/svg"
)

// QAModel backs the QA page.
type QAModel struct {
	QA            snapshot.QA
	Cards         []Card
	BCRTrendSVG   template.HTML
	RegressionSVG template.HTML
}

func buildQA(page *dashboard.Page, ev compare.Event) (*QAModel, error) {
	var cur snapshot.QA
	if err := page.Doc.Decode(&cur); err != nil {
		return nil, fmt.Errorf("ui: decode qa: %w", err)
	}
	var prev *snapshot.QA
	if ev.Active && ev.Previous != nil {
		prev = new(snapshot.QA)
		if err := ev.Previous.Decode(prev); err != nil {
			return nil, fmt.Errorf("ui: decode previous qa: %w", err)
		}
	}

	m := &QAModel{QA: cur}
	havePrev := prev != nil
	var prevBCR snapshot.BCR
	if havePrev {
		prevBCR = prev.BCR
	}
	m.Cards = []Card{
		pctCard("Bug catch rate", cur.BCR.Overall, prevBCR.Overall, havePrev),
		countCard("QA bugs", cur.BCR.QACount, prevBCR.QACount, havePrev),
		countCard("Customer bugs", cur.BCR.CustomerCount, prevBCR.CustomerCount, havePrev),
	}
	if cur.TestExecution != nil {
		card := Card{Label: "Pass rate", Value: fmt.Sprintf("%.1f%%", cur.TestExecution.PassRate*100)}
		if havePrev && prev.TestExecution != nil {
			d := compare.DeltaPoints(cur.TestExecution.PassRate*100, prev.TestExecution.PassRate*100)
			card.Delta = fmt.Sprintf("%+.1f pts", d)
			card.Trend = trendOf(d)
		}
		m.Cards = append(m.Cards, card)
	}

	trend, err := bcrTrendLine(cur.BCRWeeklyTrend)
	if err != nil {
		return nil, err
	}
	m.BCRTrendSVG = trend

	regression, err := regressionBars(cur.RegressionTrend)
	if err != nil {
		return nil, err
	}
	m.RegressionSVG = regression
	return m, nil
}

func bcrTrendLine(points []snapshot.BCRTrendPoint) (template.HTML, error) {
	if len(points) == 0 {
		return "", nil
	}
	series := make([]float64, len(points))
	labels := make([]string, len(points))
	for i, p := range points {
		series[i] = p.WeekRate
		labels[i] = p.Week
	}
	return svg.Line(svg.DefaultWidth, svg.DefaultHeight, series, labels, svg.LineOpts{
		Title:    "Bug catch rate by week",
		ShowDots: true,
	})
}

func regressionBars(rows []snapshot.RegressionRow) (template.HTML, error) {
	if len(rows) == 0 {
		return "", nil
	}
	series := make([]float64, len(rows))
	labels := make([]string, len(rows))
	for i, row := range rows {
		series[i] = row.PassRate
		labels[i] = row.Product
	}
	return svg.Bars(svg.DefaultWidth, svg.DefaultHeight, series, nil, labels, svg.BarOpts{
		Title: "Regression pass rate by product",
	})
}
