package ui

import (
	"fmt"
	"html/template"

	"github.com/pulseboard/pulseboard/internal/compare"
	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/snapshot"
	"github.com/pulseboard/pulseboard/internal/svg"
)

// DSATModel backs the dissatisfaction page.
type DSATModel struct {
	DSAT     snapshot.DSAT
	Cards    []Card
	ShareSVG template.HTML
}

func buildDSAT(page *dashboard.Page, ev compare.Event) (*DSATModel, error) {
	var cur snapshot.DSAT
	if err := page.Doc.Decode(&cur); err != nil {
		return nil, fmt.Errorf("ui: decode dsat: %w", err)
	}
	var prev *snapshot.DSAT
	if ev.Active && ev.Previous != nil {
		prev = new(snapshot.DSAT)
		if err := ev.Previous.Decode(prev); err != nil {
			return nil, fmt.Errorf("ui: decode previous dsat: %w", err)
		}
	}

	m := &DSATModel{DSAT: cur}
	havePrev := prev != nil
	var prevTotal, prevComments, prevAINeg int
	var prevRate float64
	if havePrev {
		prevTotal = prev.TotalBadRatings
		prevComments = prev.WithComments
		prevAINeg = prev.AINegative
		prevRate = prev.AINegativeRateOfComments
	}
	m.Cards = []Card{
		countCard("Bad ratings", cur.TotalBadRatings, prevTotal, havePrev),
		countCard("With comments", cur.WithComments, prevComments, havePrev),
		countCard("AI negative", cur.AINegative, prevAINeg, havePrev),
		pctCard("AI negative of comments", cur.AINegativeRateOfComments, prevRate, havePrev),
	}

	share, err := dsatShare(cur)
	if err != nil {
		return nil, err
	}
	m.ShareSVG = share
	return m, nil
}

// dsatShare splits the week's bad ratings into AI-negative comments,
// other commented ratings and ratings without a comment.
func dsatShare(d snapshot.DSAT) (template.HTML, error) {
	otherComments := d.WithComments - d.AINegative
	noComment := d.TotalBadRatings - d.WithComments
	segments := make([]svg.Segment, 0, 3)
	if d.AINegative > 0 {
		segments = append(segments, svg.Segment{Label: "AI negative", Value: float64(d.AINegative)})
	}
	if otherComments > 0 {
		segments = append(segments, svg.Segment{Label: "Other comments", Value: float64(otherComments)})
	}
	if noComment > 0 {
		segments = append(segments, svg.Segment{Label: "No comment", Value: float64(noComment)})
	}
	if len(segments) == 0 {
		return "", nil
	}
	return svg.Doughnut(svg.DefaultHeight, segments, svg.DoughnutOpts{
		Title:       "Bad rating composition",
		CenterLabel: fmt.Sprintf("%.0f%%", d.AINegativeRateOfAll),
	})
}
