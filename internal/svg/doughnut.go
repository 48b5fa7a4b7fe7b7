package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

var doughnutPalette = []string{"#dc2626", "#0ea5e9", "#f59e0b", "#10b981", "#8b5cf6", "#64748b"}

// Doughnut renders a ring chart for a categorical split, e.g. the share of
// negative ratings attributed to the AI agent.
func Doughnut(size int, segments []Segment, opts DoughnutOpts) (template.HTML, error) {
	if len(segments) == 0 {
		return "", fmt.Errorf("svg: segments required")
	}
	total := 0.0
	for _, seg := range segments {
		if seg.Value < 0 {
			return "", fmt.Errorf("svg: negative segment %q", seg.Label)
		}
		total += seg.Value
	}
	if total == 0 {
		return "", fmt.Errorf("svg: all segments zero")
	}
	if size <= 0 {
		size = DefaultHeight
	}

	axisColor := fallback(opts.AxisColor, "#475569")
	cx := float64(size) / 2
	cy := float64(size) / 2
	outer := float64(size)/2 - 8
	inner := outer * 0.62

	titleID := makeID(opts.Title, "ring-title")
	descID := makeID(opts.Title, "ring-desc")

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", size, size, titleID, descID)
	fmt.Fprintf(&b, "<title id=%q>%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Doughnut chart")))
	fmt.Fprintf(&b, "<desc id=%q>%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Categorical split")))

	angle := -math.Pi / 2
	for i, seg := range segments {
		share := seg.Value / total
		color := seg.Color
		if color == "" {
			color = doughnutPalette[i%len(doughnutPalette)]
		}
		label := fmt.Sprintf("%s %.0f (%.0f%%)", seg.Label, seg.Value, share*100)
		if share >= 0.9999 {
			// A single-segment ring degenerates to two full circles.
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=%q stroke-width=\"%.2f\" aria-label=%q></circle>",
				cx, cy, (outer+inner)/2, color, outer-inner, label)
			break
		}
		next := angle + share*2*math.Pi
		fmt.Fprintf(&b, "<path d=%q fill=%q aria-label=%q></path>", ringSlice(cx, cy, inner, outer, angle, next), color, label)
		angle = next
	}

	if opts.CenterLabel != "" {
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=%q font-size=\"16\" font-weight=\"600\" text-anchor=\"middle\" dominant-baseline=\"middle\">%s</text>",
			cx, cy, axisColor, template.HTMLEscapeString(opts.CenterLabel))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// ringSlice builds the path for one annular sector between the two angles.
func ringSlice(cx, cy, inner, outer, from, to float64) string {
	largeArc := 0
	if to-from > math.Pi {
		largeArc = 1
	}
	x0, y0 := polar(cx, cy, outer, from)
	x1, y1 := polar(cx, cy, outer, to)
	x2, y2 := polar(cx, cy, inner, to)
	x3, y3 := polar(cx, cy, inner, from)
	return fmt.Sprintf("M%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 0 %.2f %.2f Z",
		x0, y0, outer, outer, largeArc, x1, y1, x2, y2, inner, inner, largeArc, x3, y3)
}

func polar(cx, cy, r, angle float64) (float64, float64) {
	return cx + r*math.Cos(angle), cy + r*math.Sin(angle)
}
