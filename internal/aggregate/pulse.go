// Package aggregate merges weekly snapshots into monthly ones. Inputs are
// ordered oldest first; "latest week" always means the last element.
package aggregate

import (
	"math"
	"sort"

	"github.com/pulseboard/pulseboard/internal/period"
	"github.com/pulseboard/pulseboard/internal/snapshot"
)

// Pulse rolls the given weeks up into one monthly pulse snapshot. An empty
// input produces a structurally valid zero document for the month.
func Pulse(weeks []snapshot.Pulse, month string) snapshot.Pulse {
	out := snapshot.Pulse{Period: month}
	if len(weeks) == 0 {
		return out
	}

	out.StartDate = weeks[0].StartDate
	out.EndDate = weeks[len(weeks)-1].EndDate

	for _, w := range weeks {
		out.KPI.TotalTickets += w.KPI.TotalTickets
		out.KPI.Refunds += w.KPI.Refunds
		out.Alerts = append(out.Alerts, w.Alerts...)
		out.DailyTrend = append(out.DailyTrend, w.DailyTrend...)
	}
	if len(out.DailyTrend) > 0 {
		out.KPI.DailyAvg = round1(float64(out.KPI.TotalTickets) / float64(len(out.DailyTrend)))
	}

	out.ProductBreakdown = mergeProducts(weeks)
	out.TicketTypes = mergeTypes(weeks)
	if len(out.ProductBreakdown) > 0 {
		out.KPI.TopProduct = out.ProductBreakdown[0].Product
	}
	out.KPI.ProductCount = len(out.ProductBreakdown)

	// Point-in-time sections reflect the most recent constituent week.
	latest := weeks[len(weeks)-1]
	out.AIOps = latest.AIOps
	out.AIOpportunities = latest.AIOpportunities
	out.STFS = latest.STFS
	return out
}

func mergeProducts(weeks []snapshot.Pulse) []snapshot.ProductRow {
	type bucket struct {
		count  int
		issues []snapshot.TopIssue
	}
	buckets := make(map[string]*bucket)
	order := make([]string, 0)
	total := 0
	for _, w := range weeks {
		for _, row := range w.ProductBreakdown {
			b, ok := buckets[row.Product]
			if !ok {
				b = &bucket{}
				buckets[row.Product] = b
				order = append(order, row.Product)
			}
			b.count += row.Count
			if len(row.TopIssues) > 0 {
				b.issues = row.TopIssues
			}
			total += row.Count
		}
	}
	rows := make([]snapshot.ProductRow, 0, len(order))
	for _, product := range order {
		b := buckets[product]
		rows = append(rows, snapshot.ProductRow{
			Product:   product,
			Count:     b.count,
			Pct:       pct(b.count, total),
			TopIssues: b.issues,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	return rows
}

func mergeTypes(weeks []snapshot.Pulse) []snapshot.TypeRow {
	type bucket struct {
		count   int
		aiCount int
	}
	buckets := make(map[string]*bucket)
	order := make([]string, 0)
	total := 0
	for _, w := range weeks {
		for _, row := range w.TicketTypes {
			b, ok := buckets[row.Type]
			if !ok {
				b = &bucket{}
				buckets[row.Type] = b
				order = append(order, row.Type)
			}
			b.count += row.Count
			b.aiCount += row.AICount
			total += row.Count
		}
	}
	rows := make([]snapshot.TypeRow, 0, len(order))
	for _, typ := range order {
		b := buckets[typ]
		row := snapshot.TypeRow{
			Type:    typ,
			Count:   b.count,
			Pct:     pct(b.count, total),
			AICount: b.aiCount,
		}
		if b.aiCount > 0 && b.count > 0 {
			rate := round1(float64(b.aiCount) / float64(b.count) * 100)
			row.AIResRate = &rate
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	return rows
}

// Month resolves the month a week list belongs to; used when the caller
// only has raw identifiers.
func Month(weeks []string) string {
	for _, w := range weeks {
		if m := period.MonthOf(w); m != "" {
			return m
		}
	}
	return ""
}

func pct(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(count) / float64(total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
