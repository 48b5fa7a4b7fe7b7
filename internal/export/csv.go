// Package export renders loaded snapshots as CSV and PDF downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/pulseboard/pulseboard/internal/snapshot"
)

// WriteCSV serialises the document for download, dispatching on the
// report directory it was loaded from.
func WriteCSV(w io.Writer, doc *snapshot.Document) error {
	switch doc.Dir {
	case snapshot.DirPulse:
		var p snapshot.Pulse
		if err := doc.Decode(&p); err != nil {
			return err
		}
		return WritePulseCSV(w, p)
	case snapshot.DirTickets:
		var tr snapshot.Tickets
		if err := doc.Decode(&tr); err != nil {
			return err
		}
		return WriteTicketsCSV(w, tr)
	case snapshot.DirQA:
		var q snapshot.QA
		if err := doc.Decode(&q); err != nil {
			return err
		}
		return WriteQACSV(w, q)
	case snapshot.DirDSAT:
		var d snapshot.DSAT
		if err := doc.Decode(&d); err != nil {
			return err
		}
		return WriteDSATCSV(w, d)
	case snapshot.DirDaily:
		var d snapshot.Daily
		if err := doc.Decode(&d); err != nil {
			return err
		}
		return WriteDailyCSV(w, d)
	default:
		return fmt.Errorf("export: no csv writer for %s", doc.Dir)
	}
}

// WritePulseCSV serialises the pulse KPI block and breakdowns to CSV.
func WritePulseCSV(w io.Writer, p snapshot.Pulse) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Period", p.Period},
		{"Total Tickets", strconv.Itoa(p.KPI.TotalTickets)},
		{"Refunds", strconv.Itoa(p.KPI.Refunds)},
		{"Products", strconv.Itoa(p.KPI.ProductCount)},
		{"Top Product", p.KPI.TopProduct},
		{"Daily Average", formatFloat(p.KPI.DailyAvg)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	if len(p.ProductBreakdown) > 0 {
		if err := writer.Write([]string{"Product", "Tickets", "Share %"}); err != nil {
			return err
		}
		for _, row := range p.ProductBreakdown {
			if err := writer.Write([]string{row.Product, strconv.Itoa(row.Count), formatFloat(row.Pct)}); err != nil {
				return err
			}
		}
	}

	if len(p.TicketTypes) > 0 {
		if err := writer.Write([]string{"Type", "Count", "Share %", "AI Resolution %"}); err != nil {
			return err
		}
		for _, row := range p.TicketTypes {
			rate := ""
			if row.AIResRate != nil {
				rate = formatFloat(*row.AIResRate)
			}
			if err := writer.Write([]string{row.Type, strconv.Itoa(row.Count), formatFloat(row.Pct), rate}); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteTicketsCSV serialises the ticket report to CSV.
func WriteTicketsCSV(w io.Writer, tr snapshot.Tickets) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Period", tr.Period},
		{"Total Tickets", strconv.Itoa(tr.KPI.TotalTickets)},
		{"Refunds", strconv.Itoa(tr.KPI.Refunds)},
		{"Products", strconv.Itoa(tr.KPI.ProductCount)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	if len(tr.ProductBreakdown) > 0 {
		if err := writer.Write([]string{"Product", "Tickets", "Share %"}); err != nil {
			return err
		}
		for _, row := range tr.ProductBreakdown {
			if err := writer.Write([]string{row.Product, strconv.Itoa(row.Count), formatFloat(row.Pct)}); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteQACSV serialises the QA headline and per-product catch rates.
func WriteQACSV(w io.Writer, q snapshot.QA) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Period", q.Period},
		{"Bug Catch Rate %", formatFloat(q.BCR.Overall)},
		{"Target %", formatFloat(q.BCR.Target)},
		{"QA Bugs", strconv.Itoa(q.BCR.QACount)},
		{"Customer Bugs", strconv.Itoa(q.BCR.CustomerCount)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	if len(q.BCRByProduct) > 0 {
		if err := writer.Write([]string{"Product", "QA Bugs", "Customer Bugs", "Total", "Rate %"}); err != nil {
			return err
		}
		for _, row := range q.BCRByProduct {
			if err := writer.Write([]string{
				row.Product,
				strconv.Itoa(row.QABugs),
				strconv.Itoa(row.CustomerBugs),
				strconv.Itoa(row.Total),
				formatFloat(row.Rate),
			}); err != nil {
				return err
			}
		}
	}

	if len(q.BCRWeeklyTrend) > 0 {
		if err := writer.Write([]string{"Week", "QA Bugs", "Customer Bugs", "Rate %"}); err != nil {
			return err
		}
		for _, point := range q.BCRWeeklyTrend {
			if err := writer.Write([]string{
				point.Week,
				strconv.Itoa(point.QABugs),
				strconv.Itoa(point.CustomerBugs),
				formatFloat(point.WeekRate),
			}); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteDSATCSV serialises the dissatisfaction summary and top reasons.
func WriteDSATCSV(w io.Writer, d snapshot.DSAT) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Period", d.Period},
		{"Bad Ratings", strconv.Itoa(d.TotalBadRatings)},
		{"With Comments", strconv.Itoa(d.WithComments)},
		{"AI Negative", strconv.Itoa(d.AINegative)},
		{"AI Negative of Comments %", formatFloat(d.AINegativeRateOfComments)},
		{"AI Negative of All %", formatFloat(d.AINegativeRateOfAll)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	if len(d.TopReasons) > 0 {
		if err := writer.Write([]string{"Reason", "Count"}); err != nil {
			return err
		}
		for _, reason := range d.TopReasons {
			if err := writer.Write([]string{reason.Reason, strconv.Itoa(reason.Count)}); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteDailyCSV serialises the daily snapshot with agent activity.
func WriteDailyCSV(w io.Writer, d snapshot.Daily) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Period", d.Period},
		{"Total Tickets", strconv.Itoa(d.KPI.TotalTickets)},
		{"Top Product", d.KPI.TopProduct},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	if len(d.AgentActivity) > 0 {
		if err := writer.Write([]string{"Agent", "Assigned", "Replies", "Assigned/Day", "Replies/Day"}); err != nil {
			return err
		}
		for _, agent := range d.AgentActivity {
			if err := writer.Write([]string{
				agent.Name,
				strconv.Itoa(agent.Assigned),
				strconv.Itoa(agent.Replies),
				formatFloat(agent.AvgAssignedPerDay),
				formatFloat(agent.AvgRepliesPerDay),
			}); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
