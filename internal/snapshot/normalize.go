package snapshot

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Normalize maps the shape variants the pipeline has produced over time onto
// the one canonical schema the rest of the system consumes. It runs once at
// the loader boundary; downstream code never sees a legacy field.
func Normalize(dir string, body []byte) (json.RawMessage, error) {
	switch dir {
	case DirPulse:
		var doc Pulse
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("snapshot: decode %s: %w", dir, err)
		}
		normalizeAlerts(doc.Alerts)
		normalizeAIOps(doc.AIOps)
		return json.Marshal(doc)
	case DirTickets:
		var doc Tickets
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("snapshot: decode %s: %w", dir, err)
		}
		normalizeAlerts(doc.Alerts)
		return json.Marshal(doc)
	case DirQA:
		doc, err := normalizeQA(body)
		if err != nil {
			return nil, fmt.Errorf("snapshot: decode %s: %w", dir, err)
		}
		return json.Marshal(doc)
	case DirDSAT:
		doc, err := normalizeDSAT(body)
		if err != nil {
			return nil, fmt.Errorf("snapshot: decode %s: %w", dir, err)
		}
		return json.Marshal(doc)
	case DirDaily:
		var doc Daily
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("snapshot: decode %s: %w", dir, err)
		}
		return json.Marshal(doc)
	default:
		return body, nil
	}
}

// normalizeAlerts fills the severity older snapshots omitted.
func normalizeAlerts(alerts []Alert) {
	for i := range alerts {
		if alerts[i].Severity == "" {
			alerts[i].Severity = "info"
		}
	}
}

// normalizeAIOps converts fractional rates to percentages. Rates in this
// block sit well above 1% in practice, so a value at or below 1 is a
// fraction from the older exporter.
func normalizeAIOps(ops *AIOps) {
	if ops == nil {
		return
	}
	ops.AIResolutionRate = percentify(ops.AIResolutionRate)
	ops.AICsat = percentify(ops.AICsat)
	ops.HumanCsat = percentify(ops.HumanCsat)
	ops.HandoffRate = percentify(ops.HandoffRate)
}

func percentify(v float64) float64 {
	if v > 0 && v <= 1 {
		return v * 100
	}
	return v
}

type dsatWire struct {
	DSAT
	// Legacy fraction-of-comments rate.
	AINegativeRate *float64 `json:"aiNegativeRate"`
}

func normalizeDSAT(body []byte) (*DSAT, error) {
	var wire dsatWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}
	doc := wire.DSAT
	if doc.AINegativeRateOfComments == 0 && wire.AINegativeRate != nil {
		doc.AINegativeRateOfComments = percentify(*wire.AINegativeRate)
	}
	if doc.AINegativeRateOfAll == 0 && doc.TotalBadRatings > 0 {
		doc.AINegativeRateOfAll = float64(doc.AINegative) / float64(doc.TotalBadRatings) * 100
	}
	return &doc, nil
}

type qaWire struct {
	QA
	TestExecution   json.RawMessage `json:"testExecution"`
	RegressionTrend json.RawMessage `json:"regressionTrend"`
}

// productExecStats is the per-product execution block emitted by the
// current pipeline; the canonical form flattens it into overall totals.
type productExecStats struct {
	CompletedRuns int     `json:"completedRuns"`
	TotalRuns     int     `json:"totalRuns"`
	TotalCases    int     `json:"totalCases"`
	TotalPassed   int     `json:"totalPassed"`
	TotalFailed   int     `json:"totalFailed"`
	TotalBlocked  int     `json:"totalBlocked"`
	TotalSkipped  int     `json:"totalSkipped"`
	PassRate      float64 `json:"passRate"`
	AvgVelocity   float64 `json:"avgVelocity"`
	BlockedRate   float64 `json:"blockedRate"`
}

func normalizeQA(body []byte) (*QA, error) {
	var wire qaWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}
	doc := wire.QA
	exec, err := normalizeTestExecution(wire.TestExecution)
	if err != nil {
		return nil, err
	}
	doc.TestExecution = exec
	trend, err := normalizeRegressionTrend(wire.RegressionTrend)
	if err != nil {
		return nil, err
	}
	doc.RegressionTrend = trend
	return &doc, nil
}

func normalizeTestExecution(raw json.RawMessage) (*TestExecution, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}
	if _, flat := keys["totalRuns"]; flat {
		var exec TestExecution
		if err := json.Unmarshal(raw, &exec); err != nil {
			return nil, err
		}
		if exec.PassRate > 1 {
			exec.PassRate /= 100
		}
		if exec.BlockedPct > 1 {
			exec.BlockedPct /= 100
		}
		return &exec, nil
	}
	// Per-product map: roll the products up into one summary.
	var byProduct map[string]productExecStats
	if err := json.Unmarshal(raw, &byProduct); err != nil {
		return nil, err
	}
	var exec TestExecution
	var cases, passed, blocked int
	for _, stats := range byProduct {
		exec.TotalRuns += stats.TotalRuns
		cases += stats.TotalCases
		passed += stats.TotalPassed
		blocked += stats.TotalBlocked
	}
	exec.Velocity = cases
	if cases > 0 {
		exec.PassRate = float64(passed) / float64(cases)
		exec.BlockedPct = float64(blocked) / float64(cases)
	}
	return &exec, nil
}

func normalizeRegressionTrend(raw json.RawMessage) ([]RegressionRow, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var rows []RegressionRow
	if err := json.Unmarshal(raw, &rows); err == nil {
		return rows, nil
	}
	// Older map shape keyed by product with a run history; keep the latest
	// entry per product.
	var byProduct map[string][]RegressionRow
	if err := json.Unmarshal(raw, &byProduct); err != nil {
		return nil, err
	}
	rows = make([]RegressionRow, 0, len(byProduct))
	for product, history := range byProduct {
		if len(history) == 0 {
			continue
		}
		row := history[len(history)-1]
		row.Product = product
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Product < rows[j].Product })
	return rows, nil
}
