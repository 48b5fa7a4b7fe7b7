package aggregate

import (
	"sort"

	"github.com/pulseboard/pulseboard/internal/snapshot"
)

const recentBugCap = 20

// QA rolls the given weeks up into one monthly QA snapshot. Headline
// sections are point-in-time and come from the most recent week; the weekly
// trend is merged across all weeks and the recent bug lists concatenated
// with dedup.
func QA(weeks []snapshot.QA, month string) snapshot.QA {
	out := snapshot.QA{Period: month}
	if len(weeks) == 0 {
		return out
	}

	latest := weeks[len(weeks)-1]
	out.DaysCount = latest.DaysCount
	out.ReportDate = latest.ReportDate
	out.BCR = latest.BCR
	out.BCRByProduct = latest.BCRByProduct
	out.TestExecution = latest.TestExecution
	out.RegressionTrend = latest.RegressionTrend
	out.LatestFunctionTest = latest.LatestFunctionTest

	out.BCRWeeklyTrend = mergeBCRTrend(weeks)
	out.RecentBugs = snapshot.RecentBugs{
		QA:       mergeBugs(weeks, func(w snapshot.QA) []snapshot.Bug { return w.RecentBugs.QA }),
		Customer: mergeBugs(weeks, func(w snapshot.QA) []snapshot.Bug { return w.RecentBugs.Customer }),
	}
	return out
}

// mergeBCRTrend merges the weekly trend rows by week label. Later weeks
// overwrite earlier ones, so revised rows win.
func mergeBCRTrend(weeks []snapshot.QA) []snapshot.BCRTrendPoint {
	merged := make(map[string]snapshot.BCRTrendPoint)
	for _, w := range weeks {
		for _, point := range w.BCRWeeklyTrend {
			merged[point.Week] = point
		}
	}
	if len(merged) == 0 {
		return nil
	}
	out := make([]snapshot.BCRTrendPoint, 0, len(merged))
	for _, point := range merged {
		out = append(out, point)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })
	return out
}

// mergeBugs concatenates one bug list across all weeks, dedups by key with
// first occurrence winning, and caps the result.
func mergeBugs(weeks []snapshot.QA, pick func(snapshot.QA) []snapshot.Bug) []snapshot.Bug {
	seen := make(map[string]struct{})
	out := make([]snapshot.Bug, 0, recentBugCap)
	for _, w := range weeks {
		for _, bug := range pick(w) {
			if _, dup := seen[bug.Key]; dup {
				continue
			}
			seen[bug.Key] = struct{}{}
			out = append(out, bug)
			if len(out) == recentBugCap {
				return out
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
