// Package snapshot defines the report documents produced by the external
// reporting pipeline and the normalization applied when they are loaded.
package snapshot

import "encoding/json"

// Report directories under the data root.
const (
	DirPulse   = "pulse"
	DirQA      = "qa"
	DirDSAT    = "dsat"
	DirDaily   = "daily"
	DirTickets = "tickets"
)

// Index lists the periods the pipeline has published. Weeks and months are
// sorted newest first.
type Index struct {
	Latest      string   `json:"latest"`
	Weeks       []string `json:"weeks"`
	Months      []string `json:"months,omitempty"`
	LatestMonth string   `json:"latestMonth,omitempty"`
}

// Document is one snapshot file as loaded from the data root: the directory
// it came from, the week that actually resolved, and the normalized body.
// The router and cache treat it as opaque; renderers decode it.
type Document struct {
	Dir  string          `json:"dir"`
	Week string          `json:"week"`
	Body json.RawMessage `json:"body"`
}

// Decode unmarshals the document body into v.
func (d *Document) Decode(v any) error {
	return json.Unmarshal(d.Body, v)
}

// KPI carries the headline numbers shared by the pulse, tickets and daily
// snapshots.
type KPI struct {
	TotalTickets int     `json:"totalTickets"`
	TopProduct   string  `json:"topProduct"`
	DailyAvg     float64 `json:"dailyAvg,omitempty"`
	Refunds      int     `json:"refunds"`
	ProductCount int     `json:"productCount"`
}

// Alert is a surfaced anomaly for the week.
type Alert struct {
	Severity string `json:"severity,omitempty"`
	Product  string `json:"product,omitempty"`
	Type     string `json:"type,omitempty"`
	Message  string `json:"message"`
}

// TrendPoint is a single day in a daily-trend series.
type TrendPoint struct {
	Date  string `json:"date,omitempty"`
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// TicketRef links a tally to an individual ticket.
type TicketRef struct {
	ID string `json:"id"`
}

// TopIssue groups tickets under a recurring tally within a product.
type TopIssue struct {
	Tally   string      `json:"tally"`
	Count   int         `json:"count"`
	Tickets []TicketRef `json:"tickets,omitempty"`
}

// ProductRow is one product bucket in a breakdown table.
type ProductRow struct {
	Product   string     `json:"product"`
	Count     int        `json:"count"`
	Pct       float64    `json:"pct"`
	Delta     float64    `json:"delta,omitempty"`
	Direction string     `json:"direction,omitempty"`
	TopIssues []TopIssue `json:"topIssues,omitempty"`
}

// TypeRow is one ticket-type bucket. AIResRate is nil when no AI-handled
// tickets contributed to the bucket.
type TypeRow struct {
	Type      string   `json:"type"`
	Count     int      `json:"count"`
	Pct       float64  `json:"pct"`
	Delta     float64  `json:"delta,omitempty"`
	Direction string   `json:"direction,omitempty"`
	AICount   int      `json:"aiCount,omitempty"`
	AIResRate *float64 `json:"aiResRate,omitempty"`
}

// AIOps summarises the AI agent's share of the support load. Rates are
// percentages after normalization.
type AIOps struct {
	AIResolutionRate float64 `json:"aiResolutionRate"`
	DevinClosed      int     `json:"devinClosed"`
	AllClosed        int     `json:"allClosed"`
	AICsat           float64 `json:"aiCsat"`
	AIGood           int     `json:"aiGood"`
	AIBad            int     `json:"aiBad"`
	HumanCsat        float64 `json:"humanCsat"`
	HumanGood        int     `json:"humanGood"`
	HumanBad         int     `json:"humanBad"`
	HandoffRate      float64 `json:"handoffRate"`
}

// Opportunity is a tally with enough volume to consider automating.
type Opportunity struct {
	Tally     string  `json:"tally"`
	Count     int     `json:"count"`
	AICount   int     `json:"aiCount"`
	AIResRate float64 `json:"aiResRate"`
}

// STFSIssue is a tracked "swarm the fire" engineering issue.
type STFSIssue struct {
	Key         string `json:"key"`
	Summary     string `json:"summary"`
	Status      string `json:"status"`
	Product     string `json:"product"`
	TicketCount int    `json:"ticketCount"`
	DSATCount   *int   `json:"dsatCount,omitempty"`
	FollowUp    bool   `json:"followUp,omitempty"`
}

// Pulse is the weekly support-pulse snapshot.
type Pulse struct {
	Period           string        `json:"period"`
	StartDate        string        `json:"startDate,omitempty"`
	EndDate          string        `json:"endDate,omitempty"`
	Alerts           []Alert       `json:"alerts,omitempty"`
	KPI              KPI           `json:"kpi"`
	DailyTrend       []TrendPoint  `json:"dailyTrend,omitempty"`
	ProductBreakdown []ProductRow  `json:"productBreakdown,omitempty"`
	TicketTypes      []TypeRow     `json:"ticketTypes,omitempty"`
	AIOps            *AIOps        `json:"aiOps,omitempty"`
	AIOpportunities  []Opportunity `json:"aiOpportunities,omitempty"`
	STFS             []STFSIssue   `json:"stfs,omitempty"`
}

// Tickets is the weekly ticket-report snapshot. It shares the pulse layout
// with a reduced trend and follow-up flags on the issue list.
type Tickets struct {
	Period           string       `json:"period"`
	ReportType       string       `json:"reportType,omitempty"`
	StartDate        string       `json:"startDate,omitempty"`
	EndDate          string       `json:"endDate,omitempty"`
	Alerts           []Alert      `json:"alerts,omitempty"`
	KPI              KPI          `json:"kpi"`
	DailyTrend       []TrendPoint `json:"dailyTrend,omitempty"`
	ProductBreakdown []ProductRow `json:"productBreakdown,omitempty"`
	TicketTypes      []TypeRow    `json:"ticketTypes,omitempty"`
	STFS             []STFSIssue  `json:"stfs,omitempty"`
}

// BCR is the bug-catch-rate headline.
type BCR struct {
	Overall       float64 `json:"overall"`
	Status        string  `json:"status"`
	Target        float64 `json:"target"`
	QACount       int     `json:"qaCount"`
	CustomerCount int     `json:"customerCount"`
}

// BCRProduct is the per-product bug-catch-rate row.
type BCRProduct struct {
	Product      string  `json:"product"`
	QABugs       int     `json:"qaBugs"`
	CustomerBugs int     `json:"customerBugs"`
	Total        int     `json:"total"`
	Rate         float64 `json:"rate"`
}

// BCRTrendPoint is one week in the bug-catch-rate trend.
type BCRTrendPoint struct {
	Week         string  `json:"week"`
	QABugs       int     `json:"qaBugs"`
	CustomerBugs int     `json:"customerBugs"`
	Total        int     `json:"total"`
	WeekRate     float64 `json:"weekRate"`
}

// TestExecution is the canonical flat execution summary. Rates are
// fractions of cases.
type TestExecution struct {
	TotalRuns  int     `json:"totalRuns"`
	PassRate   float64 `json:"passRate"`
	Velocity   int     `json:"velocity"`
	BlockedPct float64 `json:"blockedPct"`
}

// RegressionRow is the latest regression pass rate for one product.
type RegressionRow struct {
	Product  string  `json:"product"`
	PassRate float64 `json:"passRate"`
	Delta    float64 `json:"delta,omitempty"`
}

// FunctionTest is the most recent function-test run for one product.
type FunctionTest struct {
	Product  string `json:"product"`
	Passed   int    `json:"passed"`
	Failed   int    `json:"failed"`
	Blocked  int    `json:"blocked"`
	Untested int    `json:"untested"`
}

// Bug is a recently filed bug reference.
type Bug struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
	Project string `json:"project,omitempty"`
	Product string `json:"product,omitempty"`
}

// RecentBugs splits the recent bug lists by origin.
type RecentBugs struct {
	QA       []Bug `json:"qa,omitempty"`
	Customer []Bug `json:"customer,omitempty"`
}

// QA is the weekly QA snapshot.
type QA struct {
	Period             string          `json:"period"`
	DaysCount          int             `json:"daysCount,omitempty"`
	ReportDate         string          `json:"reportDate,omitempty"`
	BCR                BCR             `json:"bcr"`
	BCRByProduct       []BCRProduct    `json:"bcrByProduct,omitempty"`
	BCRWeeklyTrend     []BCRTrendPoint `json:"bcrWeeklyTrend,omitempty"`
	TestExecution      *TestExecution  `json:"testExecution,omitempty"`
	RegressionTrend    []RegressionRow `json:"regressionTrend,omitempty"`
	LatestFunctionTest []FunctionTest  `json:"latestFunctionTest,omitempty"`
	RecentBugs         RecentBugs      `json:"recentBugs"`
}

// DSATSample is one surfaced negative-rating comment.
type DSATSample struct {
	TicketID  string `json:"ticketId"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"createdAt,omitempty"`
	URL       string `json:"url,omitempty"`
}

// DSATComment is a rated comment with its AI classification.
type DSATComment struct {
	TicketID     string `json:"ticketId"`
	Comment      string `json:"comment"`
	CreatedAt    string `json:"createdAt,omitempty"`
	URL          string `json:"url,omitempty"`
	IsAINegative bool   `json:"isAiNegative"`
}

// DSATReason buckets negative comments by cause.
type DSATReason struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// DSAT is the weekly dissatisfaction snapshot. Rates are percentages after
// normalization.
type DSAT struct {
	Period                   string        `json:"period"`
	DaysCount                int           `json:"daysCount,omitempty"`
	TotalBadRatings          int           `json:"totalBadRatings"`
	WithComments             int           `json:"withComments"`
	AINegative               int           `json:"aiNegative"`
	AINegativeRateOfComments float64       `json:"aiNegativeRateOfComments"`
	AINegativeRateOfAll      float64       `json:"aiNegativeRateOfAll"`
	TopReasons               []DSATReason  `json:"topReasons,omitempty"`
	Samples                  []DSATSample  `json:"samples,omitempty"`
	AllComments              []DSATComment `json:"allComments,omitempty"`
}

// Agent is one support agent's weekly activity row.
type Agent struct {
	Name              string  `json:"name"`
	Assigned          int     `json:"assigned"`
	Replies           int     `json:"replies"`
	AvgAssignedPerDay float64 `json:"avgAssignedPerDay,omitempty"`
	AvgRepliesPerDay  float64 `json:"avgRepliesPerDay,omitempty"`
}

// Daily is the per-day operations snapshot (still keyed by week file).
type Daily struct {
	Period           string       `json:"period"`
	StartDate        string       `json:"startDate,omitempty"`
	EndDate          string       `json:"endDate,omitempty"`
	KPI              KPI          `json:"kpi"`
	ProductBreakdown []ProductRow `json:"productBreakdown,omitempty"`
	TicketTypes      []TypeRow    `json:"ticketTypes,omitempty"`
	AgentActivity    []Agent      `json:"agentActivity,omitempty"`
}
