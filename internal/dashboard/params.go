package dashboard

import (
	"net/url"

	"github.com/pulseboard/pulseboard/internal/period"
)

// NavRequest is a navigation target decoded from URL query parameters.
type NavRequest struct {
	View   ViewID
	Report string
	Period string
}

// ParseParams reconstructs the navigation target from a query string. The
// defaults mirror a bare URL: weekly view, its first report, latest period.
// Malformed period values degrade to "latest" instead of failing.
func ParseParams(q url.Values) NavRequest {
	view := ViewByID(ViewID(q.Get("view")))
	report := view.Report(q.Get("report"))

	raw := q.Get("month")
	if view.PeriodType != PeriodMonth {
		raw = q.Get("week")
	}
	p := period.Latest
	switch view.PeriodType {
	case PeriodMonth:
		if period.IsMonth(raw) {
			p = raw
		}
	default:
		if period.IsWeek(raw) {
			p = raw
		}
	}
	return NavRequest{View: view.ID, Report: report.ID, Period: p}
}

// Values renders the canonical query parameters for the request: the form
// the address bar is rewritten to after a completed navigation.
func (r NavRequest) Values() url.Values {
	view := ViewByID(r.View)
	q := url.Values{}
	q.Set("view", string(view.ID))
	q.Set("report", view.Report(r.Report).ID)
	key := "week"
	if view.PeriodType == PeriodMonth {
		key = "month"
	}
	p := r.Period
	if p == "" {
		p = period.Latest
	}
	q.Set(key, p)
	return q
}
