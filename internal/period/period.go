// Package period implements the ISO-week calendar arithmetic shared by the
// index, the period selectors and the monthly aggregator.
package period

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// Latest is the sentinel period accepted wherever a concrete week or month
// identifier is expected.
const Latest = "latest"

var (
	weekRe  = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)
	monthRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

// Week identifies a single ISO week, e.g. 2026-W32.
type Week struct {
	Year int
	Week int
}

// Parse validates and decodes a YYYY-Www identifier.
func Parse(s string) (Week, error) {
	m := weekRe.FindStringSubmatch(s)
	if m == nil {
		return Week{}, fmt.Errorf("period: malformed week %q", s)
	}
	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])
	if week < 1 || week > 53 {
		return Week{}, fmt.Errorf("period: week %d out of range in %q", week, s)
	}
	return Week{Year: year, Week: week}, nil
}

// IsWeek reports whether s is a well-formed week identifier.
func IsWeek(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// IsMonth reports whether s is a well-formed YYYY-MM identifier.
func IsMonth(s string) bool {
	return monthRe.MatchString(s)
}

// String renders the canonical YYYY-Www form.
func (w Week) String() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Week)
}

// Monday returns the Monday the week starts on. Week 1's Monday is the
// Monday on or before January 4 of the year; every other week offsets from
// there in whole weeks.
func (w Week) Monday() time.Time {
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	firstMonday := jan4.AddDate(0, 0, -offset)
	return firstMonday.AddDate(0, 0, (w.Week-1)*7)
}

// Sunday returns the last day of the week.
func (w Week) Sunday() time.Time {
	return w.Monday().AddDate(0, 0, 6)
}

// Month returns the YYYY-MM the week's Monday falls in. A week is grouped
// into exactly one month, decided by its Monday.
func (w Week) Month() string {
	return w.Monday().Format("2006-01")
}

// Label renders a human readable selector label for the week.
func (w Week) Label() string {
	return fmt.Sprintf("%s (%s)", w.String(), w.Monday().Format("Jan 2"))
}

// DayLabel renders the short calendar-date label used when the period
// selector operates in day mode.
func (w Week) DayLabel() string {
	return w.Monday().Format("Mon, Jan 2 2006")
}

// MonthOf computes the month for a raw week identifier, returning "" for
// malformed input.
func MonthOf(week string) string {
	w, err := Parse(week)
	if err != nil {
		return ""
	}
	return w.Month()
}

// MonthLabel renders a YYYY-MM identifier as "January 2006". Unparseable
// input is returned verbatim.
func MonthLabel(month string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return month
	}
	return t.Format("January 2006")
}

// MonthsOf derives the distinct months covered by the given weeks, sorted
// descending. Malformed weeks are skipped. The YYYY-MM form sorts
// lexicographically in time order, so plain string sorting suffices.
func MonthsOf(weeks []string) []string {
	seen := make(map[string]struct{}, len(weeks))
	months := make([]string, 0, len(weeks))
	for _, week := range weeks {
		month := MonthOf(week)
		if month == "" {
			continue
		}
		if _, ok := seen[month]; ok {
			continue
		}
		seen[month] = struct{}{}
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// WeeksOfMonth filters weeks down to those whose Monday falls inside month,
// preserving the input order.
func WeeksOfMonth(weeks []string, month string) []string {
	out := make([]string, 0, 5)
	for _, week := range weeks {
		if MonthOf(week) == month {
			out = append(out, week)
		}
	}
	return out
}
