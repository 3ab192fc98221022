// Package period slices a ledger into date ranges and per-day series for
// reporting and charts.
package period

import (
	"errors"
	"time"

	"tally/internal/ledger"
)

// Period names a reporting window anchored at today, or a custom range.
type Period string

const (
	Week        Period = "week"
	Month       Period = "month"
	ThirtyDays  Period = "30days"
	ThreeMonths Period = "3months"
	Custom      Period = "custom"
)

// ErrUnknownPeriod is returned for a period name outside the known set.
var ErrUnknownPeriod = errors.New("unknown period")

// Range is an inclusive pair of calendar-date bounds. It is derived for a
// report and never persisted.
type Range struct {
	Start time.Time
	End   time.Time
}

// Day is one entry of a daily series: a date and each selected employee's
// hours for it (0 when no entry exists).
type Day struct {
	Date  time.Time
	Hours map[string]float64
}

// midnight truncates t to its calendar day.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Resolve computes the date range for a named period anchored at now. For
// Custom, start and end are taken as given; if either is zero the range is
// not yet defined (awaiting input) and ok is false.
func Resolve(p Period, now time.Time, start, end time.Time) (Range, bool, error) {
	today := midnight(now)

	switch p {
	case Week:
		// Back to the most recent Sunday on or before today.
		return Range{Start: today.AddDate(0, 0, -int(today.Weekday())), End: today}, true, nil
	case Month:
		return Range{Start: time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()), End: today}, true, nil
	case ThirtyDays:
		return Range{Start: today.AddDate(0, 0, -30), End: today}, true, nil
	case ThreeMonths:
		return Range{Start: today.AddDate(0, -3, 0), End: today}, true, nil
	case Custom:
		if start.IsZero() || end.IsZero() {
			return Range{}, false, nil
		}
		return Range{Start: midnight(start), End: midnight(end)}, true, nil
	default:
		return Range{}, false, ErrUnknownPeriod
	}
}

// DailySeries builds one Day per calendar date from r.Start through r.End
// inclusive, carrying each selected employee's hours (absent entries read 0).
func DailySeries(l ledger.Ledger, employees []string, r Range) []Day {
	var series []Day
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		day := Day{Date: d, Hours: make(map[string]float64, len(employees))}
		for _, e := range employees {
			h, _ := l.Hours(e, d)
			day.Hours[e] = h
		}
		series = append(series, day)
	}
	return series
}

// Total sums one employee's hours across the series.
func Total(series []Day, employee string) float64 {
	var sum float64
	for _, day := range series {
		sum += day.Hours[employee]
	}
	return sum
}

// MaxHours returns the largest single-day, single-employee value in the
// series, floored at 1 so bar heights scale even when every value is 0.
func MaxHours(series []Day, employees []string) float64 {
	var max float64
	for _, day := range series {
		for _, e := range employees {
			if h := day.Hours[e]; h > max {
				max = h
			}
		}
	}
	if max < 1 {
		return 1
	}
	return max
}
