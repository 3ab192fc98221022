// Package ledger implements the per-user hours ledger: a mapping from
// employee name to calendar date to declared hours. Ledger values are
// snapshots; mutating operations return a new ledger and leave prior
// snapshots untouched.
package ledger

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the date-key format used throughout the ledger. Keys carry no
// time-of-day component.
const DateLayout = "2006-01-02"

var (
	ErrInvalidHours = errors.New("hours must be a finite number >= 0")
	ErrInvalidDate  = errors.New("invalid date key")
)

// Ledger maps employee name -> date key (YYYY-MM-DD) -> declared hours.
// It is also the wire shape for persistence and export/import.
type Ledger map[string]map[string]float64

// DateKey formats a time as a ledger date key, discarding time-of-day.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateKey parses a ledger date key into a midnight UTC time.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.Parse(DateLayout, key)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// ParseHours parses user-entered text into an hours value, applying the same
// validation as Set.
func ParseHours(s string) (float64, error) {
	h, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, ErrInvalidHours
	}
	if err := validateHours(h); err != nil {
		return 0, err
	}
	return h, nil
}

// FormatHours renders an hours value with two decimal places.
func FormatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}

func validateHours(h float64) error {
	if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
		return ErrInvalidHours
	}
	return nil
}

// Hours returns the entry for the employee on the given date. The second
// return value reports whether an entry exists: a stored 0 is a real entry,
// distinct from no entry at all.
func (l Ledger) Hours(employee string, date time.Time) (float64, bool) {
	days, ok := l[employee]
	if !ok {
		return 0, false
	}
	h, ok := days[DateKey(date)]
	return h, ok
}

// Set records hours for the employee on the given date, overwriting any
// existing entry. It returns a new ledger; the receiver is not modified.
func (l Ledger) Set(employee string, date time.Time, hours float64) (Ledger, error) {
	if err := validateHours(hours); err != nil {
		return nil, err
	}

	next := l.copyFor(employee)
	next[employee][DateKey(date)] = hours
	return next, nil
}

// Delete removes the entry for the employee on the given date, if present.
// It returns a new ledger; the receiver is not modified.
func (l Ledger) Delete(employee string, date time.Time) Ledger {
	key := DateKey(date)
	if days, ok := l[employee]; !ok {
		return l
	} else if _, ok := days[key]; !ok {
		return l
	}

	next := l.copyFor(employee)
	delete(next[employee], key)
	if len(next[employee]) == 0 {
		delete(next, employee)
	}
	return next
}

// copyFor returns a shallow copy of the ledger with the named employee's day
// map deep-copied, ready for mutation.
func (l Ledger) copyFor(employee string) Ledger {
	next := make(Ledger, len(l)+1)
	for e, days := range l {
		next[e] = days
	}
	days := make(map[string]float64, len(l[employee])+1)
	for k, v := range l[employee] {
		days[k] = v
	}
	next[employee] = days
	return next
}

// MonthlyTotal sums the employee's entries falling in the given year and
// month. Entries whose date keys do not parse are skipped.
func (l Ledger) MonthlyTotal(employee string, year int, month time.Month) float64 {
	var total float64
	for key, hours := range l[employee] {
		t, err := ParseDateKey(key)
		if err != nil {
			continue
		}
		if t.Year() == year && t.Month() == month {
			total += hours
		}
	}
	return total
}

// Employees returns the employee names present in the ledger, sorted.
func (l Ledger) Employees() []string {
	names := make([]string, 0, len(l))
	for e := range l {
		names = append(names, e)
	}
	sort.Strings(names)
	return names
}

// EntryCount returns the number of date entries across all employees.
func (l Ledger) EntryCount() int {
	var n int
	for _, days := range l {
		n += len(days)
	}
	return n
}

// Total sums all hours across all employees and dates.
func (l Ledger) Total() float64 {
	var total float64
	for _, days := range l {
		for _, h := range days {
			total += h
		}
	}
	return total
}

// EmployeeTotals returns the total hours per employee.
func (l Ledger) EmployeeTotals() map[string]float64 {
	totals := make(map[string]float64, len(l))
	for e, days := range l {
		var sum float64
		for _, h := range days {
			sum += h
		}
		totals[e] = sum
	}
	return totals
}

// LastActivity returns the latest date with an entry across all employees.
// The second return value is false for an empty ledger. Unparseable date keys
// are skipped.
func (l Ledger) LastActivity() (time.Time, bool) {
	var latest time.Time
	var found bool
	for _, days := range l {
		for key := range days {
			t, err := ParseDateKey(key)
			if err != nil {
				continue
			}
			if !found || t.After(latest) {
				latest = t
				found = true
			}
		}
	}
	return latest, found
}
