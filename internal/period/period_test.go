package period

import (
	"testing"
	"time"

	"tally/internal/ledger"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolve(t *testing.T) {
	// Wednesday 2024-03-20, mid-afternoon: ranges must anchor at midnight.
	now := time.Date(2024, time.March, 20, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		period    Period
		start     time.Time
		end       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{name: "week backs up to sunday", period: Week, wantStart: date(2024, time.March, 17), wantEnd: date(2024, time.March, 20)},
		{name: "month starts on the 1st", period: Month, wantStart: date(2024, time.March, 1), wantEnd: date(2024, time.March, 20)},
		{name: "30 days", period: ThirtyDays, wantStart: date(2024, time.February, 19), wantEnd: date(2024, time.March, 20)},
		{name: "3 calendar months", period: ThreeMonths, wantStart: date(2023, time.December, 20), wantEnd: date(2024, time.March, 20)},
		{
			name: "custom", period: Custom,
			start: date(2024, time.January, 5), end: date(2024, time.January, 10),
			wantStart: date(2024, time.January, 5), wantEnd: date(2024, time.January, 10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok, err := Resolve(tt.period, now, tt.start, tt.end)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if !ok {
				t.Fatal("expected a defined range")
			}
			if !r.Start.Equal(tt.wantStart) || !r.End.Equal(tt.wantEnd) {
				t.Errorf("range = %v..%v, want %v..%v", r.Start, r.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestResolveWeekOnSunday(t *testing.T) {
	// When today is a Sunday the week range is a single day.
	sunday := time.Date(2024, time.March, 17, 8, 0, 0, 0, time.UTC)
	r, ok, err := Resolve(Week, sunday, time.Time{}, time.Time{})
	if err != nil || !ok {
		t.Fatalf("Resolve failed: %v %v", ok, err)
	}
	if !r.Start.Equal(date(2024, time.March, 17)) || !r.End.Equal(date(2024, time.March, 17)) {
		t.Errorf("range = %v..%v, want a single Sunday", r.Start, r.End)
	}
}

func TestResolveCustomAwaitingInput(t *testing.T) {
	now := date(2024, time.March, 20)

	for _, tt := range []struct {
		name       string
		start, end time.Time
	}{
		{name: "no bounds"},
		{name: "only start", start: date(2024, time.March, 1)},
		{name: "only end", end: date(2024, time.March, 10)},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := Resolve(Custom, now, tt.start, tt.end)
			if err != nil {
				t.Fatalf("awaiting input must not be an error, got %v", err)
			}
			if ok {
				t.Error("expected an undefined range")
			}
		})
	}
}

func TestResolveUnknown(t *testing.T) {
	if _, _, err := Resolve(Period("fortnight"), date(2024, time.March, 20), time.Time{}, time.Time{}); err != ErrUnknownPeriod {
		t.Errorf("error = %v, want ErrUnknownPeriod", err)
	}
}

func TestDailySeries(t *testing.T) {
	l, _ := ledger.Ledger{}.Set("Meline", date(2024, time.March, 18), 6)
	l, _ = l.Set("Cel", date(2024, time.March, 19), 4.5)

	series := DailySeries(l, []string{"Meline", "Cel"}, Range{
		Start: date(2024, time.March, 17),
		End:   date(2024, time.March, 20),
	})

	if len(series) != 4 {
		t.Fatalf("series length = %d, want 4", len(series))
	}
	if !series[0].Date.Equal(date(2024, time.March, 17)) {
		t.Errorf("series starts at %v", series[0].Date)
	}
	if series[1].Hours["Meline"] != 6 || series[1].Hours["Cel"] != 0 {
		t.Errorf("day 2 hours = %v", series[1].Hours)
	}
	if series[2].Hours["Cel"] != 4.5 {
		t.Errorf("day 3 hours = %v", series[2].Hours)
	}
}

func TestWeekSeriesBoundaries(t *testing.T) {
	// Entries on the most recent Sunday and today are included; the day
	// before that Sunday is not.
	now := time.Date(2024, time.March, 20, 9, 0, 0, 0, time.UTC)
	l, _ := ledger.Ledger{}.Set("Meline", date(2024, time.March, 16), 1) // Saturday before
	l, _ = l.Set("Meline", date(2024, time.March, 17), 2)                // Sunday
	l, _ = l.Set("Meline", date(2024, time.March, 20), 3)                // today

	r, ok, err := Resolve(Week, now, time.Time{}, time.Time{})
	if err != nil || !ok {
		t.Fatalf("Resolve failed: %v %v", ok, err)
	}
	series := DailySeries(l, []string{"Meline"}, r)

	if got := Total(series, "Meline"); got != 5 {
		t.Errorf("week total = %v, want 5 (Saturday entry must be excluded)", got)
	}
}

func TestTotalAndMaxHours(t *testing.T) {
	l, _ := ledger.Ledger{}.Set("Meline", date(2024, time.March, 18), 6)
	l, _ = l.Set("Meline", date(2024, time.March, 19), 2)
	l, _ = l.Set("Cel", date(2024, time.March, 19), 7.5)

	employees := []string{"Meline", "Cel"}
	series := DailySeries(l, employees, Range{Start: date(2024, time.March, 18), End: date(2024, time.March, 19)})

	if got := Total(series, "Meline"); got != 8 {
		t.Errorf("Total(Meline) = %v, want 8", got)
	}
	if got := Total(series, "Cel"); got != 7.5 {
		t.Errorf("Total(Cel) = %v, want 7.5", got)
	}
	if got := MaxHours(series, employees); got != 7.5 {
		t.Errorf("MaxHours = %v, want 7.5", got)
	}
}

func TestMaxHoursFloor(t *testing.T) {
	series := DailySeries(ledger.Ledger{}, []string{"Meline"}, Range{
		Start: date(2024, time.March, 18),
		End:   date(2024, time.March, 19),
	})
	if got := MaxHours(series, []string{"Meline"}); got != 1 {
		t.Errorf("MaxHours on empty data = %v, want floor of 1", got)
	}
}
