package calendar

import (
	"testing"
	"time"
)

func TestMonthGrid(t *testing.T) {
	tests := []struct {
		name        string
		year        int
		month       time.Month
		wantBlanks  int
		wantDays    int
	}{
		// February 2024 starts on a Thursday in a leap year.
		{name: "leap february", year: 2024, month: time.February, wantBlanks: 4, wantDays: 29},
		// September 2024 starts on a Sunday: no leading blanks.
		{name: "starts on sunday", year: 2024, month: time.September, wantBlanks: 0, wantDays: 30},
		// February 2023 is the non-leap case.
		{name: "plain february", year: 2023, month: time.February, wantBlanks: 3, wantDays: 28},
		{name: "31-day month", year: 2024, month: time.March, wantBlanks: 5, wantDays: 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells := MonthGrid(tt.year, tt.month)

			if len(cells) != tt.wantBlanks+tt.wantDays {
				t.Fatalf("grid length = %d, want %d", len(cells), tt.wantBlanks+tt.wantDays)
			}
			for i := 0; i < tt.wantBlanks; i++ {
				if !cells[i].Blank() {
					t.Errorf("cell %d should be blank", i)
				}
			}
			for i := 0; i < tt.wantDays; i++ {
				cell := cells[tt.wantBlanks+i]
				if cell.Blank() {
					t.Fatalf("cell %d should be day %d, got blank", tt.wantBlanks+i, i+1)
				}
				if cell.Day != i+1 {
					t.Errorf("cell %d day = %d, want %d", tt.wantBlanks+i, cell.Day, i+1)
				}
				if cell.Date.Day() != i+1 || cell.Date.Month() != tt.month || cell.Date.Year() != tt.year {
					t.Errorf("cell %d date = %v", tt.wantBlanks+i, cell.Date)
				}
			}
		})
	}
}

func TestMonthGridFirstDayColumn(t *testing.T) {
	// The number of leading blanks must equal the first day's weekday index.
	for month := time.January; month <= time.December; month++ {
		cells := MonthGrid(2024, month)
		first := time.Date(2024, month, 1, 0, 0, 0, 0, time.UTC)
		blanks := 0
		for _, c := range cells {
			if !c.Blank() {
				break
			}
			blanks++
		}
		if blanks != int(first.Weekday()) {
			t.Errorf("%v: %d blanks, want %d", month, blanks, int(first.Weekday()))
		}
	}
}
