// Package calendar builds the month view used for hours entry.
package calendar

import "time"

// Cell is one slot in a month grid: either a calendar day or a leading blank
// aligning the first day of the month with its weekday column.
type Cell struct {
	// Day is the day of the month, or 0 for a blank cell.
	Day  int
	Date time.Time
}

// Blank reports whether the cell is a leading filler slot.
func (c Cell) Blank() bool {
	return c.Day == 0
}

// MonthGrid lays out a month as a sequence of cells for a 7-column grid:
// one blank per weekday preceding the 1st (Sunday = column 0), then every day
// of the month in order. Output length = leading blanks + days in month.
func MonthGrid(year int, month time.Month) []Cell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	cells := make([]Cell, 0, int(first.Weekday())+daysInMonth)
	for i := 0; i < int(first.Weekday()); i++ {
		cells = append(cells, Cell{})
	}
	for day := 1; day <= daysInMonth; day++ {
		cells = append(cells, Cell{
			Day:  day,
			Date: time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
		})
	}
	return cells
}
