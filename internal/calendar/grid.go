package calendar

import "time"

const (
	// GridColumns is the number of days in a displayed week.
	GridColumns = 7
	// GridRows is the number of weeks a month view always shows.
	GridRows = 6
	// GridSize is the fixed cell count of a month view.
	GridSize = GridColumns * GridRows
)

// Cell is one day slot of a month view.
type Cell struct {
	Date Date
	// InCurrentMonth is true only for days of the displayed month.
	InCurrentMonth bool
}

// BuildGrid computes the 6x7 month view for the given month.
//
// The grid starts with the trailing days of the previous month needed to reach
// the first weekday (Sunday first), continues with every day of the month and
// is padded with the leading days of the next month up to GridSize cells.
// A month outside January..December yields nil.
func BuildGrid(year int, month time.Month) []Cell {
	ym := YearMonth{Year: year, Month: month}
	if !ym.Valid() {
		return nil
	}

	cells := make([]Cell, 0, GridSize)

	prev := ym.Prev()
	lead := int(FirstWeekday(year, month))
	prevDays := prev.Days()
	for i := lead - 1; i >= 0; i-- {
		cells = append(cells, Cell{
			Date: Date{Year: prev.Year, Month: prev.Month, Day: prevDays - i},
		})
	}

	for day := 1; day <= ym.Days(); day++ {
		cells = append(cells, Cell{
			Date:           Date{Year: year, Month: month, Day: day},
			InCurrentMonth: true,
		})
	}

	next := ym.Next()
	for day := 1; len(cells) < GridSize; day++ {
		cells = append(cells, Cell{
			Date: Date{Year: next.Year, Month: next.Month, Day: day},
		})
	}

	return cells
}
