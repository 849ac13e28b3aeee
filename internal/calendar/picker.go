package calendar

import (
	"log/slog"

	"github.com/tartampluch/go-clinic/internal/config"
)

// Direction is an arrow-key move within the grid.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

// offset returns the day delta of a move.
func (d Direction) offset() int {
	switch d {
	case Left:
		return -1
	case Right:
		return 1
	case Up:
		return -GridColumns
	case Down:
		return GridColumns
	default:
		return 0
	}
}

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// Picker holds the state of an appointments calendar: the displayed month and
// an optional selected date. It is meant to be driven from a single UI thread
// and is not safe for concurrent use.
type Picker struct {
	clock     Clock
	displayed YearMonth
	selected  Date
	hasSel    bool

	// OnDateSelected is invoked once per successful SelectCell or MoveSelection.
	OnDateSelected func(Date)
}

// NewPicker creates a Picker showing the clock's current month with no selection.
// A nil clock falls back to RealClock.
func NewPicker(clock Clock, onSelect func(Date)) *Picker {
	if clock == nil {
		clock = RealClock{}
	}
	return &Picker{
		clock:          clock,
		displayed:      Today(clock).YearMonth(),
		OnDateSelected: onSelect,
	}
}

// Displayed returns the month currently shown.
func (p *Picker) Displayed() YearMonth {
	return p.displayed
}

// Selected returns the selected date, if any.
func (p *Picker) Selected() (Date, bool) {
	return p.selected, p.hasSel
}

// Today returns the clock's current date.
func (p *Picker) Today() Date {
	return Today(p.clock)
}

// Grid returns the 42 cells of the displayed month.
func (p *Picker) Grid() []Cell {
	return BuildGrid(p.displayed.Year, p.displayed.Month)
}

// IsDisabled reports whether a cell must reject selection.
func (p *Picker) IsDisabled(c Cell) bool {
	return Disabled(c, p.Today())
}

// Disabled reports whether a cell belongs to an adjacent month or lies
// strictly before today.
func Disabled(c Cell, today Date) bool {
	return !c.InCurrentMonth || c.Date.Before(today)
}

// SelectCell selects the cell's date unless the cell is disabled.
// It reports whether the selection changed hands to the cell.
func (p *Picker) SelectCell(c Cell) bool {
	if p.IsDisabled(c) {
		slog.Debug(config.MsgCellRejected,
			config.LogKeyComponent, config.CompCalendar,
			config.LogKeyDate, c.Date.String())
		return false
	}
	p.setSelection(c.Date)
	return true
}

// MoveSelection moves the selection by one day (Left/Right) or one week
// (Up/Down). Moves that would leave the displayed month are dropped; the
// displayed month never advances on its own.
func (p *Picker) MoveSelection(dir Direction) bool {
	if !p.hasSel {
		return false
	}
	delta := dir.offset()
	if delta == 0 {
		return false
	}
	candidate := p.selected.AddDays(delta)
	if candidate.YearMonth() != p.displayed {
		slog.Debug(config.MsgMoveRejected,
			config.LogKeyComponent, config.CompCalendar,
			config.LogKeyDirection, dir.String(),
			config.LogKeyDate, candidate.String())
		return false
	}
	p.setSelection(candidate)
	return true
}

// PreviousMonth shows the previous month. The selection is kept.
func (p *Picker) PreviousMonth() {
	p.displayed = p.displayed.Prev()
}

// NextMonth shows the next month. The selection is kept.
func (p *Picker) NextMonth() {
	p.displayed = p.displayed.Next()
}

// Reset clears the selection.
func (p *Picker) Reset() {
	p.selected = Date{}
	p.hasSel = false
}

func (p *Picker) setSelection(d Date) {
	p.selected = d
	p.hasSel = true
	if p.OnDateSelected != nil {
		p.OnDateSelected(d)
	}
}
