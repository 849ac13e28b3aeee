package ui

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-clinic/internal/calendar"
)

// calendarLabels carries the localized strings of a CalendarView.
type calendarLabels struct {
	Weekdays   []string // Sunday first
	MonthTitle func(calendar.YearMonth) string
	Selected   string
	NoDate     string
}

// CalendarView renders a calendar.Picker as a 6x7 month grid.
// It is focusable: arrow keys move the selection, Page Up/Down change month.
type CalendarView struct {
	widget.BaseWidget

	picker *calendar.Picker
	labels calendarLabels

	title   *widget.Label
	prev    *widget.Button
	next    *widget.Button
	cells   [calendar.GridSize]*widget.Button
	grid    []calendar.Cell
	status  *widget.Label
	focused bool
	content fyne.CanvasObject
}

// NewCalendarView builds the widget around an existing picker.
func NewCalendarView(picker *calendar.Picker, labels calendarLabels) *CalendarView {
	v := &CalendarView{picker: picker, labels: labels}
	v.ExtendBaseWidget(v)

	v.title = widget.NewLabel("")
	v.title.Alignment = fyne.TextAlignCenter
	v.title.TextStyle = fyne.TextStyle{Bold: true}
	v.prev = widget.NewButtonWithIcon("", theme.NavigateBackIcon(), v.PreviousMonth)
	v.next = widget.NewButtonWithIcon("", theme.NavigateNextIcon(), v.NextMonth)
	header := container.NewBorder(nil, nil, v.prev, v.next, v.title)

	days := container.NewGridWithColumns(calendar.GridColumns)
	for _, name := range labels.Weekdays {
		l := widget.NewLabel(name)
		l.Alignment = fyne.TextAlignCenter
		days.Add(l)
	}

	grid := container.NewGridWithColumns(calendar.GridColumns)
	for i := range v.cells {
		b := widget.NewButton("", func() { v.tapCell(i) })
		v.cells[i] = b
		grid.Add(b)
	}

	v.status = widget.NewLabel("")
	v.content = container.NewVBox(header, days, grid, v.status)
	v.update()
	return v
}

// CreateRenderer is a private method to Fyne which links this widget to its renderer.
func (v *CalendarView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.content)
}

// PreviousMonth shows the previous month.
func (v *CalendarView) PreviousMonth() {
	v.picker.PreviousMonth()
	v.update()
}

// NextMonth shows the next month.
func (v *CalendarView) NextMonth() {
	v.picker.NextMonth()
	v.update()
}

// Reset clears the selection and redraws.
func (v *CalendarView) Reset() {
	v.picker.Reset()
	v.update()
}

func (v *CalendarView) tapCell(i int) {
	if i < len(v.grid) && v.picker.SelectCell(v.grid[i]) {
		v.update()
	}
	v.requestFocus()
}

func (v *CalendarView) requestFocus() {
	if v.focused {
		return
	}
	if c := fyne.CurrentApp().Driver().CanvasForObject(v); c != nil {
		c.Focus(v)
	}
}

// update pushes the picker state into the child widgets.
func (v *CalendarView) update() {
	v.grid = v.picker.Grid()
	sel, hasSel := v.picker.Selected()
	today := v.picker.Today()

	if v.labels.MonthTitle != nil {
		v.title.SetText(v.labels.MonthTitle(v.picker.Displayed()))
	} else {
		v.title.SetText(v.picker.Displayed().String())
	}

	for i, b := range v.cells {
		if i >= len(v.grid) {
			b.Hide()
			continue
		}
		c := v.grid[i]
		b.SetText(strconv.Itoa(c.Date.Day))

		switch {
		case hasSel && c.Date == sel && c.InCurrentMonth:
			b.Importance = widget.HighImportance
		case c.Date == today:
			b.Importance = widget.MediumImportance
		default:
			b.Importance = widget.LowImportance
		}

		if v.picker.IsDisabled(c) {
			b.Disable()
		} else {
			b.Enable()
		}
		b.Refresh()
	}

	if hasSel {
		v.status.SetText(v.labels.Selected + " " + sel.String())
	} else {
		v.status.SetText(v.labels.NoDate)
	}
}

// FocusGained is called when the calendar gets keyboard focus.
func (v *CalendarView) FocusGained() {
	v.focused = true
}

// FocusLost is called when the calendar loses keyboard focus.
func (v *CalendarView) FocusLost() {
	v.focused = false
}

// TypedRune ignores text input.
func (v *CalendarView) TypedRune(rune) {}

// TypedKey maps arrow keys to selection moves.
func (v *CalendarView) TypedKey(ev *fyne.KeyEvent) {
	var dir calendar.Direction
	switch ev.Name {
	case fyne.KeyLeft:
		dir = calendar.Left
	case fyne.KeyRight:
		dir = calendar.Right
	case fyne.KeyUp:
		dir = calendar.Up
	case fyne.KeyDown:
		dir = calendar.Down
	case fyne.KeyPageUp:
		v.PreviousMonth()
		return
	case fyne.KeyPageDown:
		v.NextMonth()
		return
	default:
		return
	}
	if v.picker.MoveSelection(dir) {
		v.update()
	}
}

// Tapped gives the calendar focus when its background is clicked.
func (v *CalendarView) Tapped(*fyne.PointEvent) {
	v.requestFocus()
}
