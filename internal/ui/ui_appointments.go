package ui

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-clinic/internal/config"
	"github.com/tartampluch/go-clinic/internal/engine"
	"github.com/tartampluch/go-clinic/internal/form"
)

// appointmentsView is the state behind the appointments window: the ledger
// snapshot, the active form filter and the sort column.
type appointmentsView struct {
	app *ClinicApp

	all  []engine.Appointment
	rows []engine.Appointment

	sortCol    int
	sortAsc    bool
	formFilter string

	table *widget.Table
}

func newAppointmentsView(app *ClinicApp) *appointmentsView {
	return &appointmentsView{
		app:        app,
		sortCol:    config.AppointmentsColDate,
		sortAsc:    true,
		formFilter: config.FilterAllForms,
	}
}

// reload takes a fresh snapshot of the ledger.
func (v *appointmentsView) reload() {
	v.all = nil
	if v.app.Ledger != nil {
		v.all = v.app.Ledger.Appointments()
	}
	v.apply()
}

// apply recomputes the visible rows from the snapshot.
func (v *appointmentsView) apply() {
	v.rows = filterAppointments(v.all, v.formFilter)
	sortAppointments(v.rows, v.sortCol, v.sortAsc)

	slog.Debug(config.LogMsgSorted,
		config.LogKeyComponent, config.CompUI,
		config.LogKeySortCol, v.sortCol,
		config.LogKeySortAsc, v.sortAsc,
		config.LogKeyCount, len(v.rows))

	if v.table != nil {
		v.table.Refresh()
	}
}

// toggleSort sorts by col, flipping the direction when col is already active.
func (v *appointmentsView) toggleSort(col int) {
	if v.sortCol == col {
		v.sortAsc = !v.sortAsc
	} else {
		v.sortCol = col
		v.sortAsc = true
	}
	v.apply()
}

// filterAppointments keeps the appointments booked through formID.
// FilterAllForms keeps everything.
func filterAppointments(list []engine.Appointment, formID string) []engine.Appointment {
	out := make([]engine.Appointment, 0, len(list))
	for _, a := range list {
		if formID == config.FilterAllForms || a.FormID == formID {
			out = append(out, a)
		}
	}
	return out
}

// sortAppointments orders rows by the given column. Ties fall back to the
// start time so the order is stable across refreshes.
func sortAppointments(rows []engine.Appointment, col int, asc bool) {
	slices.SortStableFunc(rows, func(a, b engine.Appointment) int {
		var c int
		switch col {
		case config.AppointmentsColPatient:
			c = cmp.Compare(strings.ToLower(a.Patient), strings.ToLower(b.Patient))
		case config.AppointmentsColForm:
			c = cmp.Compare(a.FormID, b.FormID)
		case config.AppointmentsColTime:
			c = cmp.Compare(a.Start.Format(config.TimeLayout), b.Start.Format(config.TimeLayout))
		}
		if c == 0 {
			c = a.Start.Compare(b.Start)
		}
		if !asc {
			return -c
		}
		return c
	})
}

// cellText renders one table cell.
func (v *appointmentsView) cellText(a engine.Appointment, col int) string {
	switch col {
	case config.AppointmentsColDate:
		return a.Start.Format(config.DateFormatDisplay)
	case config.AppointmentsColTime:
		return a.Start.Format(config.TimeLayout)
	case config.AppointmentsColPatient:
		return a.Patient
	case config.AppointmentsColForm:
		if def, ok := form.Lookup(a.FormID); ok {
			return v.app.formTitle(def)
		}
		return a.FormID
	}
	return ""
}

// headerText renders a column title with its sort indicator.
func (v *appointmentsView) headerText(col int) string {
	var key string
	switch col {
	case config.AppointmentsColDate:
		key = config.TKeyColDate
	case config.AppointmentsColTime:
		key = config.TKeyColTime
	case config.AppointmentsColPatient:
		key = config.TKeyColPatient
	case config.AppointmentsColForm:
		key = config.TKeyColForm
	}
	text := v.app.GetMsg(key)
	if col == v.sortCol {
		if v.sortAsc {
			text += config.SortIconAsc
		} else {
			text += config.SortIconDesc
		}
	}
	return text
}

// filterOptions returns the filter labels (all forms first) and their form IDs.
func (v *appointmentsView) filterOptions() ([]string, map[string]string) {
	labels := []string{v.app.GetMsg(config.TKeyLblAllForms)}
	ids := map[string]string{labels[0]: config.FilterAllForms}
	for _, def := range form.Catalog() {
		if !def.IsBooking() {
			continue
		}
		title := v.app.formTitle(def)
		labels = append(labels, title)
		ids[title] = def.ID
	}
	return labels, ids
}

// ShowAppointmentsWindow lists the booked appointments, sortable by column
// header and filterable by the form they were booked through.
// Only one instance is open at a time.
func (app *ClinicApp) ShowAppointmentsWindow() {
	if app.appointmentsWindow != nil {
		app.appointmentsWindow.RequestFocus()
		return
	}

	w := app.App.NewWindow(app.GetMsg(config.TKeyWinAppointments))
	w.Resize(fyne.NewSize(config.AppointmentsWinWidth, config.AppointmentsWinHeight))
	app.appointmentsWindow = w

	v := newAppointmentsView(app)
	app.appointments = v
	v.reload()

	slog.Info(config.LogMsgOpenWin,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyCount, len(v.all))

	v.table = widget.NewTable(
		func() (int, int) {
			return len(v.rows), config.AppointmentsColumnCount
		},
		func() fyne.CanvasObject {
			return widget.NewLabel(config.TablePlaceholder)
		},
		func(id widget.TableCellID, o fyne.CanvasObject) {
			label := o.(*widget.Label)
			if id.Row >= len(v.rows) {
				label.SetText("")
				return
			}
			label.SetText(v.cellText(v.rows[id.Row], id.Col))
		},
	)

	v.table.ShowHeaderRow = true
	v.table.CreateHeader = func() fyne.CanvasObject {
		return widget.NewButton("Header", func() {})
	}
	v.table.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		btn := o.(*widget.Button)
		btn.SetText(v.headerText(id.Col))
		btn.OnTapped = func() { v.toggleSort(id.Col) }
	}

	v.table.SetColumnWidth(config.AppointmentsColDate, config.ColWidthDate)
	v.table.SetColumnWidth(config.AppointmentsColTime, config.ColWidthTime)
	v.table.SetColumnWidth(config.AppointmentsColPatient, config.ColWidthPatient)
	v.table.SetColumnWidth(config.AppointmentsColForm, config.ColWidthForm)

	labels, ids := v.filterOptions()
	filter := widget.NewSelect(labels, func(s string) {
		v.formFilter = ids[s]
		if v.formFilter == "" {
			v.formFilter = config.FilterAllForms
		}
		v.apply()
	})
	filter.SetSelected(labels[0])

	top := container.NewBorder(nil, nil, widget.NewLabel(app.GetMsg(config.TKeyLblFilter)), nil, filter)
	w.SetContent(container.NewBorder(top, nil, nil, nil, v.table))

	w.SetOnClosed(func() {
		app.appointmentsWindow = nil
		app.appointments = nil
	})

	w.Show()
}
