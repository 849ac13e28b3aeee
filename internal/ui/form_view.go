package ui

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-clinic/internal/calendar"
	"github.com/tartampluch/go-clinic/internal/config"
	"github.com/tartampluch/go-clinic/internal/form"
)

// fieldWidget couples the input of one declared field with its error line.
type fieldWidget struct {
	spec   form.FieldSpec
	input  fyne.CanvasObject
	clear  func()
	errLbl *widget.Label
}

// FormView binds one form.Session to Fyne widgets. Submissions run in a
// goroutine; results are applied on the UI thread with fyne.Do.
type FormView struct {
	app     *ClinicApp
	session *form.Session

	// Calendar is set on booking forms whose date must not be in the past.
	Calendar  *CalendarView
	dateEntry *widget.Entry

	fields     []*fieldWidget
	banner     *widget.Label
	submit     *widget.Button
	body       *fyne.Container
	confirm    *fyne.Container
	confirmMsg *widget.Label
	confirmID  *widget.Label
	content    fyne.CanvasObject

	// quiet is set while widgets are reset programmatically so their
	// change callbacks do not write back into the session.
	quiet bool

	onSettled func(form.Status)
}

// NewFormView builds the view of def backed by a fresh session.
func (app *ClinicApp) NewFormView(def form.Definition) *FormView {
	v := &FormView{app: app}
	v.session = form.NewSession(def, app.Submitter,
		form.WithClock(app.clock()),
		form.WithTimeout(app.submitTimeout()),
	)

	inputs := container.NewVBox()
	for _, spec := range def.Fields {
		fw := v.buildField(spec)
		v.fields = append(v.fields, fw)
		inputs.Add(v.fieldBox(fw))
	}

	v.banner = widget.NewLabel("")
	v.banner.Importance = widget.DangerImportance
	v.banner.Wrapping = fyne.TextWrapWord
	v.banner.Hide()

	v.submit = widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSubmit), theme.ConfirmIcon(), v.Submit)
	v.submit.Importance = widget.HighImportance

	v.body = container.NewVBox()
	if v.Calendar != nil {
		v.body.Add(v.Calendar)
		v.body.Add(widget.NewSeparator())
	}
	v.body.Add(inputs)
	v.body.Add(v.banner)
	v.body.Add(v.submit)

	v.confirmMsg = widget.NewLabel("")
	v.confirmMsg.Wrapping = fyne.TextWrapWord
	v.confirmMsg.Importance = widget.SuccessImportance
	v.confirmID = widget.NewLabel("")
	again := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnNewRequest), theme.ContentAddIcon(), v.NewRequest)
	v.confirm = container.NewVBox(v.confirmMsg, v.confirmID, again)
	v.confirm.Hide()

	title := widget.NewLabel(app.formTitle(def))
	title.TextStyle = fyne.TextStyle{Bold: true}
	v.content = container.NewPadded(container.NewVBox(title, v.body, v.confirm))

	slog.Debug(config.MsgFormTab,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyForm, def.ID,
		config.LogKeyFields, len(def.Fields))
	return v
}

// Content returns the root object of the view.
func (v *FormView) Content() fyne.CanvasObject {
	return v.content
}

// Session exposes the underlying form session.
func (v *FormView) Session() *form.Session {
	return v.session
}

func (v *FormView) buildField(spec form.FieldSpec) *fieldWidget {
	fw := &fieldWidget{spec: spec}

	switch spec.Kind {
	case form.KindSelect:
		sel := widget.NewSelect(spec.Rule.Options, func(s string) { v.changed(fw, s) })
		sel.PlaceHolder = spec.Placeholder
		fw.input, fw.clear = sel, sel.ClearSelected

	case form.KindChecks:
		group := widget.NewCheckGroup(spec.Rule.Options, func(sel []string) { v.changedChoices(fw, sel) })
		fw.input, fw.clear = group, func() { group.SetSelected(nil) }

	case form.KindPhone:
		// The outer widget goes in the tree so its rune filter applies.
		pe := NewPhoneEntry()
		v.bindEntry(fw, &pe.Entry)
		fw.input = pe

	default:
		entry := widget.NewEntry()
		if spec.Kind == form.KindMultiline {
			entry = widget.NewMultiLineEntry()
			entry.Wrapping = fyne.TextWrapWord
		}
		v.bindEntry(fw, entry)
		fw.input = entry

		if spec.Kind == form.KindDate && spec.Rule.Kind == form.KindDateNotPast && v.Calendar == nil {
			v.dateEntry = entry
			v.Calendar = NewCalendarView(calendar.NewPicker(v.app.clock(), v.dateSelected), v.app.calendarLabels())
		}
	}

	fw.errLbl = widget.NewLabel("")
	fw.errLbl.Importance = widget.DangerImportance
	fw.errLbl.Hide()
	return fw
}

func (v *FormView) bindEntry(fw *fieldWidget, entry *widget.Entry) {
	entry.PlaceHolder = fw.spec.Placeholder
	entry.OnChanged = func(s string) { v.changed(fw, s) }
	fw.clear = func() { entry.SetText("") }
}

func (v *FormView) fieldBox(fw *fieldWidget) fyne.CanvasObject {
	text := fw.spec.Label
	if fw.spec.Rule.Kind != form.KindNone {
		text += " *"
	}
	label := widget.NewLabel(text)
	label.TextStyle = fyne.TextStyle{Bold: true}

	box := container.NewVBox(label, fw.input)
	if fw.spec.Kind == form.KindTime && fw.spec.Rule.Min != "" {
		hint := widget.NewLabel(fmt.Sprintf(config.TimeRangeHintFormat, fw.spec.Rule.Min, fw.spec.Rule.Max))
		hint.Importance = widget.LowImportance
		box.Add(hint)
	}
	box.Add(fw.errLbl)
	return box
}

// dateSelected mirrors a calendar pick into the date field.
func (v *FormView) dateSelected(d calendar.Date) {
	if v.dateEntry == nil {
		return
	}
	v.quiet = true
	v.dateEntry.SetText(d.String())
	v.quiet = false
	v.session.SetField(config.FieldDate, d.String())
	v.afterEdit(config.FieldDate)
}

func (v *FormView) changed(fw *fieldWidget, value string) {
	if v.quiet {
		return
	}
	v.session.SetField(fw.spec.Name, value)
	v.afterEdit(fw.spec.Name)
}

func (v *FormView) changedChoices(fw *fieldWidget, choices []string) {
	if v.quiet {
		return
	}
	v.session.SetChoices(fw.spec.Name, choices)
	v.afterEdit(fw.spec.Name)
}

// afterEdit hides the stale error of the edited field and the failure banner.
func (v *FormView) afterEdit(name string) {
	for _, fw := range v.fields {
		if fw.spec.Name == name {
			showError(fw.errLbl, "")
		}
	}
	if v.session.Status() != form.Failed {
		v.banner.Hide()
	}
}

// Submit validates the form and, when valid, submits it in the background.
func (v *FormView) Submit() {
	if v.session.Status() == form.Submitting {
		return
	}
	if errs := v.session.ValidateAll(); len(errs) > 0 {
		v.render()
		if v.onSettled != nil {
			v.onSettled(v.session.Status())
		}
		return
	}

	v.submit.SetText(v.app.GetMsg(config.TKeyBtnSubmitting))
	v.submit.Disable()
	v.banner.Hide()

	ctx := v.app.context()
	go func() {
		status := v.session.Submit(ctx)
		fyne.Do(func() {
			v.render()
			if v.onSettled != nil {
				v.onSettled(status)
			}
		})
	}()
}

// NewRequest leaves the confirmation screen and shows an empty form.
func (v *FormView) NewRequest() {
	v.session.Rearm()
	v.render()
}

// render pushes the session state into the widgets. UI thread only.
func (v *FormView) render() {
	status := v.session.Status()
	errs := v.session.Errors()
	for _, fw := range v.fields {
		showError(fw.errLbl, errs[fw.spec.Name])
	}

	if status == form.Submitting {
		v.submit.SetText(v.app.GetMsg(config.TKeyBtnSubmitting))
		v.submit.Disable()
	} else {
		v.submit.SetText(v.app.GetMsg(config.TKeyBtnSubmit))
		v.submit.Enable()
	}

	if status == form.Failed {
		v.banner.SetText(v.session.FailureMessage())
		v.banner.Show()
	} else {
		v.banner.Hide()
	}

	if status != form.Succeeded {
		v.confirm.Hide()
		v.body.Show()
		return
	}

	receipt, _ := v.session.Receipt()
	v.confirmMsg.SetText(v.session.Definition().Success())
	v.confirmID.SetText(v.app.GetMsg(config.TKeyLblConfirmation) + " " + receipt.ConfirmationID)
	v.clearInputs()
	v.body.Hide()
	v.confirm.Show()
}

// clearInputs empties every widget after a successful submission.
func (v *FormView) clearInputs() {
	v.quiet = true
	defer func() { v.quiet = false }()
	for _, fw := range v.fields {
		fw.clear()
	}
	if v.Calendar != nil {
		v.Calendar.Reset()
	}
}

func showError(l *widget.Label, msg string) {
	l.SetText(msg)
	if msg == "" {
		l.Hide()
	} else {
		l.Show()
	}
}
