package ui

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-clinic/internal/calendar"
	"github.com/tartampluch/go-clinic/internal/config"
	"github.com/tartampluch/go-clinic/internal/engine"
	"github.com/tartampluch/go-clinic/internal/form"
	"github.com/tartampluch/go-clinic/internal/server"
	"github.com/zalando/go-keyring"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockSubmitter simulates the clinic backend using testify/mock.
type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, formID string, values form.Values) (form.Receipt, error) {
	args := m.Called(ctx, formID, values)
	return args.Get(0).(form.Receipt), args.Error(1)
}

// MockTray implements minimal system tray functionality for headless testing.
type MockTray struct {
	Menu *fyne.Menu
}

func (m *MockTray) SetSystemTrayMenu(menu *fyne.Menu) {
	m.Menu = menu
}

func (m *MockTray) SetSystemTrayIcon(icon fyne.Resource) {}
func (m *MockTray) SetSystemTrayWindow(w fyne.Window)    {}
func (m *MockTray) Run()                                 {}
func (m *MockTray) Quit()                                {}

// -----------------------------------------------------------------------------
// Test Setup Helper
// -----------------------------------------------------------------------------

// uiNow is Monday 10 March 2025. March 1st is a Saturday, so day d of March
// sits at grid index d+5.
var uiNow = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

func marchCell(day int) int { return day + 5 }

// setupTestApp initializes a headless Fyne app with mocked dependencies.
func setupTestApp(t *testing.T) (*ClinicApp, *MockSubmitter) {
	a := test.NewApp()
	keyring.MockInit()

	sub := new(MockSubmitter)
	clock := calendar.FixedClock{Time: uiNow}
	ledger := engine.NewLedger(clock, 30*time.Minute)
	ledger.Location = time.UTC

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	app := NewClinicApp(a, ctx, server.NewClinicServer("0", sub), sub, ledger, config.DefaultSettings())
	app.Clock = clock

	// Manually load I18n as Run() is skipped
	app.SetupI18n()
	return app, sub
}

// newTestFormView opens the view of formID in a test window and returns a
// channel fed with the status of every settled submission.
func newTestFormView(t *testing.T, app *ClinicApp, formID string) (*FormView, chan form.Status) {
	t.Helper()
	def, ok := form.Lookup(formID)
	require.True(t, ok)

	v := app.NewFormView(def)
	settled := make(chan form.Status, 1)
	v.onSettled = func(s form.Status) { settled <- s }

	w := test.NewWindow(v.Content())
	t.Cleanup(w.Close)
	return v, settled
}

func (v *FormView) field(name string) *fieldWidget {
	for _, fw := range v.fields {
		if fw.spec.Name == name {
			return fw
		}
	}
	return nil
}

func (v *FormView) entry(name string) *widget.Entry {
	switch in := v.field(name).input.(type) {
	case *widget.Entry:
		return in
	case *FilteredEntry:
		return &in.Entry
	}
	return nil
}

func waitSettled(t *testing.T, ch chan form.Status) form.Status {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("submission did not settle")
		return form.Idle
	}
}

// fillQuickBooking books 12 March 2025 at 09:30 through the calendar.
func fillQuickBooking(v *FormView) {
	test.Type(v.entry(config.FieldName), "Ada")
	test.Type(v.entry(config.FieldEmail), "ada@example.com")
	test.Tap(v.Calendar.cells[marchCell(12)])
	test.Type(v.entry(config.FieldTime), "09:30")
}

var quickBookingValues = form.Values{
	config.FieldName:  {"Ada"},
	config.FieldEmail: {"ada@example.com"},
	config.FieldDate:  {"2025-03-12"},
	config.FieldTime:  {"09:30"},
}

// -----------------------------------------------------------------------------
// Localization Tests
// -----------------------------------------------------------------------------

func TestLocalization_Switching(t *testing.T) {
	app, _ := setupTestApp(t)

	app.Settings.Language = "en"
	app.UpdateLocalizer()
	assert.Equal(t, "Settings...", app.GetMsg(config.TKeyMenuSettings))

	app.Settings.Language = "fr"
	app.UpdateLocalizer()
	assert.Equal(t, "Paramètres...", app.GetMsg(config.TKeyMenuSettings))
	assert.Equal(t, "Mars 2025", app.monthTitle(calendar.YearMonth{Year: 2025, Month: time.March}))
	assert.Equal(t, "Lun", app.weekdayNames()[1])

	def, _ := form.Lookup(config.FormFollowUp)
	assert.Equal(t, "Planifier un suivi", app.formTitle(def))
}

func TestLocalization_Fallbacks(t *testing.T) {
	app := &ClinicApp{}
	assert.Equal(t, config.TKeyBtnSubmit, app.GetMsg(config.TKeyBtnSubmit), "no localizer returns the key")

	def := form.Definition{ID: "ad-hoc", Title: "Ad hoc"}
	assert.Equal(t, "Ad hoc", app.formTitle(def))
	assert.Len(t, app.weekdayNames(), 7)
	assert.Equal(t, "March 2025", app.monthTitle(calendar.YearMonth{Year: 2025, Month: time.March}))
}

// -----------------------------------------------------------------------------
// Form View Tests
// -----------------------------------------------------------------------------

func TestFormView_CalendarFeedsDateField(t *testing.T) {
	app, _ := setupTestApp(t)
	v, _ := newTestFormView(t, app, config.FormQuickBooking)
	require.NotNil(t, v.Calendar)

	// Yesterday is disabled: tapping it changes nothing.
	test.Tap(v.Calendar.cells[marchCell(9)])
	assert.Empty(t, v.session.Value(config.FieldDate))

	test.Tap(v.Calendar.cells[marchCell(12)])
	assert.Equal(t, "2025-03-12", v.session.Value(config.FieldDate))
	assert.Equal(t, "2025-03-12", v.entry(config.FieldDate).Text)

	v.Calendar.TypedKey(&fyne.KeyEvent{Name: fyne.KeyDown})
	assert.Equal(t, "2025-03-19", v.session.Value(config.FieldDate))
}

func TestFormView_ValidationErrorsShown(t *testing.T) {
	app, sub := setupTestApp(t)
	v, settled := newTestFormView(t, app, config.FormQuickBooking)

	test.Tap(v.submit)
	assert.Equal(t, form.Idle, waitSettled(t, settled))

	name := v.field(config.FieldName)
	assert.True(t, name.errLbl.Visible())
	assert.Equal(t, config.MsgNameRequired, name.errLbl.Text)
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)

	// Typing clears the error of that field only.
	test.Type(v.entry(config.FieldName), "A")
	assert.False(t, name.errLbl.Visible())
	assert.True(t, v.field(config.FieldEmail).errLbl.Visible())
}

func TestFormView_SubmitSuccess(t *testing.T) {
	app, sub := setupTestApp(t)
	sub.On("Submit", mock.Anything, config.FormQuickBooking, quickBookingValues).
		Return(form.Receipt{ConfirmationID: "QB-42", At: uiNow}, nil).Once()

	v, settled := newTestFormView(t, app, config.FormQuickBooking)
	fillQuickBooking(v)

	test.Tap(v.submit)
	assert.Equal(t, form.Succeeded, waitSettled(t, settled))
	sub.AssertExpectations(t)

	assert.True(t, v.confirm.Visible())
	assert.False(t, v.body.Visible())
	assert.Contains(t, v.confirmID.Text, "QB-42")
	assert.Equal(t, "Your appointment has been scheduled successfully!", v.confirmMsg.Text)

	// Inputs were cleared without writing back into the session.
	assert.Empty(t, v.entry(config.FieldName).Text)
	_, hasSel := v.Calendar.picker.Selected()
	assert.False(t, hasSel)
	assert.Equal(t, form.Succeeded, v.session.Status())

	v.NewRequest()
	assert.Equal(t, form.Idle, v.session.Status())
	assert.True(t, v.body.Visible())
	assert.False(t, v.confirm.Visible())
	assert.False(t, v.submit.Disabled())
}

func TestFormView_SubmitFailure(t *testing.T) {
	app, sub := setupTestApp(t)
	sub.On("Submit", mock.Anything, config.FormQuickBooking, mock.Anything).
		Return(form.Receipt{}, errors.New("backend down")).Once()

	v, settled := newTestFormView(t, app, config.FormQuickBooking)
	fillQuickBooking(v)

	test.Tap(v.submit)
	assert.Equal(t, form.Failed, waitSettled(t, settled))

	assert.True(t, v.banner.Visible())
	assert.Equal(t, "Oops! Something went wrong. Please try again later.", v.banner.Text)
	assert.Equal(t, "Ada", v.entry(config.FieldName).Text, "values are kept for a retry")
	assert.False(t, v.submit.Disabled())

	// Editing clears the failure.
	test.Type(v.entry(config.FieldName), "!")
	assert.False(t, v.banner.Visible())
	assert.Equal(t, form.Idle, v.session.Status())
}

func TestFormView_ChecksAndSelect(t *testing.T) {
	app, sub := setupTestApp(t)
	sub.On("Submit", mock.Anything, config.FormContactPreferences, form.Values{
		"methods":  {"email", "sms"},
		"bestTime": {"evening"},
	}).Return(form.Receipt{ConfirmationID: "CP-1"}, nil).Once()

	v, settled := newTestFormView(t, app, config.FormContactPreferences)
	assert.Nil(t, v.Calendar, "no calendar without a booking date")

	v.field("methods").input.(*widget.CheckGroup).SetSelected([]string{"email", "sms"})
	v.field("bestTime").input.(*widget.Select).SetSelected("evening")

	v.Submit()
	assert.Equal(t, form.Succeeded, waitSettled(t, settled))
	sub.AssertExpectations(t)
	assert.Empty(t, v.field("methods").input.(*widget.CheckGroup).Selected)
}

// -----------------------------------------------------------------------------
// Main Window, Tray & Appointments
// -----------------------------------------------------------------------------

func TestBuildMainWindow(t *testing.T) {
	app, _ := setupTestApp(t)
	w := app.BuildMainWindow()
	defer w.Close()

	require.Len(t, app.tabs.Items, len(form.Catalog()))
	assert.Equal(t, "Book an Appointment", app.tabs.Items[0].Text)

	withCalendar := 0
	for _, v := range app.forms {
		if v.Calendar != nil {
			withCalendar++
		}
	}
	assert.Equal(t, 5, withCalendar, "appointment, quick, home, follow-up and doctor booking")

	app.Settings.Language = "fr"
	app.UpdateLocalizer()
	app.RefreshLabels()
	assert.Equal(t, "Prendre rendez-vous", app.tabs.Items[0].Text)
}

func TestTrayStatus_FollowsLedger(t *testing.T) {
	app, _ := setupTestApp(t)
	tray := &MockTray{}
	app.Tray = tray
	app.setupTrayMenu()
	app.watchLedger()

	require.NotNil(t, tray.Menu)
	assert.Equal(t, "No appointments booked", app.TrayStatusItem.Label)

	receipt := form.Receipt{ConfirmationID: "r-1", At: uiNow}
	require.True(t, app.Ledger.Record(config.FormQuickBooking, quickBookingValues, receipt))
	assert.Equal(t, "1 appointment booked", app.TrayStatusItem.Label)

	app.updateTrayStatus(3)
	assert.Equal(t, "3 appointments booked", app.TrayStatusItem.Label)
}

func TestAppointmentsWindow(t *testing.T) {
	app, _ := setupTestApp(t)
	app.watchLedger()

	receipt := form.Receipt{ConfirmationID: "r-1", At: uiNow}
	app.Ledger.Record(config.FormQuickBooking, quickBookingValues, receipt)

	app.ShowAppointmentsWindow()
	require.NotNil(t, app.appointmentsWindow)
	require.NotNil(t, app.appointments)
	first := app.appointmentsWindow

	// Singleton: a second call reuses the window.
	app.ShowAppointmentsWindow()
	assert.Same(t, first, app.appointmentsWindow)

	v := app.appointments
	require.Len(t, v.rows, 1)
	assert.Equal(t, "2025-03-12", v.cellText(v.rows[0], config.AppointmentsColDate))
	assert.Equal(t, "09:30", v.cellText(v.rows[0], config.AppointmentsColTime))
	assert.Equal(t, "Ada", v.cellText(v.rows[0], config.AppointmentsColPatient))
	assert.Equal(t, "Quick Booking", v.cellText(v.rows[0], config.AppointmentsColForm))
	assert.Equal(t, "Date"+config.SortIconAsc, v.headerText(config.AppointmentsColDate))

	v.toggleSort(config.AppointmentsColDate)
	assert.Equal(t, "Date"+config.SortIconDesc, v.headerText(config.AppointmentsColDate))

	// New bookings show up live.
	later := form.Values{
		config.FieldFullName: {"Bob"},
		config.FieldDate:     {"2025-03-20"},
		config.FieldTime:     {"11:00"},
	}
	app.Ledger.Record(config.FormAppointment, later, form.Receipt{ConfirmationID: "r-2", At: uiNow})
	require.Len(t, v.rows, 2)

	v.formFilter = config.FormAppointment
	v.apply()
	require.Len(t, v.rows, 1)
	assert.Equal(t, "Bob", v.rows[0].Patient)

	labels, ids := v.filterOptions()
	assert.Equal(t, "All forms", labels[0])
	assert.Equal(t, config.FilterAllForms, ids[labels[0]])
	assert.Len(t, labels, 6, "all forms plus five booking forms")

	app.appointmentsWindow.Close()
	assert.Nil(t, app.appointmentsWindow)
	assert.Nil(t, app.appointments)
}

func TestSettingsWindow_SaveAppliesLanguage(t *testing.T) {
	app, _ := setupTestApp(t)
	app.SettingsPath = filepath.Join(t.TempDir(), config.SettingsFileName)

	app.ShowSettingsWindow()
	require.NotNil(t, app.settingsWindow)
	first := app.settingsWindow
	app.ShowSettingsWindow()
	assert.Same(t, first, app.settingsWindow)

	sw := app.newSettingsWidgets()
	sw.langSelect.SetSelected("fr")
	sw.tokenEntry.SetText("tok-1")
	app.saveSettings(sw, app.settingsWindow)

	assert.Equal(t, "fr", app.Settings.Language)
	assert.Equal(t, "Paramètres...", app.GetMsg(config.TKeyMenuSettings))
	assert.Nil(t, app.settingsWindow, "saving closes the window")

	saved, err := config.LoadSettings(app.SettingsPath)
	require.NoError(t, err)
	assert.Equal(t, "fr", saved.Language)

	token, err := config.SubmitToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}
