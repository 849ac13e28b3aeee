package ui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-clinic/internal/calendar"
	"github.com/tartampluch/go-clinic/internal/config"
	"github.com/tartampluch/go-clinic/internal/engine"
	"github.com/tartampluch/go-clinic/internal/form"
	"github.com/tartampluch/go-clinic/internal/server"
)

// ClinicApp encapsulates the UI state, the settings, and the background services.
type ClinicApp struct {
	App        fyne.App
	Window     fyne.Window
	I18nBundle *i18n.Bundle
	Localizer  *i18n.Localizer
	Ctx        context.Context

	Server    *server.ClinicServer
	Submitter form.Submitter
	Ledger    *engine.Ledger
	Clock     calendar.Clock // Injected clock for testability

	Settings     *config.Settings
	SettingsPath string

	Tray desktop.App
	Menu *fyne.Menu

	TrayStatusItem       *fyne.MenuItem
	TrayOpenItem         *fyne.MenuItem
	TrayAppointmentsItem *fyne.MenuItem
	TraySettingsItem     *fyne.MenuItem

	SupportedLanguages []string

	tabs               *container.AppTabs
	forms              []*FormView
	settingsWindow     fyne.Window
	appointmentsWindow fyne.Window
	appointments       *appointmentsView
}

// NewClinicApp constructs the application and wires dependencies.
func NewClinicApp(a fyne.App, ctx context.Context, srv *server.ClinicServer, submitter form.Submitter, ledger *engine.Ledger, settings *config.Settings) *ClinicApp {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	return &ClinicApp{
		App:                a,
		Ctx:                ctx,
		Server:             srv,
		Submitter:          submitter,
		Ledger:             ledger,
		Clock:              calendar.RealClock{},
		Settings:           settings,
		SupportedLanguages: config.SupportedLanguages,
	}
}

// Run launches the HTTP server, the tray menu and the main window, then
// blocks in the Fyne event loop.
func (app *ClinicApp) Run() {
	app.SetupI18n()

	if app.Server != nil {
		go func() {
			if err := app.Server.Start(app.context()); err != nil {
				slog.Error(config.ErrServerStartup,
					config.LogKeyError, err,
					config.LogKeyComponent, config.CompUI)

				app.App.SendNotification(fyne.NewNotification(
					config.TitleStartupError,
					fmt.Sprintf(config.MsgPortBusy, app.Server.Port)))
			}
		}()
	}

	if desk, ok := app.App.(desktop.App); ok {
		app.Tray = desk
		app.Tray.SetSystemTrayIcon(theme.HomeIcon())
		app.setupTrayMenu()
	} else {
		slog.Warn(config.ErrTrayNotSupported,
			config.LogKeyComponent, config.CompUI)
	}

	app.watchLedger()
	app.BuildMainWindow()
	app.Window.Show()
	app.App.Run()
}

// BuildMainWindow creates the booking desk: one tab per catalog form.
func (app *ClinicApp) BuildMainWindow() fyne.Window {
	w := app.App.NewWindow(app.GetMsg(config.TKeyWinTitle))
	w.Resize(fyne.NewSize(config.MainWindowWidth, config.MainWindowHeight))

	app.forms = app.forms[:0]
	app.tabs = container.NewAppTabs()
	for _, def := range form.Catalog() {
		v := app.NewFormView(def)
		app.forms = append(app.forms, v)
		app.tabs.Append(container.NewTabItem(app.formTitle(def), container.NewVScroll(v.Content())))
	}
	app.tabs.SetTabLocation(container.TabLocationLeading)

	toolbar := widget.NewToolbar(
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.ListIcon(), app.ShowAppointmentsWindow),
		widget.NewToolbarAction(theme.SettingsIcon(), app.ShowSettingsWindow),
	)

	w.SetContent(container.NewBorder(toolbar, nil, nil, nil, app.tabs))
	if app.Tray != nil {
		// Closing hides the desk; the tray keeps the server alive.
		w.SetCloseIntercept(w.Hide)
	}
	app.Window = w
	return w
}

// setupTrayMenu constructs the system tray menu.
func (app *ClinicApp) setupTrayMenu() {
	app.TrayStatusItem = fyne.NewMenuItem(fmt.Sprintf(config.FallbackTrayDefault, 0), nil)
	app.TrayStatusItem.Disabled = true

	app.TrayOpenItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuOpen), func() {
		if app.Window != nil {
			app.Window.Show()
			app.Window.RequestFocus()
		}
	})

	app.TrayAppointmentsItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuAppointments), app.ShowAppointmentsWindow)
	app.TraySettingsItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuSettings), app.ShowSettingsWindow)

	app.Menu = fyne.NewMenu(config.AppName,
		app.TrayStatusItem,
		fyne.NewMenuItemSeparator(),
		app.TrayOpenItem,
		app.TrayAppointmentsItem,
		app.TraySettingsItem,
	)

	if app.Tray != nil {
		app.Tray.SetSystemTrayMenu(app.Menu)
	}
	app.updateTrayStatus(app.appointmentCount())
}

// RefreshLabels re-applies translations after a language change.
func (app *ClinicApp) RefreshLabels() {
	if app.Window != nil {
		app.Window.SetTitle(app.GetMsg(config.TKeyWinTitle))
	}
	if app.tabs != nil {
		for i, item := range app.tabs.Items {
			if i < len(app.forms) {
				item.Text = app.formTitle(app.forms[i].session.Definition())
			}
		}
		app.tabs.Refresh()
	}
	if app.Menu == nil {
		return
	}
	app.TrayOpenItem.Label = app.GetMsg(config.TKeyMenuOpen)
	app.TrayAppointmentsItem.Label = app.GetMsg(config.TKeyMenuAppointments)
	app.TraySettingsItem.Label = app.GetMsg(config.TKeyMenuSettings)
	app.updateTrayStatus(app.appointmentCount())
}

// watchLedger refreshes the tray status and the appointments list whenever
// a booking is recorded. Ledger listeners run on the submitting goroutine.
func (app *ClinicApp) watchLedger() {
	if app.Ledger == nil {
		return
	}
	app.Ledger.Subscribe(func() {
		fyne.Do(app.onLedgerChanged)
	})
}

func (app *ClinicApp) onLedgerChanged() {
	app.updateTrayStatus(app.appointmentCount())
	if app.appointments != nil {
		app.appointments.reload()
	}
}

func (app *ClinicApp) appointmentCount() int {
	if app.Ledger == nil {
		return 0
	}
	return len(app.Ledger.Appointments())
}

// updateTrayStatus shows how many appointments the ledger holds.
func (app *ClinicApp) updateTrayStatus(count int) {
	if app.Menu == nil || app.TrayStatusItem == nil {
		return
	}

	var label string
	if count == 0 {
		label = app.msgOr(config.TKeyTrayStatusZero, fmt.Sprintf(config.FallbackTrayDefault, 0))
	} else if app.Localizer != nil {
		msg, err := app.Localizer.Localize(&i18n.LocalizeConfig{
			MessageID:    config.TKeyTrayStatus,
			TemplateData: map[string]any{"Count": count},
			PluralCount:  count,
		})
		if err == nil {
			label = msg
		}
	}
	if label == "" {
		label = fmt.Sprintf(config.FallbackTrayDefault, count)
	}

	app.TrayStatusItem.Label = label
	app.Menu.Refresh()
}

func (app *ClinicApp) calendarLabels() calendarLabels {
	return calendarLabels{
		Weekdays:   app.weekdayNames(),
		MonthTitle: app.monthTitle,
		Selected:   app.GetMsg(config.TKeyLblSelectedDate),
		NoDate:     app.GetMsg(config.TKeyLblNoDate),
	}
}

func (app *ClinicApp) clock() calendar.Clock {
	if app.Clock == nil {
		return calendar.RealClock{}
	}
	return app.Clock
}

func (app *ClinicApp) context() context.Context {
	if app.Ctx == nil {
		return context.Background()
	}
	return app.Ctx
}

func (app *ClinicApp) submitTimeout() time.Duration {
	if app.Settings == nil {
		return config.DefaultSubmitTimeout
	}
	return app.Settings.SubmitTimeout()
}
