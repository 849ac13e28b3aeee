package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-clinic/internal/config"
)

// settingsWidgets holds references to UI elements to simplify data retrieval during save.
type settingsWidgets struct {
	langSelect   *widget.Select
	entryPort    *FilteredEntry
	urlEntry     *widget.Entry
	tokenEntry   *widget.Entry
	entryTimeout *FilteredEntry

	// token as loaded from the keyring, to skip needless writes.
	initialToken string
}

// ShowSettingsWindow displays the configuration dialog.
func (app *ClinicApp) ShowSettingsWindow() {
	if app.settingsWindow != nil {
		slog.Debug(config.MsgSettingsFocus, config.LogKeyComponent, config.CompUISet)
		app.settingsWindow.RequestFocus()
		return
	}

	slog.Info(config.MsgSettingsOpen, config.LogKeyComponent, config.CompUISet)
	w := app.App.NewWindow(app.GetMsg(config.TKeyWinSettings))
	app.settingsWindow = w

	sw := app.newSettingsWidgets()

	// --- General Section (Language & Port) ---
	itemLang := widget.NewFormItem(app.GetMsg(config.TKeyLblLanguage), sw.langSelect)
	itemLang.HintText = app.GetMsg(config.TKeyHelpLanguage)

	itemPort := widget.NewFormItem(app.GetMsg(config.TKeyLblPort), sw.entryPort)
	itemPort.HintText = app.GetMsg(config.TKeyHelpPort)

	generalCard := widget.NewCard(app.GetMsg(config.TKeyLblGeneral), "", widget.NewForm(itemLang, itemPort))

	// --- Submission Section (Endpoint, Token, Timeout) ---
	itemURL := widget.NewFormItem(app.GetMsg(config.TKeyLblSubmitURL), sw.urlEntry)
	itemURL.HintText = app.GetMsg(config.TKeyHelpSubmitURL)

	itemToken := widget.NewFormItem(app.GetMsg(config.TKeyLblToken), sw.tokenEntry)

	widTimeout := container.NewBorder(nil, nil, nil, widget.NewLabel(app.GetMsg(config.TKeyLblSeconds)), sw.entryTimeout)
	itemTimeout := widget.NewFormItem(app.GetMsg(config.TKeyLblTimeout), widTimeout)

	submitCard := widget.NewCard(app.GetMsg(config.TKeyLblSubmission), "", widget.NewForm(itemURL, itemToken, itemTimeout))

	// --- Actions ---
	saveAction := func() {
		if err := sw.validate(); err != nil {
			dialog.ShowError(err, w)
			return
		}
		app.saveSettings(sw, w)
	}

	btnSave := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSave), theme.DocumentSaveIcon(), saveAction)
	btnSave.Importance = widget.HighImportance
	btnCancel := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnCancel), theme.CancelIcon(), func() { w.Close() })

	footerLabel := widget.NewLabel(fmt.Sprintf(app.GetMsg(config.TKeyLblFooter), config.Version))
	footerLabel.Alignment = fyne.TextAlignCenter
	footerLabel.TextStyle = fyne.TextStyle{Italic: true}

	content := container.NewPadded(container.NewVBox(
		generalCard,
		submitCard,
		container.NewGridWithColumns(config.LayoutColumnsDouble, btnCancel, btnSave),
		footerLabel,
	))

	w.SetContent(content)
	w.Resize(fyne.NewSize(config.SettingsWindowWidth, content.MinSize().Height))
	w.SetFixedSize(true)
	w.SetOnClosed(func() { app.settingsWindow = nil })
	w.Show()
}

// newSettingsWidgets creates the inputs pre-filled from the current settings
// and the keyring.
func (app *ClinicApp) newSettingsWidgets() *settingsWidgets {
	s := app.Settings
	sw := &settingsWidgets{}

	sw.langSelect = widget.NewSelect(app.SupportedLanguages, nil)
	sw.langSelect.SetSelected(s.Language)

	// Port: numerical only, with a strict 1-65535 range.
	sw.entryPort = NewNumericalEntry()
	sw.entryPort.SetText(s.ServerPort)
	sw.entryPort.Validator = func(v string) error {
		if v == "" {
			return errors.New(app.GetMsg(config.TKeyErrPortReq))
		}
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New(app.GetMsg(config.TKeyErrPortNum))
		}
		if port < config.MinPort || port > config.MaxPort {
			return errors.New(app.GetMsg(config.TKeyErrPortRange))
		}
		return nil
	}

	sw.urlEntry = widget.NewEntry()
	sw.urlEntry.SetText(s.SubmitURL)
	sw.urlEntry.PlaceHolder = config.PlaceholderURL

	sw.tokenEntry = widget.NewPasswordEntry()
	if token, err := config.SubmitToken(); err == nil {
		sw.initialToken = token
		sw.tokenEntry.SetText(token)
	} else {
		slog.Warn(config.ErrKeyring, config.LogKeyError, err, config.LogKeyComponent, config.CompUISet)
	}

	sw.entryTimeout = NewNumericalEntry()
	sw.entryTimeout.SetText(strconv.Itoa(s.SubmitTimeoutSeconds))
	sw.entryTimeout.Validator = func(v string) error {
		if n, err := strconv.Atoi(v); err != nil || n <= 0 {
			return errors.New(app.GetMsg(config.TKeyErrTimeoutNum))
		}
		return nil
	}

	return sw
}

// validate runs the blocking validators. Other fields fall back to defaults.
func (sw *settingsWidgets) validate() error {
	if err := sw.entryPort.Validate(); err != nil {
		return err
	}
	return sw.entryTimeout.Validate()
}

// collect maps the widgets onto a copy of base. Values the window does not
// edit (failure rate, slot length) are carried over.
func (sw *settingsWidgets) collect(base *config.Settings) *config.Settings {
	s := *base
	if sw.langSelect.Selected != "" {
		s.Language = sw.langSelect.Selected
	}
	s.ServerPort = sw.entryPort.Text
	s.SubmitURL = strings.TrimSpace(sw.urlEntry.Text)
	if n, err := strconv.Atoi(sw.entryTimeout.Text); err == nil {
		s.SubmitTimeoutSeconds = n
	}
	s.Normalize()
	return &s
}

// needsRestart reports whether a change only takes effect after a restart:
// the listening port and the submission collaborator are wired at startup.
func needsRestart(old, updated *config.Settings, tokenChanged bool) bool {
	return tokenChanged ||
		old.ServerPort != updated.ServerPort ||
		old.SubmitURL != updated.SubmitURL ||
		old.SubmitTimeoutSeconds != updated.SubmitTimeoutSeconds
}

// saveSettings persists the settings file and the keyring token, then
// applies what can change live (the language).
func (app *ClinicApp) saveSettings(sw *settingsWidgets, w fyne.Window) {
	slog.Info(config.MsgSettingsApply, config.LogKeyComponent, config.CompUISet)

	updated := sw.collect(app.Settings)
	if app.SettingsPath != "" {
		if err := config.SaveSettings(app.SettingsPath, updated); err != nil {
			slog.Error(config.ErrSettingsWrite, config.LogKeyError, err, config.LogKeyComponent, config.CompUISet)
			dialog.ShowError(err, w)
			return
		}
	}

	token := strings.TrimSpace(sw.tokenEntry.Text)
	tokenChanged := token != sw.initialToken
	if tokenChanged {
		if err := config.SetSubmitToken(token); err != nil {
			slog.Error(config.ErrKeyring, config.LogKeyError, err, config.LogKeyComponent, config.CompUISet)
		}
	}

	restart := needsRestart(app.Settings, updated, tokenChanged)
	app.Settings = updated
	app.UpdateLocalizer()
	app.RefreshLabels()

	if restart && app.Window != nil {
		dialog.ShowInformation(config.AppName, app.GetMsg(config.TKeyLblRestart), app.Window)
	}
	w.Close()
}
