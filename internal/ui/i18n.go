package ui

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-clinic/internal/calendar"
	"github.com/tartampluch/go-clinic/internal/config"
	"github.com/tartampluch/go-clinic/internal/form"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// SetupI18n initializes the translation bundle and detects available languages.
func (app *ClinicApp) SetupI18n() {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		return
	}

	var detectedLangs []string

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		detectedLangs = append(detectedLangs, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
			config.LogKeyFile, name,
		)
	}

	app.SupportedLanguages = detectedLangs
	app.I18nBundle = bundle
	app.UpdateLocalizer()
}

// UpdateLocalizer refreshes the translator from the language in the settings.
func (app *ClinicApp) UpdateLocalizer() {
	lang := config.DefaultLanguage
	if app.Settings != nil && app.Settings.Language != "" {
		lang = app.Settings.Language
	}
	app.Localizer = i18n.NewLocalizer(app.I18nBundle, lang)
}

// GetMsg is a helper to translate a key safely. Missing keys come back as is.
func (app *ClinicApp) GetMsg(key string) string {
	if app.Localizer == nil {
		return key
	}
	msg, err := app.Localizer.Localize(&i18n.LocalizeConfig{MessageID: key})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return key
	}
	return msg
}

// msgOr translates key, falling back to def when the key has no translation.
func (app *ClinicApp) msgOr(key, def string) string {
	if msg := app.GetMsg(key); msg != key {
		return msg
	}
	return def
}

// formTitle returns the localized title of a form, or its built-in title.
func (app *ClinicApp) formTitle(def form.Definition) string {
	return app.msgOr(config.TKeyFormTitlePrefix+def.ID, def.Title)
}

const defaultWeekdays = "Sun Mon Tue Wed Thu Fri Sat"

// weekdayNames returns the seven short weekday headers, Sunday first.
func (app *ClinicApp) weekdayNames() []string {
	names := strings.Fields(app.msgOr(config.TKeyWeekdayShort, defaultWeekdays))
	if len(names) != 7 {
		return strings.Fields(defaultWeekdays)
	}
	return names
}

const defaultMonths = "January February March April May June July August September October November December"

// monthTitle returns the localized "Month Year" header of a calendar page.
func (app *ClinicApp) monthTitle(ym calendar.YearMonth) string {
	names := strings.Fields(app.msgOr(config.TKeyMonthNames, defaultMonths))
	if len(names) != 12 || !ym.Valid() {
		return ym.String()
	}
	return fmt.Sprintf("%s %d", names[ym.Month-1], ym.Year)
}
