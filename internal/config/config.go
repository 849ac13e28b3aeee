package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-Clinic/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Clinic"
	AppID             = "com.github.tartampluch.go-clinic"
	KeyringService    = "com.github.tartampluch.go-clinic"
	KeyringTokenUser  = "submit-api-token"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	SettingsFileName  = "settings.yaml"
	SettingsTempGlob  = ".go-clinic-settings-*.tmp"

	// PrefLastRun stores the version of the last launch in Fyne preferences.
	PrefLastRun = "last_run_version"

	SubmitterModeHTTP      = "http"
	SubmitterModeSimulated = "simulated"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for sensitive files like logs and settings.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion      = "version"
	FlagDebug        = "debug"
	FlagHeadless     = "headless"
	FlagConfig       = "config"
	FlagDescVersion  = "Show application version and exit"
	FlagDescDebug    = "Enable debug logging to stdout"
	FlagDescHeadless = "Serve the HTTP API only, without opening a window"
	FlagDescConfig   = "Path to the settings file (defaults to the user config dir)"
	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Form Identifiers & Field Names
// -----------------------------------------------------------------------------

const (
	FormAppointment        = "appointment"
	FormQuickBooking       = "quick-booking"
	FormHomeAppointment    = "home-appointment"
	FormContact            = "contact"
	FormEmergency          = "emergency"
	FormPersonalDetails    = "personal-details"
	FormContactPreferences = "contact-preferences"
	FormMedicalHistory     = "medical-history"
	FormAllergy            = "allergy"
	FormMedication         = "medication"
	FormFollowUp           = "follow-up"
	FormDoctorBooking      = "doctor-booking"
)

// Field names shared by several forms. The engine relies on them to turn a
// submission into an appointment or a patient card.
const (
	FieldName       = "name"
	FieldFullName   = "fullName"
	FieldEmail      = "email"
	FieldPhone      = "phone"
	FieldDate       = "date"
	FieldTime       = "time"
	FieldReason     = "reason"
	FieldMessage    = "message"
	FieldNotes      = "notes"
	FieldDoctor     = "doctor"
	FieldDepartment = "department"
	FieldDOB        = "dob"
	FieldGender     = "gender"
	FieldAddress    = "address"
)

// -----------------------------------------------------------------------------
// UI Constants
// -----------------------------------------------------------------------------

const (
	MainWindowWidth         = 720
	MainWindowHeight        = 640
	SettingsWindowWidth     = 600
	AppointmentsWinWidth    = 640
	AppointmentsWinHeight   = 400
	TimeRangeHintFormat     = "%s – %s"
	DateFormatDisplay       = "2006-01-02"
	TablePlaceholder        = "Cell Content"
	PlaceholderURL          = "https://clinic.example.com/api"
	LogMsgOpenWin           = "Opening appointments window"
	LogMsgSorted            = "Appointments sorted"
	SortIconAsc             = " ▲"
	SortIconDesc            = " ▼"
	FilterAllForms          = "*"
	AppointmentsColDate     = 0
	AppointmentsColTime     = 1
	AppointmentsColPatient  = 2
	AppointmentsColForm     = 3
	AppointmentsColumnCount = 4
	ColWidthDate            = 120
	ColWidthTime            = 80
	ColWidthPatient         = 220
	ColWidthForm            = 180
	LayoutColumnsDouble     = 2
	FallbackTrayDefault     = "Appointments: %d"
)

// SupportedLanguages defines the list of available UI languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyWinTitle         = "win_title"
	TKeyWinSettings      = "win_settings_title"
	TKeyWinAppointments  = "win_appointments_title"
	TKeyMenuAppointments = "menu_appointments"
	TKeyMenuSettings     = "menu_settings"
	TKeyBtnSubmit        = "btn_submit"
	TKeyBtnSubmitting    = "btn_submitting"
	TKeyBtnNewRequest    = "btn_new_request"
	TKeyBtnSave          = "btn_save"
	TKeyBtnCancel        = "btn_cancel"
	TKeyLblSelectedDate  = "lbl_selected_date"
	TKeyLblNoDate        = "lbl_no_date"
	TKeyLblConfirmation  = "lbl_confirmation"
	TKeyLblLanguage      = "lbl_language"
	TKeyHelpLanguage     = "help_language"
	TKeyLblPort          = "lbl_server_port"
	TKeyHelpPort         = "help_port"
	TKeyLblSubmitURL     = "lbl_submit_url"
	TKeyHelpSubmitURL    = "help_submit_url"
	TKeyLblToken         = "lbl_token"
	TKeyLblTimeout       = "lbl_timeout"
	TKeyLblSeconds       = "lbl_seconds_suffix"
	TKeyLblGeneral       = "lbl_general"
	TKeyLblSubmission    = "lbl_submission"
	TKeyLblFilter        = "lbl_filter"
	TKeyLblAllForms      = "lbl_all_forms"
	TKeyLblRestart       = "lbl_restart_required"
	TKeyColDate          = "col_date"
	TKeyColTime          = "col_time"
	TKeyColPatient       = "col_patient"
	TKeyColForm          = "col_form"
	TKeyMenuOpen         = "menu_open"
	TKeyLblFooter        = "lbl_footer"
	TKeyFormTitlePrefix  = "form_title_"      // Suffixed by the form ID
	TKeyWeekdayShort     = "weekday_short"    // Space separated, Sunday first
	TKeyMonthNames       = "month_names"      // Space separated, January first
	TKeyTrayStatus       = "tray_status"      // Requires PluralCount
	TKeyTrayStatusZero   = "tray_status_zero" // Explicit zero case

	// Validation Errors (Settings UI)
	TKeyErrPortReq    = "err_port_required"
	TKeyErrPortNum    = "err_port_number"
	TKeyErrPortRange  = "err_port_range"
	TKeyErrTimeoutNum = "err_timeout_number"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultPort               = "18080"
	DefaultLanguage           = "en"
	DefaultSubmitTimeout      = 30 * time.Second
	DefaultAppointmentMinutes = 30
	DefaultFailureMessage     = "Something went wrong. Please try again later."
	DefaultSuccessMessage     = "Thank you! Your request has been submitted."
	FallbackPatientName       = "Guest"
	TimeLayout                = "15:04"
	ClinicOpens               = "08:00"
	ClinicCloses              = "18:00"
	MinPort                   = 1
	MaxPort                   = 65535
)

// Shared validation messages (kept verbatim across every form).
const (
	MsgFullNameRequired = "Full name is required"
	MsgNameRequired     = "Name is required"
	MsgEmailRequired    = "Email is required"
	MsgEmailInvalid     = "Invalid email address"
	MsgPhoneRequired    = "Phone number is required"
	MsgPhoneInvalid     = "Invalid phone number"
	MsgPhoneInvalidAlt  = "Enter a valid phone number"
	MsgDateRequired     = "Date is required"
	MsgDatePast         = "Date cannot be in the past"
	MsgDateFuture       = "Date cannot be in the future"
	MsgDateMalformed    = "Invalid date"
	MsgTimeRequired     = "Time is required"
	MsgTimeMalformed    = "Invalid time"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	ICalVersion = "2.0"
	ICalProdid  = "-//Go Clinic//Bookings//EN"
	ICalCalName = "Appointments"
	ICalMethod  = "PUBLISH"
	ICalScale   = "GREGORIAN"
	ICalDomain  = "goclinic"
	ICalStatus  = "CONFIRMED"

	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDescription = "DESCRIPTION"
	PropDTStart     = "DTSTART"
	PropDTEnd       = "DTEND"
	PropDTStamp     = "DTSTAMP"
	PropStatus      = "STATUS"
	PropRefresh     = "REFRESH-INTERVAL"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	DefaultICalRefresh = 15 * time.Minute

	FormatUID         = "%s@%s"
	FormatSummary     = "Appointment: %s"
	FormatSummaryWith = "Appointment: %s with %s"

	// StubVCalendar is the minimal valid iCalendar object published before any booking exists.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 1 * 1024 * 1024 // 1MB
	MaxRequestBodySize  = 64 * 1024       // 64KB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	AddrSeparator       = ":"
	SubmitPathFormat    = "%s/forms/%s"

	RouteHealth          = "GET /health"
	RouteCalendar        = "GET /api/calendar"
	RouteForms           = "GET /api/forms"
	RouteForm            = "GET /api/forms/{id}"
	RouteSubmit          = "POST /api/forms/{id}"
	RouteAppointmentsICS = "/appointments.ics"
	RoutePatientsVCF     = "/patients.vcf"
	PathValueID          = "id"
	QueryYear            = "year"
	QueryMonth           = "month"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAuthorization   = "Authorization"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	BearerPrefix        = "Bearer "
	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeVCard           = "text/vcard; charset=utf-8"
	MimeJSON            = "application/json; charset=utf-8"
	MimeTextPlain       = "text/plain; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrServerStartup     = "server startup failed"
	ErrServerShutdown    = "server shutdown failed"
	ErrPortRequired      = "server port is required"
	ErrInvalidURL        = "invalid URL structure"
	ErrProtocol          = "unsupported protocol scheme (http/https only)"
	ErrSubmitterMissing  = "internal error: submitter is not initialized"
	ErrSubmitStatus      = "submission endpoint returned unexpected status"
	ErrSubmitEncode      = "failed to encode submission"
	ErrSubmitDecode      = "failed to decode submission response"
	ErrSimulatedFailure  = "simulated server failure"
	ErrICalEncode        = "failed to encode iCalendar data"
	ErrVCardEncode       = "failed to encode vCard data"
	ErrAppointmentFields = "submission is missing appointment date or time"
	ErrUnknownForm       = "unknown form"
	ErrLogFile           = "failed to open log file"
	ErrCacheDir          = "could not determine user cache dir"
	ErrConfigDir         = "could not determine user config dir"
	ErrCreateDir         = "could not create app directory"
	ErrSettingsPath      = "settings path is empty"
	ErrSettingsNil       = "settings are nil"
	ErrSettingsRead      = "failed to read settings"
	ErrSettingsParse     = "failed to parse settings"
	ErrSettingsWrite     = "failed to write settings"
	ErrKeyring           = "keyring access failed"
	ErrAppFailed         = "application failed unexpectedly"
	ErrWriteResp         = "failed to write response body"
	ErrLocalesAccess     = "failed to access embedded locales"
	ErrLocaleLoad        = "failed to load locale file"
	ErrTrayNotSupported  = "system tray not supported on this platform"
	ErrExportRender      = "failed to render export feed"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Feed initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgBadRequest   = "Malformed request body"
	HTTPMsgBadMonth     = "year and month must be integers, month between 1 and 12"
	HTTPMsgNotFound     = "Form not found"
	HTTPMsgHealthy      = "OK"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting      = "Starting application"
	MsgAppStop          = "Application stopped gracefully"
	MsgCtxCancel        = "Context cancelled, shutting down UI"
	MsgServerListen     = "HTTP server listening"
	MsgServerStop       = "Shutting down HTTP server..."
	MsgFeedUpdated      = "Feed cache updated"
	MsgCellRejected     = "Calendar cell is disabled, selection ignored"
	MsgMoveRejected     = "Keyboard move leaves the displayed month, ignored"
	MsgSubmitIgnored    = "Submission already in flight, ignored"
	MsgValidationFailed = "Form validation failed"
	MsgSubmitStarted    = "Submission started"
	MsgSubmitSucceeded  = "Submission succeeded"
	MsgSubmitFailed     = "Submission failed"
	MsgSimulatedDelay   = "Simulating submission delay"
	MsgRecorded         = "Submission recorded in ledger"
	MsgRecordSkipped    = "Submission not recorded in ledger"
	MsgSettingsCreated  = "Settings file created with defaults"
	MsgSettingsLoaded   = "Settings loaded"
	MsgSettingsSaved    = "Settings saved"
	MsgTokenMissing     = "Submission token not found in keyring"
	MsgSubmitterMode    = "Submission collaborator selected"
	MsgLocaleSkip       = "Skipping non-locale file"
	MsgLocaleBadName    = "Skipping malformed locale filename"
	MsgLocaleLoaded     = "Locale loaded successfully"
	MsgTransMissing     = "Missing translation key"
	MsgLogWarning       = "Warning: %s at %s: %v\n"
	MsgPortBusy         = "Port %s is busy or unavailable."
	MsgSettingsOpen     = "Opening settings window"
	MsgSettingsFocus    = "Settings window already open, requesting focus"
	MsgSettingsApply    = "Saving settings"
	MsgFormTab          = "Form tab built"
	MsgHeadless         = "Running headless, UI disabled"
	TitleStartupError   = "Startup Error"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyMode      = "mode"
	LogKeyForm      = "form"
	LogKeyFields    = "fields"
	LogKeyErrors    = "errors"
	LogKeyDate      = "date"
	LogKeyDirection = "direction"
	LogKeyDelay     = "delay_ms"
	LogKeyRate      = "failure_rate"
	LogKeyReceipt   = "confirmation_id"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyCount     = "count"
	LogKeyPath      = "path"
	LogKeySortCol   = "sort_column"
	LogKeySortAsc   = "sort_asc"
	LogKeyDuration  = "duration_ms"
	LogKeyFeed      = "feed"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyCommit  = "commit"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompUI       = "ui"
	CompUISet    = "ui_settings"
	CompCalendar = "calendar"
	CompForm     = "form"
	CompEngine   = "engine"
	CompSubmit   = "submitter"
	CompServer   = "server"
	CompMain     = "main"
	CompConfig   = "config"
	CompI18n     = "i18n"
)
