package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"fyne.io/fyne/v2/app"
	"github.com/tartampluch/go-clinic/internal/config"
	"github.com/tartampluch/go-clinic/internal/engine"
	"github.com/tartampluch/go-clinic/internal/form"
	"github.com/tartampluch/go-clinic/internal/server"
	"github.com/tartampluch/go-clinic/internal/ui"
)

// main is the application entry point.
// It delegates execution to runMain to ensure that deferred function calls
// (like closing log files) are executed before the process terminates.
func main() {
	os.Exit(runMain())
}

// options holds the parsed command line.
type options struct {
	headless     bool
	settingsPath string
}

// runMain manages the application lifecycle, argument parsing, and exit codes.
func runMain() int {
	// -------------------------------------------------------------------------
	// 1. CLI Argument Parsing
	// -------------------------------------------------------------------------
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	debugMode := flag.Bool(config.FlagDebug, false, config.FlagDescDebug)
	headless := flag.Bool(config.FlagHeadless, false, config.FlagDescHeadless)
	settingsPath := flag.String(config.FlagConfig, "", config.FlagDescConfig)
	flag.Parse()

	if *showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	// -------------------------------------------------------------------------
	// 2. Logging Initialization
	// -------------------------------------------------------------------------
	logCloser := setupLogging(*debugMode)
	if logCloser != nil {
		defer func() {
			_ = logCloser.Close()
		}()
	}

	// -------------------------------------------------------------------------
	// 3. Context & Signal Handling
	// -------------------------------------------------------------------------
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	// -------------------------------------------------------------------------
	// 4. Application Logic
	// -------------------------------------------------------------------------
	opts := options{headless: *headless, settingsPath: *settingsPath}
	if err := run(ctx, opts); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// run loads the settings, wires the submission pipeline and the ledger, then
// starts either the desktop UI or the bare HTTP server.
func run(ctx context.Context, opts options) error {
	settings, path := loadSettings(opts.settingsPath)

	ledger := engine.NewLedger(nil, settings.AppointmentDuration())
	submitter := &engine.Recorder{Next: newSubmitter(settings), Ledger: ledger}

	srv := server.NewClinicServer(settings.ServerPort, submitter)
	srv.Timeout = settings.SubmitTimeout()

	// Keep the export feeds in step with the ledger.
	publishFeeds(srv, ledger)
	ledger.Subscribe(func() { publishFeeds(srv, ledger) })

	if opts.headless {
		slog.Info(config.MsgHeadless, config.LogKeyComponent, config.CompMain)
		return srv.Start(ctx)
	}

	a := app.NewWithID(config.AppID)
	a.Preferences().SetString(config.PrefLastRun, config.Version)

	gui := ui.NewClinicApp(a, ctx, srv, submitter, ledger, settings)
	gui.SettingsPath = path

	// Lifecycle Bridge:
	// Watch for context cancellation to quit the UI gracefully.
	go func() {
		<-ctx.Done()
		slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
		a.Quit()
	}()

	// Blocks until the application quits.
	gui.Run()

	return nil
}

// loadSettings reads the settings file, falling back to defaults when it
// cannot be located or parsed. The returned path is empty in the first case.
func loadSettings(path string) (*config.Settings, string) {
	if path == "" {
		p, err := config.DefaultSettingsPath()
		if err != nil {
			slog.Warn(config.ErrConfigDir, config.LogKeyComponent, config.CompMain, config.LogKeyError, err)
			return config.DefaultSettings(), ""
		}
		path = p
	}

	s, err := config.LoadSettings(path)
	if err != nil {
		slog.Warn(config.ErrSettingsRead,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyPath, path,
			config.LogKeyError, err,
		)
		return config.DefaultSettings(), path
	}
	return s, path
}

// newSubmitter picks the submission collaborator: the remote backend when a
// URL is configured, the local simulation otherwise.
func newSubmitter(s *config.Settings) form.Submitter {
	if s.SubmitURL != "" {
		token, err := config.SubmitToken()
		if err != nil {
			slog.Warn(config.ErrKeyring, config.LogKeyComponent, config.CompMain, config.LogKeyError, err)
		}
		slog.Info(config.MsgSubmitterMode,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyMode, config.SubmitterModeHTTP,
			config.LogKeyURL, s.SubmitURL,
		)
		return engine.NewHTTPSubmitter(s.SubmitURL, token)
	}

	slog.Info(config.MsgSubmitterMode,
		config.LogKeyComponent, config.CompMain,
		config.LogKeyMode, config.SubmitterModeSimulated,
	)
	return &engine.SimulatedSubmitter{FailureRate: s.FailureRate}
}

// publishFeeds renders the ledger and hands the exports to the server cache.
func publishFeeds(srv *server.ClinicServer, ledger *engine.Ledger) {
	if data, err := ledger.ICS(); err == nil {
		srv.UpdateAppointments(data)
	} else {
		slog.Error(config.ErrExportRender, config.LogKeyComponent, config.CompMain, config.LogKeyError, err)
	}

	if data, err := ledger.VCards(); err == nil {
		srv.UpdatePatients(data)
	} else {
		slog.Error(config.ErrExportRender, config.LogKeyComponent, config.CompMain, config.LogKeyError, err)
	}
}

// printVersion outputs the build information to stdout.
func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyCommit, config.Commit),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger: JSON to stdout and to a
// log file in the user cache directory, truncated on each start.
func setupLogging(debugMode bool) io.Closer {
	writers := []io.Writer{os.Stdout}
	var logFile *os.File

	if logPath, err := getLogFilePath(); err == nil {
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}))
	slog.SetDefault(logger)

	if logFile == nil {
		return nil
	}
	return logFile
}

// getLogFilePath determines the platform-specific cache directory for logs.
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(appDir, config.LogFileName), nil
}
