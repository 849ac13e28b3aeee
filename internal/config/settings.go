package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the user-editable configuration persisted as YAML.
// The submission token is not part of it: it lives in the OS keyring.
type Settings struct {
	Language   string `yaml:"language"`
	ServerPort string `yaml:"server_port"`

	// SubmitURL is the base URL of the clinic backend. When empty, submissions
	// are answered by the built-in simulation.
	SubmitURL            string `yaml:"submit_url"`
	SubmitTimeoutSeconds int    `yaml:"submit_timeout_seconds"`

	// FailureRate overrides the per-form simulated failure rate when set.
	FailureRate *float64 `yaml:"failure_rate,omitempty"`

	AppointmentMinutes int `yaml:"appointment_minutes"`
}

// DefaultSettings returns the settings written on first run.
func DefaultSettings() *Settings {
	return &Settings{
		Language:             DefaultLanguage,
		ServerPort:           DefaultPort,
		SubmitTimeoutSeconds: int(DefaultSubmitTimeout / time.Second),
		AppointmentMinutes:   DefaultAppointmentMinutes,
	}
}

// SubmitTimeout returns the submission timeout as a duration.
func (s *Settings) SubmitTimeout() time.Duration {
	return time.Duration(s.SubmitTimeoutSeconds) * time.Second
}

// AppointmentDuration returns the length of a booked slot in the published feed.
func (s *Settings) AppointmentDuration() time.Duration {
	return time.Duration(s.AppointmentMinutes) * time.Minute
}

// Normalize replaces missing or out-of-range values with defaults.
func (s *Settings) Normalize() {
	if !slices.Contains(SupportedLanguages, s.Language) {
		s.Language = DefaultLanguage
	}
	if p, err := strconv.Atoi(s.ServerPort); err != nil || p < MinPort || p > MaxPort {
		s.ServerPort = DefaultPort
	}
	if s.SubmitTimeoutSeconds <= 0 {
		s.SubmitTimeoutSeconds = int(DefaultSubmitTimeout / time.Second)
	}
	if s.AppointmentMinutes <= 0 {
		s.AppointmentMinutes = DefaultAppointmentMinutes
	}
	if s.FailureRate != nil {
		r := min(max(*s.FailureRate, 0), 1)
		s.FailureRate = &r
	}
}

// DefaultSettingsPath returns <user config dir>/<AppID>/settings.yaml.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrConfigDir, err)
	}
	return filepath.Join(dir, AppID, SettingsFileName), nil
}

// LoadSettings reads the YAML file at path. A missing file is created with
// defaults so the user has something to edit.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		return nil, errors.New(ErrSettingsPath)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s := DefaultSettings()
		if err := SaveSettings(path, s); err != nil {
			return nil, err
		}
		slog.Info(MsgSettingsCreated, LogKeyComponent, CompConfig, LogKeyPath, path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrSettingsRead, err)
	}

	s := DefaultSettings()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrSettingsParse, err)
	}
	s.Normalize()

	slog.Debug(MsgSettingsLoaded, LogKeyComponent, CompConfig, LogKeyPath, path)
	return s, nil
}

// SaveSettings writes s atomically (temp file + rename) with owner-only permissions.
func SaveSettings(path string, s *Settings) error {
	if path == "" {
		return errors.New(ErrSettingsPath)
	}
	if s == nil {
		return errors.New(ErrSettingsNil)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPermUserRWX); err != nil {
		return fmt.Errorf("%s: %w", ErrCreateDir, err)
	}

	tmp, err := os.CreateTemp(dir, SettingsTempGlob)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := tmp.Chmod(FilePermUserRW); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}

	slog.Debug(MsgSettingsSaved, LogKeyComponent, CompConfig, LogKeyPath, path)
	return nil
}
