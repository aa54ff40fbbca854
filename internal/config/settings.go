package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfiguration marks user input or settings values that cannot be
// turned into engine parameters.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// InputErrorMessage is shown to the user when the config form cannot be parsed.
const InputErrorMessage = "Please correctly and completely fill out the config window."

const (
	BackendAuto    = "auto"
	BackendWayland = "wayland"
	BackendX11     = "x11"
	BackendWindows = "windows"
)

type Settings struct {
	// Clicks is the number of cycles to run; 0 means run until stopped.
	Clicks        int     `yaml:"clicks"`
	WaitSeconds   float64 `yaml:"wait_seconds"`
	JitterSeconds float64 `yaml:"jitter_seconds"`
	DoubleClick   bool    `yaml:"double_click"`
	PauseKey      string  `yaml:"pause_key"`
	StopKey       string  `yaml:"stop_key"`
	Backend       string  `yaml:"backend"`
	LogLevel      string  `yaml:"log_level"`
	LogFormat     string  `yaml:"log_format"`
}

func Default() Settings {
	return Settings{
		Clicks:        0,
		WaitSeconds:   2.75,
		JitterSeconds: 0.2,
		DoubleClick:   true,
		PauseKey:      "KEY_HOME",
		StopKey:       "KEY_END",
		Backend:       BackendAuto,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// DefaultPath returns the settings file location under the user config dir,
// falling back to the working directory.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil || configDir == "" {
		return filepath.Join(".", ".autojoggie.yaml")
	}
	return filepath.Join(configDir, "autojoggie", "settings.yaml")
}

// Load reads settings from path. A missing file yields the defaults, and
// fields absent from the file keep their default values.
func Load(path string) (Settings, error) {
	settings := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return Settings{}, fmt.Errorf("failed to read settings file '%s': %w", path, err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings file '%s': %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("settings file '%s': %w", path, err)
	}
	return settings, nil
}

// Save writes settings to path through a temporary file and a rename.
func Save(path string, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}

func (s Settings) Validate() error {
	if !validSeconds(s.WaitSeconds) {
		return fmt.Errorf("%w: wait_seconds must be a non-negative number, got %v", ErrInvalidConfiguration, s.WaitSeconds)
	}
	if !validSeconds(s.JitterSeconds) {
		return fmt.Errorf("%w: jitter_seconds must be a non-negative number, got %v", ErrInvalidConfiguration, s.JitterSeconds)
	}

	switch strings.ToLower(s.Backend) {
	case BackendAuto, BackendWayland, BackendX11, BackendWindows:
	default:
		return fmt.Errorf("%w: unknown backend %q (use auto|wayland|x11|windows)", ErrInvalidConfiguration, s.Backend)
	}

	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfiguration, s.LogLevel)
	}
	switch strings.ToLower(s.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfiguration, s.LogFormat)
	}

	if s.PauseKey != "" && strings.EqualFold(s.PauseKey, s.StopKey) {
		return fmt.Errorf("%w: pause_key and stop_key are both %s", ErrInvalidConfiguration, s.PauseKey)
	}
	return nil
}

func validSeconds(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
