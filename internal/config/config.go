package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	StateDir  string `toml:"state_dir"`
}

// Capture contains acquisition defaults and timing.
type Capture struct {
	PixelFormat          string  `toml:"pixel_format"`
	Naming               string  `toml:"naming"`
	PullTimeoutSeconds   float64 `toml:"pull_timeout_seconds"`
	CountdownSeconds     float64 `toml:"countdown_seconds"`
	SleepAfterFinalRound bool    `toml:"sleep_after_final_round"`
	MinFreeMiB           int     `toml:"min_free_mib"`
}

// SimDriver configures the simulated camera driver.
type SimDriver struct {
	Devices     []string `toml:"devices"`
	Width       int      `toml:"width"`
	Height      int      `toml:"height"`
	PullDelayMS int      `toml:"pull_delay_ms"`
}

// GStreamerDriver configures the GStreamer-backed camera driver.
type GStreamerDriver struct {
	// SourceElement is the GStreamer source factory, "aravissrc" for GenICam cameras.
	SourceElement string `toml:"source_element"`
}

// Driver selects and configures the camera driver adapter.
type Driver struct {
	Kind      string          `toml:"kind"`
	Sim       SimDriver       `toml:"sim"`
	GStreamer GStreamerDriver `toml:"gstreamer"`
}

// Camera maps a device serial number to its ordinal nickname.
type Camera struct {
	Serial string `toml:"serial"`
	Label  int    `toml:"label"`
	// Device is the driver-specific device id (aravis camera name); defaults to Serial.
	Device string `toml:"device"`
}

// Hotplug contains configuration for the udev camera watcher.
type Hotplug struct {
	VendorIDs []string `toml:"vendor_ids"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for multicam.
//
// Configuration sections by subsystem:
//   - Paths: run output, logs, and state (catalog, device locks)
//   - Capture: pixel format, naming policy, pull timeout, pacing
//   - Driver: driver adapter selection and per-driver settings
//   - Cameras: serial to nickname registry
//   - Hotplug: udev vendor filter for the device watcher
//   - Logging: log format and level
type Config struct {
	Paths   Paths    `toml:"paths"`
	Capture Capture  `toml:"capture"`
	Driver  Driver   `toml:"driver"`
	Cameras []Camera `toml:"cameras"`
	Hotplug Hotplug  `toml:"hotplug"`
	Logging Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/multicam/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// resolveConfigPath honours an explicit path even when the file is absent, so
// `config init` can target it. Without one, the user config wins over a
// multicam.toml in the working directory.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("multicam.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

// EnsureDirectories creates the log and state directories. The output
// directory is not created: a missing output directory is an operator error
// reported by preflight.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir, c.LockDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PullTimeout is the bound on a single frame pull.
func (c *Config) PullTimeout() time.Duration {
	return secondsToDuration(c.Capture.PullTimeoutSeconds)
}

// Countdown is the pause before the first timed or continuous round.
func (c *Config) Countdown() time.Duration {
	return secondsToDuration(c.Capture.CountdownSeconds)
}

// CatalogPath returns the run catalog database location.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.StateDir, "catalog.db")
}

// LockDir returns the directory holding per-camera lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

// LogPath returns the log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "multicam.log")
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// ExpandPath resolves a leading "~" against the home directory and returns an
// absolute, cleaned path. Empty input stays empty.
func ExpandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, strings.TrimPrefix(value, "~"))
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
