package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"multicam/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, "Documents", "Camera Runs")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, ".local", "share", "multicam") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if cfg.Capture.PixelFormat != "mono8" {
		t.Fatalf("unexpected pixel format: %q", cfg.Capture.PixelFormat)
	}
	if cfg.Capture.Naming != config.NamingNickname {
		t.Fatalf("unexpected naming: %q", cfg.Capture.Naming)
	}
	if cfg.PullTimeout() != 5*time.Second {
		t.Fatalf("unexpected pull timeout: %s", cfg.PullTimeout())
	}
	if cfg.Countdown() != 5*time.Second {
		t.Fatalf("unexpected countdown: %s", cfg.Countdown())
	}
	if cfg.Capture.SleepAfterFinalRound {
		t.Fatal("expected trailing sleep disabled by default")
	}
	if cfg.Driver.Kind != config.DriverSim {
		t.Fatalf("unexpected driver: %q", cfg.Driver.Kind)
	}
	if len(cfg.Hotplug.VendorIDs) != 1 || cfg.Hotplug.VendorIDs[0] != "1e10" {
		t.Fatalf("unexpected vendor ids: %v", cfg.Hotplug.VendorIDs)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.StateDir, cfg.LockDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if _, err := os.Stat(cfg.Paths.OutputDir); !os.IsNotExist(err) {
		t.Fatalf("expected output dir to be left alone, stat err=%v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "multicam.toml")

	type camera struct {
		Serial string `toml:"serial"`
		Label  int    `toml:"label"`
	}
	type payload struct {
		Paths struct {
			OutputDir string `toml:"output_dir"`
		} `toml:"paths"`
		Capture struct {
			PixelFormat string  `toml:"pixel_format"`
			Naming      string  `toml:"naming"`
			PullTimeout float64 `toml:"pull_timeout_seconds"`
		} `toml:"capture"`
		Cameras []camera `toml:"cameras"`
	}
	custom := payload{}
	custom.Paths.OutputDir = filepath.Join(tempDir, "runs")
	custom.Capture.PixelFormat = " MONO12 "
	custom.Capture.Naming = "serials"
	custom.Capture.PullTimeout = 1.5
	custom.Cameras = []camera{{Serial: "18407214", Label: 1}, {Serial: "18407121", Label: 2}}

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom path to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.OutputDir != custom.Paths.OutputDir {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Capture.PixelFormat != "mono12" {
		t.Fatalf("expected pixel format normalized to mono12, got %q", cfg.Capture.PixelFormat)
	}
	if cfg.Capture.Naming != config.NamingSerial {
		t.Fatalf("expected naming alias to normalize to serial, got %q", cfg.Capture.Naming)
	}
	if cfg.PullTimeout() != 1500*time.Millisecond {
		t.Fatalf("unexpected pull timeout: %s", cfg.PullTimeout())
	}
	if len(cfg.Cameras) != 2 || cfg.Cameras[1].Device != "18407121" {
		t.Fatalf("expected camera device to default to serial, got %+v", cfg.Cameras)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "multicam.toml")
	if err := os.WriteFile(configPath, []byte("[capture]\nbogus = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MULTICAM_OUTPUT_DIR", filepath.Join(dir, "env-runs"))
	t.Setenv("MULTICAM_LOG_LEVEL", "DEBUG")
	t.Setenv("MULTICAM_SIM_DEVICES", "111,222,333")

	cfg, _, _, err := config.Load(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.OutputDir != filepath.Join(dir, "env-runs") {
		t.Fatalf("expected env output dir, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected env log level normalized, got %q", cfg.Logging.Level)
	}
	if got := strings.Join(cfg.Driver.Sim.Devices, ","); got != "111,222,333" {
		t.Fatalf("unexpected sim devices: %q", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"pixel format", func(c *config.Config) { c.Capture.PixelFormat = "rgb8" }, "capture.pixel_format"},
		{"naming", func(c *config.Config) { c.Capture.Naming = "fancy" }, "capture.naming"},
		{"driver", func(c *config.Config) { c.Driver.Kind = "spinnaker" }, "driver.kind"},
		{"gstreamer needs cameras", func(c *config.Config) { c.Driver.Kind = config.DriverGStreamer }, "requires at least one"},
		{"sim serial", func(c *config.Config) { c.Driver.Sim.Devices = []string{"cam_1"} }, "alphanumeric"},
		{"camera label", func(c *config.Config) {
			c.Cameras = []config.Camera{{Serial: "1", Label: 0}}
		}, "positive ordinal"},
		{"duplicate serial", func(c *config.Config) {
			c.Cameras = []config.Camera{{Serial: "1", Label: 1}, {Serial: "1", Label: 2}}
		}, "duplicates"},
		{"duplicate label", func(c *config.Config) {
			c.Cameras = []config.Camera{{Serial: "1", Label: 1}, {Serial: "2", Label: 1}}
		}, "already assigned"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if len(cfg.Cameras) != 2 || cfg.Cameras[0].Label != 1 {
		t.Fatalf("unexpected sample cameras: %+v", cfg.Cameras)
	}
}
