package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"multicam/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The output directory exists, the sim driver is selected, and the countdown
// and free space minimum are zeroed so tests neither wait nor depend on the
// host disk.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Capture.CountdownSeconds = 0
	cfgVal.Capture.MinFreeMiB = 0
	cfgVal.Driver.Kind = config.DriverSim
	cfgVal.Driver.Sim.Width = 8
	cfgVal.Driver.Sim.Height = 6
	cfgVal.Logging.Level = "error"

	if err := os.MkdirAll(cfgVal.Paths.OutputDir, 0o755); err != nil {
		t.Fatalf("mkdir output dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSimDevices replaces the simulated device serials.
func WithSimDevices(serials ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Driver.Sim.Devices = append([]string(nil), serials...)
	}
}

// WithCameras installs a registry mapping serials to ordinals 1..N in order.
func WithCameras(serials ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cameras = b.cfg.Cameras[:0]
		for i, serial := range serials {
			b.cfg.Cameras = append(b.cfg.Cameras, config.Camera{Serial: serial, Label: i + 1, Device: serial})
		}
	}
}

// WithDriverKind selects the driver adapter.
func WithDriverKind(kind string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Driver.Kind = kind
	}
}

// WithNaming sets the default naming policy.
func WithNaming(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Capture.Naming = policy
	}
}

// WithPixelFormat sets the default pixel format.
func WithPixelFormat(format string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Capture.PixelFormat = format
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// WriteConfig serializes cfg as TOML into its base directory and returns the
// file path, for tests that drive the CLI with --config.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(BaseDir(cfg), "multicam.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
