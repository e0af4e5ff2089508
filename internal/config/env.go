package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// envOverrides lists the settings that may be supplied through the
// environment. Empty values leave the file/default value untouched.
type envOverrides struct {
	OutputDir   string   `env:"MULTICAM_OUTPUT_DIR"`
	LogDir      string   `env:"MULTICAM_LOG_DIR"`
	StateDir    string   `env:"MULTICAM_STATE_DIR"`
	LogLevel    string   `env:"MULTICAM_LOG_LEVEL"`
	LogFormat   string   `env:"MULTICAM_LOG_FORMAT"`
	Driver      string   `env:"MULTICAM_DRIVER"`
	PixelFormat string   `env:"MULTICAM_PIXEL_FORMAT"`
	SimDevices  []string `env:"MULTICAM_SIM_DEVICES" envSeparator:","`
}

func (c *Config) applyEnv() error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	setIfPresent(&c.Paths.OutputDir, overrides.OutputDir)
	setIfPresent(&c.Paths.LogDir, overrides.LogDir)
	setIfPresent(&c.Paths.StateDir, overrides.StateDir)
	setIfPresent(&c.Logging.Level, overrides.LogLevel)
	setIfPresent(&c.Logging.Format, overrides.LogFormat)
	setIfPresent(&c.Driver.Kind, overrides.Driver)
	setIfPresent(&c.Capture.PixelFormat, overrides.PixelFormat)
	if len(overrides.SimDevices) > 0 {
		c.Driver.Sim.Devices = overrides.SimDevices
	}
	return nil
}

func setIfPresent(target *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*target = value
	}
}
