package config

import (
	"errors"
	"fmt"
	"regexp"
)

var labelSafe = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateDriver(); err != nil {
		return err
	}
	if err := c.validateCameras(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCapture() error {
	switch c.Capture.PixelFormat {
	case "mono8", "mono12", "mono16":
	default:
		return fmt.Errorf("capture.pixel_format: unsupported value %q (want mono8, mono12, or mono16)", c.Capture.PixelFormat)
	}
	switch c.Capture.Naming {
	case NamingNickname, NamingSerial:
	default:
		return fmt.Errorf("capture.naming: unsupported value %q (want %q or %q)", c.Capture.Naming, NamingNickname, NamingSerial)
	}
	if c.Capture.PullTimeoutSeconds < 0 {
		return errors.New("capture.pull_timeout_seconds must be positive")
	}
	if c.Capture.CountdownSeconds < 0 {
		return errors.New("capture.countdown_seconds must not be negative")
	}
	if c.Capture.MinFreeMiB < 0 {
		return errors.New("capture.min_free_mib must not be negative")
	}
	return nil
}

func (c *Config) validateDriver() error {
	switch c.Driver.Kind {
	case DriverSim:
		for _, serial := range c.Driver.Sim.Devices {
			if !labelSafe.MatchString(serial) {
				return fmt.Errorf("driver.sim.devices: serial %q must be alphanumeric", serial)
			}
		}
		if c.Driver.Sim.PullDelayMS < 0 {
			return errors.New("driver.sim.pull_delay_ms must not be negative")
		}
	case DriverGStreamer:
		if len(c.Cameras) == 0 {
			return errors.New("driver.kind = \"gstreamer\" requires at least one [[cameras]] entry")
		}
	default:
		return fmt.Errorf("driver.kind: unsupported value %q (want %q or %q)", c.Driver.Kind, DriverSim, DriverGStreamer)
	}
	return nil
}

func (c *Config) validateCameras() error {
	serials := make(map[string]int, len(c.Cameras))
	labels := make(map[int]string, len(c.Cameras))
	for i, cam := range c.Cameras {
		if cam.Serial == "" {
			return fmt.Errorf("cameras[%d].serial must be set", i)
		}
		if !labelSafe.MatchString(cam.Serial) {
			return fmt.Errorf("cameras[%d].serial %q must be alphanumeric", i, cam.Serial)
		}
		if cam.Label < 1 {
			return fmt.Errorf("cameras[%d].label must be a positive ordinal", i)
		}
		if prev, dup := serials[cam.Serial]; dup {
			return fmt.Errorf("cameras[%d].serial %q duplicates cameras[%d]", i, cam.Serial, prev)
		}
		if other, dup := labels[cam.Label]; dup {
			return fmt.Errorf("cameras[%d].label %d already assigned to serial %s", i, cam.Label, other)
		}
		serials[cam.Serial] = i
		labels[cam.Label] = cam.Serial
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
