package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCapture()
	c.normalizeDriver()
	c.normalizeCameras()
	c.normalizeHotplug()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = ExpandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCapture() {
	c.Capture.PixelFormat = strings.ToLower(strings.TrimSpace(c.Capture.PixelFormat))
	if c.Capture.PixelFormat == "" {
		c.Capture.PixelFormat = defaultPixelFormat
	}
	c.Capture.Naming = strings.ToLower(strings.TrimSpace(c.Capture.Naming))
	switch c.Capture.Naming {
	case "":
		c.Capture.Naming = defaultNaming
	case "nicknames", "nick":
		c.Capture.Naming = NamingNickname
	case "serials", "serial_number":
		c.Capture.Naming = NamingSerial
	}
	if c.Capture.PullTimeoutSeconds == 0 {
		c.Capture.PullTimeoutSeconds = defaultPullTimeoutSeconds
	}
}

func (c *Config) normalizeDriver() {
	c.Driver.Kind = strings.ToLower(strings.TrimSpace(c.Driver.Kind))
	if c.Driver.Kind == "" {
		c.Driver.Kind = defaultDriverKind
	}
	devices := make([]string, 0, len(c.Driver.Sim.Devices))
	for _, serial := range c.Driver.Sim.Devices {
		if serial = strings.TrimSpace(serial); serial != "" {
			devices = append(devices, serial)
		}
	}
	c.Driver.Sim.Devices = devices
	if c.Driver.Sim.Width <= 0 {
		c.Driver.Sim.Width = defaultSimWidth
	}
	if c.Driver.Sim.Height <= 0 {
		c.Driver.Sim.Height = defaultSimHeight
	}
	c.Driver.GStreamer.SourceElement = strings.TrimSpace(c.Driver.GStreamer.SourceElement)
	if c.Driver.GStreamer.SourceElement == "" {
		c.Driver.GStreamer.SourceElement = defaultSourceElement
	}
}

func (c *Config) normalizeCameras() {
	for i := range c.Cameras {
		c.Cameras[i].Serial = strings.TrimSpace(c.Cameras[i].Serial)
		c.Cameras[i].Device = strings.TrimSpace(c.Cameras[i].Device)
		if c.Cameras[i].Device == "" {
			c.Cameras[i].Device = c.Cameras[i].Serial
		}
	}
}

func (c *Config) normalizeHotplug() {
	ids := make([]string, 0, len(c.Hotplug.VendorIDs))
	seen := make(map[string]struct{}, len(c.Hotplug.VendorIDs))
	for _, id := range c.Hotplug.VendorIDs {
		normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(id), "0x"))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		ids = append(ids, normalized)
	}
	c.Hotplug.VendorIDs = ids
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
