package config

const (
	defaultOutputDir          = "~/Documents/Camera Runs"
	defaultLogDir             = "~/.local/share/multicam/logs"
	defaultStateDir           = "~/.local/share/multicam"
	defaultPixelFormat        = "mono8"
	defaultNaming             = NamingNickname
	defaultPullTimeoutSeconds = 5
	defaultCountdownSeconds   = 5
	defaultMinFreeMiB         = 512
	defaultDriverKind         = DriverSim
	defaultSimWidth           = 640
	defaultSimHeight          = 480
	defaultSourceElement      = "aravissrc"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"

	// FLIR Integrated Imaging Solutions (Point Grey) USB vendor id.
	defaultVendorID = "1e10"
)

// Naming policies.
const (
	NamingNickname = "nickname"
	NamingSerial   = "serial"
)

// Driver kinds.
const (
	DriverSim       = "sim"
	DriverGStreamer = "gstreamer"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
		},
		Capture: Capture{
			PixelFormat:        defaultPixelFormat,
			Naming:             defaultNaming,
			PullTimeoutSeconds: defaultPullTimeoutSeconds,
			CountdownSeconds:   defaultCountdownSeconds,
			MinFreeMiB:         defaultMinFreeMiB,
		},
		Driver: Driver{
			Kind: defaultDriverKind,
			Sim: SimDriver{
				Devices: []string{"18407214", "18407121"},
				Width:   defaultSimWidth,
				Height:  defaultSimHeight,
			},
			GStreamer: GStreamerDriver{
				SourceElement: defaultSourceElement,
			},
		},
		Hotplug: Hotplug{
			VendorIDs: []string{defaultVendorID},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
