package gstdriver

import (
	"errors"
	"log/slog"

	"multicam/internal/config"
)

// ErrUnavailable is returned by New in builds without the gstreamer tag.
var ErrUnavailable = errors.New("gstreamer driver not compiled in (rebuild with -tags gstreamer)")

// Options configures the GStreamer driver.
type Options struct {
	SourceElement string
	Cameras       []config.Camera
	Logger        *slog.Logger
}

// OptionsFromConfig derives driver options from application config.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	cams := make([]config.Camera, len(cfg.Cameras))
	copy(cams, cfg.Cameras)
	return Options{
		SourceElement: cfg.Driver.GStreamer.SourceElement,
		Cameras:       cams,
		Logger:        logger,
	}
}

// capsFormat maps a pixel format bit depth to the raw video caps format.
func capsFormat(bitDepth int) string {
	if bitDepth <= 8 {
		return "GRAY8"
	}
	return "GRAY16_LE"
}
