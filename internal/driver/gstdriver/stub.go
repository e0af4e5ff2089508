//go:build !gstreamer

package gstdriver

import "multicam/internal/driver"

// New reports ErrUnavailable; the real driver needs the gstreamer build tag.
func New(Options) (driver.Driver, error) {
	return nil, ErrUnavailable
}

// Available reports whether this binary was built with GStreamer support.
func Available() bool { return false }
