// Package gstdriver drives GenICam machine-vision cameras through GStreamer.
//
// Each configured camera gets its own pipeline:
//
//	aravissrc camera-name=<device> ! capsfilter ! appsink
//
// Enumeration comes from the [[cameras]] configuration, since aravissrc
// cannot list devices itself. The cgo bindings are only compiled with the
// `gstreamer` build tag; without it New reports ErrUnavailable.
package gstdriver
