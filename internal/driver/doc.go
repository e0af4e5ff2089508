// Package driver defines the camera driver capability interface consumed by
// the acquisition session, plus the pixel formats and converted image type
// shared by every implementation.
//
// Implementations live in subpackages: simdriver produces synthetic frames
// for tests and dry runs, gstdriver talks to GenICam cameras through
// GStreamer's aravissrc element.
package driver
