// Package acquisition owns the set of opened cameras for one run.
//
// A Session is created with a driver, a label registry and a layout manager.
// Initialize opens every enumerated camera as one unit: a failure on any
// device closes the ones already opened and returns a DeviceError. Each
// CaptureRound starts streaming on every camera, pulls exactly one frame per
// camera in enumeration order, converts it, releases the hardware buffer at
// once and stops streaming again, including on the error path. Teardown
// releases everything and is safe to call any number of times; callers defer
// it right after New.
package acquisition
