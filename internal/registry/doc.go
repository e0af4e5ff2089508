// Package registry maps camera serial numbers to the labels used for run
// folders and image keys.
//
// The serial to ordinal table is injected from the [[cameras]] configuration
// tables. Resolve applies the run's naming policy: serial naming uses the
// serial itself, nickname naming uses the configured ordinal or, when the
// table is empty, the enumeration position.
package registry
