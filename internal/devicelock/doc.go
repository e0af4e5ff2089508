// Package devicelock enforces that a camera belongs to at most one capture
// session at a time, across processes, with one flock file per serial.
package devicelock
