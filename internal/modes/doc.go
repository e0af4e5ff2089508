// Package modes drives capture rounds under one of three cadences.
//
// Manual mode captures a round each time the operator confirms and stops
// on exit. Timed mode captures a fixed number of rounds with a delay after
// each one. Continuous mode captures a fixed number of rounds back to back,
// each a fresh round with streaming restarted. Every completed round is
// merged into one accumulated image set, which is returned even when a
// later round fails so the caller can still save it.
package modes
