// Package preflight provides readiness checks for the filesystem paths and
// driver that a capture run depends on.
//
// The capture command calls RunAll before any camera is opened. A failed
// check aborts the run with a path creation error so no device is touched
// for a run that cannot be written. The "multicam preflight" command shows
// the same results as a table.
package preflight
