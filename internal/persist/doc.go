// Package persist writes captured images into the run layout as PNG files
// named for MultiDIC, rotating each one by 270 degrees to undo the camera
// mounting orientation.
//
// Saving is fail-soft: every image is attempted and failures are returned
// together as one joined error of *WriteError values.
package persist
