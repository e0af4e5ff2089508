// Package operator asks the run questions on a line-oriented terminal and
// validates the answers. Any answer can be preset (from command flags), in
// which case the question is skipped but the value is validated the same way.
package operator
