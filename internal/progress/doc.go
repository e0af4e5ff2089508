// Package progress reports capture progress to the operator: a progress bar
// when the output is a terminal, structured log lines otherwise.
package progress
