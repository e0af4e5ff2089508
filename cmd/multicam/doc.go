// Package main hosts the multicam CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into capture runs,
// device listings, catalog queries, and configuration scaffolding. It
// centralizes configuration resolution and logger setup so subcommands only
// wire the internal packages together.
//
// Keep this package lean: add behavior to the internal packages first and
// surface it here through a command or flag.
package main
