// Package services defines shared utilities consumed by the acquisition
// session, the mode driver, and the persistence writer.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, round numbers, and stage
//     names for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (no devices, device init, capture, path creation, write, invalid input)
//     so the CLI can report them consistently.
//
// Use these helpers when wiring new capture logic so error handling and
// observability stay uniform across the run.
package services
