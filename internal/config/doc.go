// Package config loads, normalizes, and validates multicam configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours MULTICAM_* environment overrides.
// The Config type centralizes every knob the capture command needs: the output
// directory for runs, the camera registry, driver selection, and capture
// timing.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical pixel format and naming values, and clear
// validation errors.
package config
