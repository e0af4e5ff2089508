package main

import (
	"testing"

	"multicam/internal/config"
	"multicam/internal/testsupport"
)

func TestPreflightCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"preflight"}, env.configPath, "")
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	requireContains(t, out, "Output directory")
	requireContains(t, out, "Camera driver")
}

func TestPreflightCommandReportsUnavailableDriver(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithDriverKind(config.DriverGStreamer))

	out, _, err := runCLI(t, []string{"preflight"}, env.configPath, "")
	if err == nil {
		t.Fatal("expected preflight to fail without the gstreamer build tag")
	}
	requireContains(t, out, "FAIL")
	requireContains(t, out, "gstreamer tag")
}
