package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"multicam/internal/services"
	"multicam/internal/testsupport"
)

func TestCaptureTimedWithFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	output := env.cfg.Paths.OutputDir

	out, _, err := runCLI(t, []string{
		"capture", "--mode", "2", "--count", "2", "--delay", "0",
		"--format", "1", "--output", output, "--naming", "y",
	}, env.configPath, "")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	requireContains(t, out, "2 camera(s) ready")
	requireContains(t, out, "Saved 4 image(s) from 2 round(s)")

	for _, label := range []string{"1", "2"} {
		files := globRun(t, output, filepath.Join("Camera "+label, "*.png"))
		if len(files) != 2 {
			t.Fatalf("camera %s: expected 2 files, got %v", label, files)
		}
		if base := filepath.Base(files[0]); base != "cam"+label+"image_1.png" {
			t.Fatalf("unexpected file name %s", base)
		}
	}

	out, _, err = runCLI(t, []string{"runs", "list"}, env.configPath, "")
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, "timed")
	requireContains(t, out, "completed")

	store := testsupport.MustOpenCatalog(t, env.cfg)
	runs, err := store.ListRuns(t.Context(), 1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("ListRuns: %v %v", runs, err)
	}
	out, _, err = runCLI(t, []string{"runs", "show", runs[0].ID[:8]}, env.configPath, "")
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	requireContains(t, out, "cam2image_2")
	requireContains(t, out, "4 file(s)")
}

func TestCaptureManualFromStdin(t *testing.T) {
	env := setupCLITestEnv(t)
	output := env.cfg.Paths.OutputDir

	// mode, format, destination confirm, naming, then two captures and exit.
	stdin := strings.Join([]string{"1", "3", "y", "n", "", "", "e"}, "\n") + "\n"
	out, _, err := runCLI(t, []string{"capture"}, env.configPath, stdin)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	requireContains(t, out, "Saved 4 image(s) from 2 round(s)")

	files := globRun(t, output, filepath.Join("Camera 18407214", "*.png"))
	if len(files) != 2 {
		t.Fatalf("expected serial-named folder with 2 files, got %v", files)
	}
}

func TestCaptureInvalidAnswerOpensNoDevice(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"capture", "--mode", "4"}, env.configPath, "")
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if runs := globRun(t, env.cfg.Paths.OutputDir, ""); len(runs) != 0 {
		t.Fatalf("expected no run folder, got %v", runs)
	}
}

func TestCapturePreflightFailureAbortsBeforeDevices(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Capture.MinFreeMiB = 1 << 40
	configPath := testsupport.WriteConfig(t, env.cfg)

	_, _, err := runCLI(t, []string{
		"capture", "--mode", "3", "--count", "1", "--format", "mono8",
		"--output", env.cfg.Paths.OutputDir, "--naming", "nickname",
	}, configPath, "")
	if !errors.Is(err, services.ErrPathCreation) {
		t.Fatalf("expected path creation error, got %v", err)
	}
	if runs := globRun(t, env.cfg.Paths.OutputDir, ""); len(runs) != 0 {
		t.Fatalf("expected no run folder, got %v", runs)
	}
}

func TestCaptureUnmappedCameraFailsInitialization(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCameras("18407214"))

	_, _, err := runCLI(t, []string{
		"capture", "--mode", "3", "--count", "1", "--format", "1",
		"--output", env.cfg.Paths.OutputDir, "--naming", "y",
	}, env.configPath, "")
	if !errors.Is(err, services.ErrDeviceInit) {
		t.Fatalf("expected device init error, got %v", err)
	}
	if runs := globRun(t, env.cfg.Paths.OutputDir, ""); len(runs) != 0 {
		t.Fatalf("expected no run folder, got %v", runs)
	}
}

func TestCaptureEmptyAnswersUseConfiguredFormatAndNaming(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithPixelFormat("mono16"),
		testsupport.WithNaming("serial"),
	)

	// mode, empty format, destination confirm, empty naming, one capture and exit.
	stdin := strings.Join([]string{"1", "", "y", "", "", "e"}, "\n") + "\n"
	out, _, err := runCLI(t, []string{"capture"}, env.configPath, stdin)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	requireContains(t, out, "[mono16]")
	requireContains(t, out, "[serial]")
	requireContains(t, out, "Saved 2 image(s) from 1 round(s)")

	if files := globRun(t, env.cfg.Paths.OutputDir, filepath.Join("Camera 18407121", "*.png")); len(files) != 1 {
		t.Fatalf("expected serial-named folder with 1 file, got %v", files)
	}
	store := testsupport.MustOpenCatalog(t, env.cfg)
	runs, err := store.ListRuns(t.Context(), 1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("ListRuns: %v %v", runs, err)
	}
	if runs[0].PixelFormat != "mono16" || runs[0].Naming != "serial" {
		t.Fatalf("run recorded %s/%s, want mono16/serial", runs[0].PixelFormat, runs[0].Naming)
	}
}
