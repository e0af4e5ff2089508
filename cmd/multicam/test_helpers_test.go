package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"multicam/internal/config"
	"multicam/internal/testsupport"
)

var testSerials = []string{"18407214", "18407121"}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	home := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)

	base := []testsupport.ConfigOption{
		testsupport.WithSimDevices(testSerials...),
		testsupport.WithCameras(testSerials...),
	}
	cfg := testsupport.NewConfig(t, append(base, opts...)...)
	return &cliTestEnv{cfg: cfg, configPath: testsupport.WriteConfig(t, cfg)}
}

func runCLI(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func globRun(t *testing.T, outputDir, pattern string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(outputDir, "Camera Run *", pattern))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return matches
}
