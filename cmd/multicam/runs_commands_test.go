package main

import (
	"strings"
	"testing"
)

func TestRunsListEmptyCatalogNamesDatabase(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"runs", "list"}, env.configPath, "")
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, "No runs recorded in "+env.cfg.CatalogPath())
}

func TestRunsShowUnknownID(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"runs", "show", "deadbeef"}, env.configPath, "")
	if err == nil || !strings.Contains(err.Error(), `no run matches "deadbeef"`) {
		t.Fatalf("expected unknown run error, got %v", err)
	}
}
