package preflight

import (
	"fmt"
	"strings"

	"multicam/internal/config"
	"multicam/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the path checks for a run writing under outputDir. An
// empty outputDir falls back to the configured output directory.
func RunAll(cfg *config.Config, outputDir string) []Result {
	if cfg == nil {
		return nil
	}
	if strings.TrimSpace(outputDir) == "" {
		outputDir = cfg.Paths.OutputDir
	}

	return []Result{
		CheckDirectoryAccess("Output directory", outputDir),
		CheckFreeSpace("Output free space", outputDir, cfg.Capture.MinFreeMiB),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
}

// Failures converts failed results into a single path creation error, or
// nil when every check passed.
func Failures(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrPathCreation, "preflight", "check", strings.Join(failed, "; "), nil)
}
