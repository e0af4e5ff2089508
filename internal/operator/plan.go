package operator

import (
	"context"
	"fmt"
	"time"

	"multicam/internal/config"
	"multicam/internal/driver"
	"multicam/internal/modes"
	"multicam/internal/registry"
)

// Preset holds answers given up front. Empty fields are asked for.
type Preset struct {
	Mode   string
	Format string
	Count  string
	Delay  string
	Output string
	Naming string
}

// Plan is the validated set of answers for one run.
type Plan struct {
	Mode   modes.Kind
	Format driver.PixelFormat
	Count  int
	Delay  time.Duration
	Output string
	Naming registry.Policy
}

// Defaults are the configured answers. Output is offered at the destination
// question; Format and Naming are taken when their question gets an empty
// answer. Zero values mean no default.
type Defaults struct {
	Output string
	Format driver.PixelFormat
	Naming registry.Policy
}

// DefaultsFromConfig reads the destination, pixel format and naming policy
// from the capture configuration.
func DefaultsFromConfig(cfg *config.Config) (Defaults, error) {
	if cfg == nil {
		return Defaults{}, nil
	}
	format, err := driver.ParsePixelFormat(cfg.Capture.PixelFormat)
	if err != nil {
		return Defaults{}, fmt.Errorf("capture.pixel_format: %w", err)
	}
	naming, err := registry.ParsePolicy(cfg.Capture.Naming)
	if err != nil {
		return Defaults{}, fmt.Errorf("capture.naming: %w", err)
	}
	return Defaults{Output: cfg.Paths.OutputDir, Format: format, Naming: naming}, nil
}

// Collect resolves every answer in the order the questions are asked:
// mode, count and delay, pixel format, destination, naming. The first
// invalid answer aborts.
func (p *Prompter) Collect(ctx context.Context, preset Preset, defaults Defaults) (Plan, error) {
	var plan Plan
	var err error

	if preset.Mode != "" {
		plan.Mode, err = ParseMode(preset.Mode)
	} else {
		plan.Mode, err = p.Mode(ctx)
	}
	if err != nil {
		return Plan{}, err
	}

	if plan.Mode != modes.Manual {
		if preset.Count != "" {
			plan.Count, err = ParseCount(preset.Count)
		} else {
			plan.Count, err = p.Count(ctx)
		}
		if err != nil {
			return Plan{}, err
		}
	}
	if plan.Mode == modes.Timed {
		if preset.Delay != "" {
			plan.Delay, err = ParseDelay(preset.Delay)
		} else {
			plan.Delay, err = p.Delay(ctx)
		}
		if err != nil {
			return Plan{}, err
		}
	}

	if preset.Format != "" {
		plan.Format, err = ParsePixelFormat(preset.Format)
	} else {
		plan.Format, err = p.PixelFormat(ctx, defaults.Format)
	}
	if err != nil {
		return Plan{}, err
	}

	if preset.Output != "" {
		plan.Output, err = p.CheckDestination(preset.Output)
	} else {
		plan.Output, err = p.Destination(ctx, defaults.Output)
	}
	if err != nil {
		return Plan{}, err
	}

	if preset.Naming != "" {
		plan.Naming, err = ParseNaming(preset.Naming)
	} else {
		plan.Naming, err = p.Naming(ctx, defaults.Naming)
	}
	if err != nil {
		return Plan{}, err
	}
	return plan, nil
}
