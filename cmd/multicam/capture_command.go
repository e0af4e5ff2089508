package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"multicam/internal/acquisition"
	"multicam/internal/catalog"
	"multicam/internal/config"
	"multicam/internal/devicelock"
	"multicam/internal/layout"
	"multicam/internal/logging"
	"multicam/internal/modes"
	"multicam/internal/operator"
	"multicam/internal/persist"
	"multicam/internal/preflight"
	"multicam/internal/progress"
	"multicam/internal/registry"
	"multicam/internal/services"
)

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	var preset operator.Preset

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Run a capture session across every connected camera",
		Long: `Run a capture session across every connected camera.

Questions that are not answered by a flag are asked interactively in this
order: mode, number of images, delay, pixel format, destination, naming.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return runCapture(cmd, cfg, logger, preset, afero.NewOsFs())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&preset.Mode, "mode", "", "Acquisition mode: 1/manual, 2/timed, 3/continuous")
	flags.StringVar(&preset.Format, "format", "", "Pixel format: 1/mono8, 2/mono12, 3/mono16")
	flags.StringVar(&preset.Count, "count", "", "Number of rounds for timed and continuous modes")
	flags.StringVar(&preset.Delay, "delay", "", "Seconds between timed rounds")
	flags.StringVar(&preset.Output, "output", "", "Existing directory that receives the run folder")
	flags.StringVar(&preset.Naming, "naming", "", "Folder naming: y/nickname or n/serial")
	return cmd
}

func runCapture(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, preset operator.Preset, fs afero.Fs) error {
	out := cmd.OutOrStdout()
	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defaults, err := operator.DefaultsFromConfig(cfg)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "configure", "capture defaults", "", err)
	}
	prompter := operator.New(cmd.InOrStdin(), out, fs)
	defer prompter.Close()
	plan, err := prompter.Collect(sigCtx, preset, defaults)
	if err != nil {
		return err
	}

	if err := preflight.Failures(preflight.RunAll(cfg, plan.Output)); err != nil {
		return err
	}

	drv, err := buildDriver(cfg, logger)
	if err != nil {
		return services.Wrap(services.ErrDeviceInit, "initialize", "driver", "", err)
	}
	reg, err := registry.FromConfig(cfg)
	if err != nil {
		return err
	}
	session, err := acquisition.New(acquisition.Options{
		Driver:      drv,
		Registry:    reg,
		Layout:      layout.NewManager(fs),
		Locker:      devicelock.New(cfg.LockDir()),
		OutputDir:   plan.Output,
		PullTimeout: cfg.PullTimeout(),
		Logger:      logger,
	})
	if err != nil {
		_ = drv.Close()
		return err
	}
	defer func() {
		if err := session.Teardown(); err != nil {
			logging.WarnWithContext(logger, "teardown reported errors", "teardown_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "power cycle the cameras if they stay busy"),
			)
		}
	}()

	runID := uuid.NewString()
	runCtx := services.WithRunID(sigCtx, runID)
	runLogger := logging.WithContext(runCtx, logger)

	runLayout, identities, err := session.Initialize(runCtx, plan.Format, plan.Naming)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d camera(s) ready; saving to %s\n", len(identities), runLayout.Root)
	for _, cam := range session.Cameras() {
		fmt.Fprintf(out, "  %-8s %s\n", cam.Label, cam.Serial)
	}

	store, recorder := startCatalogRun(runCtx, cfg, runLogger, catalog.Run{
		ID:          runID,
		Mode:        plan.Mode.String(),
		PixelFormat: plan.Format.String(),
		Naming:      string(plan.Naming),
		Root:        runLayout.Root,
		Cameras:     len(identities),
		StartedAt:   time.Now(),
	})
	if store != nil {
		defer store.Close()
	}

	result, runErr := modes.Run(runCtx, session, modes.Options{
		Kind:                 plan.Mode,
		Count:                plan.Count,
		Delay:                plan.Delay,
		Countdown:            cfg.Countdown(),
		SleepAfterFinalRound: cfg.Capture.SleepAfterFinalRound,
		Input:                prompter,
		Progress:             progress.New(cmd.ErrOrStderr(), plan.Count, runLogger),
		Bell:                 out,
		Logger:               runLogger,
	})

	// Images already captured are written even when the run was interrupted.
	writer := persist.NewWriter(fs, recorder, runLogger)
	saveErr := writer.Save(context.WithoutCancel(runCtx), result.Images, runLayout, plan.Naming)

	status := catalog.StatusCompleted
	switch {
	case errors.Is(runErr, context.Canceled):
		status = catalog.StatusInterrupted
	case runErr != nil || saveErr != nil:
		status = catalog.StatusFailed
	}
	if store != nil {
		if err := store.FinishRun(context.WithoutCancel(runCtx), runID, status, result.Rounds, errors.Join(runErr, saveErr)); err != nil {
			logging.WarnWithContext(runLogger, "failed to finish catalog run", "catalog_finish_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run shows as running in the catalog"),
			)
		}
	}

	fmt.Fprintf(out, "Saved %d image(s) from %d round(s) to %s (run %s)\n", len(result.Images), result.Rounds, runLayout.Root, runID[:8])
	return errors.Join(runErr, saveErr)
}

// startCatalogRun records the run start. The catalog is bookkeeping only, so
// failures are logged and the run proceeds without it.
func startCatalogRun(ctx context.Context, cfg *config.Config, logger *slog.Logger, run catalog.Run) (*catalog.Store, persist.Recorder) {
	store, err := catalog.Open(cfg.CatalogPath())
	if err != nil {
		logging.WarnWithContext(logger, "run catalog unavailable", "catalog_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run will not be listed by 'multicam runs'"),
		)
		return nil, nil
	}
	if err := store.StartRun(ctx, run); err != nil {
		logging.WarnWithContext(logger, "failed to record run start", "catalog_start_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run will not be listed by 'multicam runs'"),
		)
		_ = store.Close()
		return nil, nil
	}
	return store, store.ForRun(run.ID)
}
