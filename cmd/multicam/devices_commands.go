package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"multicam/internal/config"
	"multicam/internal/devicelock"
	"multicam/internal/driver"
	"multicam/internal/hotplug"
	"multicam/internal/registry"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "Inspect connected cameras",
	}
	devicesCmd.AddCommand(newDevicesListCommand(ctx))
	devicesCmd.AddCommand(newDevicesWatchCommand(ctx))
	return devicesCmd
}

type deviceRow struct {
	Serial string
	Label  string
	InUse  bool
	Err    error
}

func newDevicesListCommand(ctx *commandContext) *cobra.Command {
	var naming string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cameras with their labels and lock state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if naming == "" {
				naming = cfg.Capture.Naming
			}
			policy, err := registry.ParsePolicy(naming)
			if err != nil {
				return err
			}
			drv, err := buildDriver(cfg, logger)
			if err != nil {
				return err
			}
			defer drv.Close()

			rows, err := listDevices(cmd.Context(), cfg, drv, policy)
			if err != nil {
				return err
			}
			renderDevices(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&naming, "naming", "", "Label policy: nickname or serial (defaults to capture.naming)")
	return cmd
}

// listDevices identifies every camera without configuring or streaming it.
func listDevices(ctx context.Context, cfg *config.Config, drv driver.Driver, policy registry.Policy) ([]deviceRow, error) {
	devs, err := drv.Enumerate(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate cameras: %w", err)
	}

	rows := make([]deviceRow, 0, len(devs))
	locker := devicelock.New(cfg.LockDir())
	for _, dev := range devs {
		row := deviceRow{}
		if err := dev.Open(ctx); err != nil {
			row.Err = err
			rows = append(rows, row)
			continue
		}
		id, err := dev.Identity()
		_ = dev.Close()
		if err != nil {
			row.Err = err
			rows = append(rows, row)
			continue
		}
		row.Serial = id.Serial
		lock, err := locker.Acquire(id.Serial)
		switch {
		case errors.Is(err, devicelock.ErrInUse):
			row.InUse = true
		case err != nil:
			row.Err = err
		default:
			_ = lock.Release()
		}
		rows = append(rows, row)
	}

	serials := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Serial != "" {
			serials = append(serials, row.Serial)
		}
	}
	if len(serials) == 0 {
		return rows, nil
	}
	reg, err := registry.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	labels, err := reg.Resolve(policy, serials)
	if err != nil {
		// Unmapped cameras are still listed; the capture run reports the error.
		for i := range rows {
			if rows[i].Serial != "" && rows[i].Err == nil {
				rows[i].Label = "?"
			}
		}
		return rows, nil
	}
	next := 0
	for i := range rows {
		if rows[i].Serial != "" {
			rows[i].Label = labels[next]
			next++
		}
	}
	return rows, nil
}

func renderDevices(out io.Writer, rows []deviceRow) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No cameras detected")
		return
	}
	table := make([][]string, 0, len(rows))
	for i, row := range rows {
		status := "ready"
		switch {
		case row.Err != nil:
			status = row.Err.Error()
		case row.InUse:
			status = "in use"
		}
		table = append(table, []string{strconv.Itoa(i + 1), row.Serial, row.Label, status})
	}
	renderTable(out, []column{
		{title: "#", right: true},
		{title: "Serial"},
		{title: "Label"},
		{title: "Status", status: true},
	}, table)
}

func newDevicesWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print USB camera attach and detach events until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			watcher := hotplug.New(cfg.Hotplug, logger, func(_ context.Context, event hotplug.Event) {
				fmt.Fprintf(out, "%s %s:%s serial=%s %s\n", event.Action, event.VendorID, event.ProductID, event.Serial, event.Model)
			})
			if err := watcher.Start(sigCtx); err != nil {
				return err
			}
			defer watcher.Stop()

			fmt.Fprintln(out, "Watching for camera attach/detach; press Ctrl+C to stop")
			<-sigCtx.Done()
			return nil
		},
	}
}
