package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"multicam/internal/catalog"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Query the run catalog",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent capture runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No runs recorded in %s\n", store.Path())
				return nil
			}
			renderRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func renderRuns(out io.Writer, runs []catalog.Run) {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			formatTime(run.StartedAt),
			run.Mode,
			run.PixelFormat,
			strconv.Itoa(run.Cameras),
			strconv.Itoa(run.Rounds),
			strconv.Itoa(run.Images),
			string(run.Status),
		})
	}
	renderTable(out, []column{
		{title: "ID"},
		{title: "Started"},
		{title: "Mode"},
		{title: "Format"},
		{title: "Cameras", right: true},
		{title: "Rounds", right: true},
		{title: "Images", right: true},
		{title: "Status", status: true},
	}, rows)
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run and its images (an id prefix is enough)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(cmd.Context(), args[0])
			switch {
			case errors.Is(err, catalog.ErrNotFound):
				return fmt.Errorf("no run matches %q", args[0])
			case errors.Is(err, catalog.ErrAmbiguous):
				return fmt.Errorf("%q matches more than one run; use a longer prefix", args[0])
			case err != nil:
				return err
			}
			images, err := store.ListImages(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			renderRun(cmd.OutOrStdout(), run, images)
			return nil
		},
	}
}

func renderRun(out io.Writer, run *catalog.Run, images []catalog.Image) {
	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "Status:   %s\n", run.Status)
	fmt.Fprintf(out, "Mode:     %s (%s, %s labels)\n", run.Mode, run.PixelFormat, run.Naming)
	fmt.Fprintf(out, "Folder:   %s\n", run.Root)
	fmt.Fprintf(out, "Started:  %s\n", formatTime(run.StartedAt))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(out, "Finished: %s (%s)\n", formatTime(run.FinishedAt), run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	}
	fmt.Fprintf(out, "Cameras:  %d, rounds: %d, images: %d\n", run.Cameras, run.Rounds, run.Images)
	if run.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", run.Error)
	}
	if len(images) == 0 {
		return
	}

	var total int64
	rows := make([][]string, 0, len(images))
	for _, img := range images {
		total += img.Bytes
		rows = append(rows, []string{img.Key, img.Label, img.Serial, strconv.Itoa(img.Sequence), humanize.IBytes(uint64(img.Bytes))})
	}
	fmt.Fprintln(out)
	renderTable(out, []column{
		{title: "Key"},
		{title: "Label"},
		{title: "Serial"},
		{title: "Round", right: true},
		{title: "Size", right: true},
	}, rows)
	fmt.Fprintf(out, "%d file(s), %s\n", len(images), humanize.IBytes(uint64(total)))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
