package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"multicam/internal/progress"
)

// column describes one table column. Status columns hold run, device or
// check states and are colored when out is a terminal.
type column struct {
	title  string
	right  bool
	status bool
}

func renderTable(out io.Writer, columns []column, rows [][]string) {
	if len(columns) == 0 {
		return
	}
	colored := progress.IsTerminal(out)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if col.right {
			configs[i].Align = text.AlignRight
		}
		if col.status && colored {
			configs[i].Transformer = colorStatus
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	fmt.Fprintln(out, tw.Render())
}

func colorStatus(value any) string {
	s := fmt.Sprint(value)
	if colors := statusColors(s); colors != nil {
		return colors.Sprint(s)
	}
	return s
}

// statusColors maps a status cell to its color; unknown values stay plain.
func statusColors(status string) text.Colors {
	switch status {
	case "ok", "ready", "completed":
		return text.Colors{text.FgGreen}
	case "running", "interrupted", "in use":
		return text.Colors{text.FgYellow}
	case "FAIL", "failed":
		return text.Colors{text.FgRed}
	}
	return nil
}
