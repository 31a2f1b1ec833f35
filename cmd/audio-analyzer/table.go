package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderTable renders a rounded console table. Headers are always
// left-aligned; numeric lists the zero-based columns whose cells hold
// numbers and should therefore be right-aligned.
func renderTable(headers []string, rows [][]string, numeric ...int) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(numeric))
	for _, idx := range numeric {
		configs = append(configs, table.ColumnConfig{
			Number:      idx + 1,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
