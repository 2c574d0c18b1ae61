package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/quidome/mediasort/pkg/scan"
	"github.com/quidome/mediasort/pkg/sorter"
)

// renderTable draws rows under headers in a rounded box. Columns listed in
// right (1-based) are right-aligned.
func renderTable(headers []string, rows [][]string, right ...int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(headers))
	for _, row := range rows {
		tw.AppendRow(toRow(row))
	}

	configs := make([]table.ColumnConfig, 0, len(right))
	for _, n := range right {
		configs = append(configs, table.ColumnConfig{
			Number:      n,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

// renderReport formats a sort report as a summary, a per-folder count and a per-year breakdown.
func renderReport(rep sorter.Report) string {
	var b strings.Builder

	title := "Sort finished"
	if rep.DryRun {
		title = "Dry run (nothing was moved)"
	}
	if rep.Interrupted {
		title = "Sort interrupted"
	}
	fmt.Fprintf(&b, "%s, run %s\n", title, rep.RunID)

	summary := [][]string{
		{"Files walked", strconv.Itoa(rep.Walked)},
		{"Moved", strconv.Itoa(rep.Moved)},
		{"  to a free name", strconv.Itoa(rep.Clear)},
		{"  to duplicates", strconv.Itoa(rep.Duplicates)},
		{"  renamed", strconv.Itoa(rep.Renamed)},
		{"Ignored", strconv.Itoa(rep.Ignored)},
		{"Unresolved", strconv.Itoa(rep.Unresolved)},
		{"Failed", strconv.Itoa(rep.Failed)},
		{"Not reached", strconv.Itoa(rep.Unprocessed)},
		{"Bytes moved", humanize.Bytes(uint64(rep.BytesMoved))},
	}
	b.WriteString(renderTable([]string{"", "Count"}, summary, 2))
	b.WriteString("\n")

	delta := rep.Delta()
	folders := [][]string{
		{"Source", strconv.Itoa(rep.Before.Source), strconv.Itoa(rep.After.Source), signed(delta.Source)},
		{"Photo", strconv.Itoa(rep.Before.Photo), strconv.Itoa(rep.After.Photo), signed(delta.Photo)},
		{"Video", strconv.Itoa(rep.Before.Video), strconv.Itoa(rep.After.Video), signed(delta.Video)},
		{"Duplicates", strconv.Itoa(rep.Before.Duplicates), strconv.Itoa(rep.After.Duplicates), signed(delta.Duplicates)},
	}
	b.WriteString(renderTable([]string{"Folder", "Before", "After", "Change"}, folders, 2, 3, 4))

	var years [][]string
	for _, kind := range []scan.Kind{scan.Photo, scan.Video} {
		for _, y := range rep.Years(kind) {
			years = append(years, []string{kind.String(), strconv.Itoa(y), strconv.Itoa(rep.ByYear[kind.String()][y])})
		}
	}
	if len(years) > 0 {
		b.WriteString("\n")
		b.WriteString(renderTable([]string{"Kind", "Year", "Files"}, years, 2, 3))
	}

	return b.String()
}

func signed(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
