package main

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"paddock/internal/resolver"
	"paddock/internal/store"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
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
		r := make(table.Row, len(headers))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)

	return tw.Render() + "\n"
}

// renderKeyValues renders a two column detail table.
func renderKeyValues(pairs [][2]string) string {
	rows := make([][]string, len(pairs))
	for i, p := range pairs {
		rows[i] = []string{p[0], p[1]}
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 3, 64)
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

var (
	matchedColor = color.New(color.FgGreen)
	createdColor = color.New(color.FgCyan)
	queuedColor  = color.New(color.FgYellow)
)

func outcomeLabel(o resolver.Outcome) string {
	switch o {
	case resolver.OutcomeMatched:
		return matchedColor.Sprint(o)
	case resolver.OutcomeCreated:
		return createdColor.Sprint(o)
	case resolver.OutcomeQueued:
		return queuedColor.Sprint(o)
	default:
		return string(o)
	}
}

func statusLabel(s store.PendingStatus) string {
	switch s {
	case store.StatusApproved:
		return matchedColor.Sprint(s)
	case store.StatusRejected:
		return createdColor.Sprint(s)
	default:
		return queuedColor.Sprint(s)
	}
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
