package report

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/harrison/lpreport/internal/results"
)

// Terminal renders records as a boxed table for a terminal, with the same
// columns and alignment as Render.
func Terminal(records []results.Record) (string, error) {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(Display))
	configs := make([]table.ColumnConfig, 0, len(Display))
	for i, h := range Display {
		header[i] = h
		if i > 0 {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight, AlignHeader: text.AlignRight})
		}
	}
	w.AppendHeader(header)
	w.SetColumnConfigs(configs)

	for _, rec := range records {
		gap, err := FormatGap(rec)
		if err != nil {
			return "", err
		}
		w.AppendRow(table.Row{
			rec.Instance,
			rec.CompactLP.Text,
			rec.CompactTime,
			rec.ColGenLP.Text,
			rec.ColGenTime,
			gap,
		})
	}

	return w.Render(), nil
}
