// Package report renders benchmark results as tables.
//
// Render produces the GitHub-flavoured markdown block that is spliced into
// the project README. Terminal produces a boxed table for interactive use, and
// Inspect reads a markdown table back through goldmark so callers can check
// what a document region actually contains.
package report

import (
	"fmt"
	"strings"

	"github.com/harrison/lpreport/internal/results"
)

// GapColumn is the header of the derived gap column.
const GapColumn = "Gap (%)"

// Display lists the rendered column headers. The two time columns share a
// header; their position identifies the formulation.
var Display = []string{"Instance", "Compact LP", "Time (s)", "ColGen LP", "Time (s)", GapColumn}

// Render builds the markdown results table: a header row, an alignment row
// and one row per record in input order. Instance is left-aligned and every
// other column right-aligned. LP bounds and times are emitted as written in
// the CSV; only the gap is computed. The result has no trailing newline.
func Render(records []results.Record) (string, error) {
	lines := make([]string, 0, len(records)+2)
	lines = append(lines, row(Display))

	align := make([]string, len(Display))
	for i, h := range Display {
		if h == "Instance" {
			align[i] = "---"
		} else {
			align[i] = "---:"
		}
	}
	lines = append(lines, row(align))

	for _, rec := range records {
		gap, err := FormatGap(rec)
		if err != nil {
			return "", err
		}
		lines = append(lines, row([]string{
			rec.Instance,
			rec.CompactLP.Text,
			rec.CompactTime,
			rec.ColGenLP.Text,
			rec.ColGenTime,
			gap,
		}))
	}

	return strings.Join(lines, "\n"), nil
}

// FormatGap returns the record's gap with two decimals.
func FormatGap(rec results.Record) (string, error) {
	gap, err := rec.Gap()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%.2f", gap), nil
}

func row(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}
