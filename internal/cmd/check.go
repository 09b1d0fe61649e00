package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/lpreport/internal/report"
	"github.com/harrison/lpreport/internal/updater"
)

// ErrStale is returned by check when the document's results region does not
// match what update would write.
var ErrStale = errors.New("results table is out of date")

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the document's results table matches results.csv",
		Long: `Render the results table in memory and compare the document with what
update would write. Nothing is written. Exits non-zero if the document is
out of date, suitable for CI.`,
		Args: cobra.NoArgs,
		RunE: runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	records, table, err := rt.loadTable()
	if err != nil {
		return err
	}

	docPath := rt.cfg.DocFile()
	content, err := os.ReadFile(docPath)
	if err != nil {
		return err
	}

	expected, err := updater.Splice(content, table, rt.cfg.StartMarker, rt.cfg.EndMarker)
	if err != nil {
		return fmt.Errorf("%s: %w", docPath, err)
	}

	region, _ := updater.Region(content, rt.cfg.StartMarker, rt.cfg.EndMarker)
	if shape, err := report.Inspect(region); err == nil {
		rt.log.LogDebug(fmt.Sprintf("document table: %d columns, %d rows", shape.Columns(), shape.Rows))
	} else {
		rt.log.LogDebug(fmt.Sprintf("document table: %v", err))
	}

	if !bytes.Equal(content, expected) {
		return fmt.Errorf("%w: %s (run lpreport update)", ErrStale, docPath)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date (%d rows).\n", docPath, len(records))
	return nil
}
