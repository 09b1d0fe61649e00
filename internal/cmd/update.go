package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/lpreport/internal/history"
	"github.com/harrison/lpreport/internal/updater"
)

// NewUpdateCommand creates the update command
func NewUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Rewrite the results table in the document",
		Long: `Load results.csv, render the Compact vs Column Generation comparison
table and replace the text between the results markers in the document.

The document is left untouched if the CSV is missing or empty, if any row
is malformed, or if the markers are missing, duplicated or out of order.`,
		Args: cobra.NoArgs,
		RunE: runUpdate,
	}
	addUpdateFlags(cmd)
	return cmd
}

func addUpdateFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("dry-run", false, "Print the rendered table instead of writing the document")
	cmd.Flags().Duration("lock-timeout", 0, "Maximum time to wait for the document lock (default from config: 10s)")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	records, table, err := rt.loadTable()
	if err != nil {
		return err
	}

	docPath := rt.cfg.DocFile()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		rt.log.LogInfo(fmt.Sprintf("dry run: %s not written", docPath))
		fmt.Fprintln(cmd.OutOrStdout(), table)
		return nil
	}

	var metrics updater.UpdateMetrics
	err = updater.UpdateResults(docPath, table,
		updater.WithRows(len(records)),
		updater.WithTimeout(rt.cfg.LockTimeout),
		updater.WithMarkers(rt.cfg.StartMarker, rt.cfg.EndMarker),
		updater.WithMonitor(func(m updater.UpdateMetrics) {
			metrics = m
			rt.log.LogUpdate(m)
		}),
	)
	if err != nil {
		return err
	}

	if rt.cfg.History.Enabled {
		// The document is already written; a history failure is not fatal.
		if err := rt.recordHistory(cmd.Context(), metrics); err != nil {
			rt.log.LogWarn(fmt.Sprintf("failed to record update history: %v", err))
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s with %d rows.\n", docPath, len(records))
	return nil
}

func (rt *runtime) recordHistory(ctx context.Context, m updater.UpdateMetrics) error {
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := history.NewStore(rt.cfg.HistoryDB())
	if err != nil {
		return err
	}
	defer store.Close()

	run := &history.Run{
		CSVPath:      rt.cfg.CSVFile(),
		DocPath:      m.Path,
		Rows:         m.Rows,
		Changed:      m.Changed,
		BytesWritten: m.BytesWritten,
		Duration:     m.Duration,
	}
	if err := store.RecordRun(ctx, run); err != nil {
		return err
	}
	rt.log.LogDebug(fmt.Sprintf("recorded run %s in %s", run.ID, store.Path()))
	return nil
}
