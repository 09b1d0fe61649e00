package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/harrison/lpreport/internal/history"
)

// ErrHistoryDisabled is returned by the history command when update history
// is not enabled in the configuration.
var ErrHistoryDisabled = errors.New("update history is disabled (set history.enabled in .lpreport/config.yaml)")

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent document updates",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	cmd.Flags().Int("limit", 10, "Maximum number of runs to list (0 for all)")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	if !rt.cfg.History.Enabled {
		return ErrHistoryDisabled
	}

	limit, _ := cmd.Flags().GetInt("limit")

	store, err := history.NewStore(rt.cfg.HistoryDB())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	runs, err := store.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No updates recorded.")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), formatRuns(runs))
	return nil
}

func formatRuns(runs []history.Run) string {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.Style().Format.Header = text.FormatDefault
	w.AppendHeader(table.Row{"Started", "Document", "Rows", "Changed", "Bytes", "Duration"})
	for _, run := range runs {
		changed := "no"
		if run.Changed {
			changed = "yes"
		}
		w.AppendRow(table.Row{
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.DocPath,
			run.Rows,
			changed,
			run.BytesWritten,
			run.Duration.String(),
		})
	}
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	return w.Render()
}
