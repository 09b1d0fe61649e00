package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/lpreport/internal/report"
)

// NewShowCommand creates the show command
func NewShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the results table to the terminal",
		Args:  cobra.NoArgs,
		RunE:  runShow,
	}
	cmd.Flags().Bool("markdown", false, "Print the exact markdown block update would write")
	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	records, table, err := rt.loadTable()
	if err != nil {
		return err
	}

	markdown, _ := cmd.Flags().GetBool("markdown")
	if markdown {
		fmt.Fprintln(cmd.OutOrStdout(), table)
		return nil
	}

	out, err := report.Terminal(records)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
