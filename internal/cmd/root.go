package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for lpreport
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lpreport",
		Short: "Publish cutting-stock LP benchmark results into README.md",
		Long: `lpreport reads the benchmark results written by compare.sh (results.csv),
compares the Compact LP bound with the Column Generation bound for each
instance, and rewrites the results table between the markers

  <!-- results-start -->
  <!-- results-end -->

in README.md. Everything outside the markers is left untouched.

Running lpreport without a subcommand is the same as "lpreport update".

Paths are resolved against the project directory: --project-dir, then
$LPREPORT_HOME, then the nearest parent holding .lpreport/ or results.csv,
then the working directory. Settings are read from .lpreport/config.yaml
if present; CLI flags override configuration file settings.`,
		Version: Version,
		Args:    cobra.NoArgs,
		RunE:    runUpdate,
		// main prints the error once
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("project-dir", "", "Project directory holding results.csv and README.md")
	flags.String("config", "", "Path to config file (default: <project>/.lpreport/config.yaml)")
	flags.String("csv", "", "Results CSV path (default: results.csv)")
	flags.String("doc", "", "Document to update (default: README.md)")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error")
	addUpdateFlags(cmd)

	cmd.AddCommand(NewUpdateCommand())
	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewShowCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
