// Command monophoton runs the monophoton event selection over event files
// and keeps a history of runs in a sqlite database.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/monophoton/internal/analysis/pipeline"
	"github.com/banshee-data/monophoton/internal/monitoring"
	"github.com/banshee-data/monophoton/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug, trace bool

	cmd := &cobra.Command{
		Use:   "monophoton",
		Short: "Monophoton dark-matter search event selection",
		Long: `monophoton reads reconstructed events (JSON lines or LCIO), builds the
analysis objects, evaluates the signal regions and prints weighted yields
with their cut flows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(cmd.ErrOrStderr(), debug, trace)
		},
	}
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log run start, finish and shard merges to stderr")
	cmd.PersistentFlags().BoolVar(&trace, "trace", false, "Log per-event collection sizes to stderr (implies --debug)")

	cmd.AddCommand(
		newRunCmd(),
		newRunsCmd(),
		newShowCmd(),
		newDeleteCmd(),
		newMigrateCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "monophoton %s\n", version.String())
			},
		},
	)
	return cmd
}

// configureLogging sends the ops stream to w always and the diag and
// trace streams only when asked for.
func configureLogging(w io.Writer, debug, trace bool) {
	var diag, tr io.Writer
	if debug || trace {
		diag = w
	}
	if trace {
		tr = w
	}
	pipeline.SetLogWriters(w, diag, tr)
	monitoring.SetOutput(w)
}
