package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/monophoton/internal/analysis/regions"
	"github.com/banshee-data/monophoton/internal/storage/sqlite"
)

var errNoDB = errors.New("--db is required")

func addDBFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVar(path, "db", "", "Run database (sqlite)")
}

func openStore(path string) (*sqlite.DB, *sqlite.RunStore, error) {
	if path == "" {
		return nil, nil, errNoDB
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return db, sqlite.NewRunStore(db.DB), nil
}

func newRunsCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := openStore(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			runs, err := store.List()
			if err != nil {
				return err
			}
			return writeRunList(cmd.OutOrStdout(), runs)
		},
	}
	addDBFlag(cmd, &dbPath)
	return cmd
}

func newShowCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the summary and cut flows of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := openStore(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			run, err := store.Get(args[0])
			if err != nil {
				return err
			}
			return writeRun(cmd.OutOrStdout(), run)
		},
	}
	addDBFlag(cmd, &dbPath)
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Remove a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := openStore(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted run %s\n", args[0])
			return nil
		},
	}
	addDBFlag(cmd, &dbPath)
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:       "migrate up|down|version",
		Short:     "Apply, roll back or inspect the run database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				return errNoDB
			}
			db, err := sqlite.OpenNoMigrate(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			switch args[0] {
			case "up":
				err = db.MigrateUp()
			case "down":
				err = db.MigrateDown()
			}
			if err != nil {
				return err
			}
			v, dirty, err := db.MigrateVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", v, dirty)
			return nil
		},
	}
	addDBFlag(cmd, &dbPath)
	return cmd
}

func writeRunList(w io.Writer, runs []*sqlite.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no runs recorded")
		return err
	}
	for _, r := range runs {
		if _, err := fmt.Fprintf(w, "%s  %s  %8d events  %6d skipped  %-16s %-14s %d input(s)\n",
			r.RunID, time.Unix(0, r.CreatedAt).UTC().Format(time.RFC3339),
			r.Events, r.Skipped, r.TightPhotonEtaMode, r.PreselectionCounting, len(r.Inputs)); err != nil {
			return err
		}
	}
	return nil
}

// writeRun prints a stored run in the same layout as a live run.
func writeRun(w io.Writer, r *sqlite.Run) error {
	if _, err := fmt.Fprintf(w, "run %s at %s\n", r.RunID, time.Unix(0, r.CreatedAt).UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "eta mode %s, counting %s, degenerate events %s, %d worker(s)\n",
		r.TightPhotonEtaMode, r.PreselectionCounting, r.DegenerateEvents, r.Workers); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%d events, %d skipped, sum of weights %.3f, %d ms\n\n",
		r.Events, r.Skipped, r.SumWeights, r.DurationMs); err != nil {
		return err
	}

	yields := make([]regions.Yield, len(r.Yields))
	for i, y := range r.Yields {
		yields[i] = regions.Yield{Name: y.Region, Count: y.Count, Uncertainty: y.Uncertainty}
	}
	if err := regions.WriteSummary(w, yields); err != nil {
		return err
	}
	return regions.WriteCutFlows(w, storedFlows(r.CutFlows))
}

// storedFlows regroups cut-flow rows, which arrive ordered by region and
// step, into per-region flows.
func storedFlows(steps []sqlite.CutFlowStep) []regions.Flow {
	var flows []regions.Flow
	for _, s := range steps {
		if len(flows) == 0 || flows[len(flows)-1].Region != s.Region {
			flows = append(flows, regions.Flow{Region: s.Region})
		}
		f := &flows[len(flows)-1]
		f.Steps = append(f.Steps, regions.Accumulator{Name: s.Label, SumW: s.SumW, SumW2: s.SumW2})
	}
	return flows
}
