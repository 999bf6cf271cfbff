package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/banshee-data/monophoton/internal/analysis/objects"
	"github.com/banshee-data/monophoton/internal/analysis/pipeline"
	"github.com/banshee-data/monophoton/internal/analysis/regions"
	"github.com/banshee-data/monophoton/internal/config"
	"github.com/banshee-data/monophoton/internal/monitoring"
	"github.com/banshee-data/monophoton/internal/report"
	"github.com/banshee-data/monophoton/internal/source"
	"github.com/banshee-data/monophoton/internal/storage/sqlite"
)

var errNoInputs = errors.New("no input files")

type runFlags struct {
	configPath  string
	dbPath      string
	outDir      string
	format      string
	metricsPath string
	// Empty strings, zero workers and negative max-events defer to the
	// config file.
	etaMode    string
	counting   string
	degenerate string
	workers    int
	maxEvents  int
}

// overrides returns the flags that were set as a partial config.
func (f runFlags) overrides() *config.SelectionConfig {
	o := config.EmptySelectionConfig()
	if f.etaMode != "" {
		o.TightPhotonEtaMode = &f.etaMode
	}
	if f.counting != "" {
		o.PreselectionCounting = &f.counting
	}
	if f.degenerate != "" {
		o.DegenerateEvents = &f.degenerate
	}
	if f.workers > 0 {
		o.Workers = &f.workers
	}
	if f.maxEvents >= 0 {
		o.MaxEvents = &f.maxEvents
	}
	return o
}

func newRunCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run [flags] inputs...",
		Short: "Run the selection over event files",
		Long: `Run the selection over one or more event files. Inputs may be
doublestar globs such as 'data/**/*.jsonl'. The region summary and cut
flows go to stdout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			_, err := runAnalysis(ctx, cmd.OutOrStdout(), f, args)
			return err
		},
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Selection config file (JSON or YAML)")
	cmd.Flags().StringVar(&f.dbPath, "db", "", "Record the run in this sqlite database")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", "", "Write reports (text, HTML, xlsx, plots, YODA) into this directory")
	cmd.Flags().StringVar(&f.format, "format", "", "Input format: jsonl or lcio (default: by file extension)")
	cmd.Flags().StringVar(&f.metricsPath, "metrics", "", "Write Prometheus metrics in text format to this file")
	cmd.Flags().StringVar(&f.etaMode, "eta-mode", "", "Tight-photon eta window: literal_and or barrel_or_endcap (default: from config)")
	cmd.Flags().StringVar(&f.counting, "counting", "", "Preselection counting: per_invocation or per_event (default: from config)")
	cmd.Flags().StringVar(&f.degenerate, "degenerate", "", "Degenerate events: skip or fail (default: from config)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Parallel workers (default: from config)")
	cmd.Flags().IntVar(&f.maxEvents, "max-events", -1, "Stop after this many events, 0 for all (default: from config)")
	return cmd
}

// runAnalysis executes one run end to end and returns the stored run
// record (with an empty RunID when no database was given).
func runAnalysis(ctx context.Context, out io.Writer, f runFlags, args []string) (*sqlite.Run, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	cfg.Merge(f.overrides())
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	inputs, err := expandInputs(args)
	if err != nil {
		return nil, err
	}
	src, err := source.OpenAll(inputs, f.format)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	metrics := monitoring.NewMetrics()
	opts := pipeline.Options{
		Objects:    objects.Options{TightPhotonEta: objects.EtaWindowMode(cfg.GetTightPhotonEtaMode())},
		Counting:   regions.CountingMode(cfg.GetPreselectionCounting()),
		Degenerate: pipeline.DegeneratePolicy(cfg.GetDegenerateEvents()),
		Recorder:   metrics,
	}
	binning := report.Binning{
		METBins:      cfg.GetMETBins(),
		METMax:       cfg.GetMETMax(),
		PhotonPtBins: cfg.GetPhotonPtBins(),
		PhotonPtMax:  cfg.GetPhotonPtMax(),
	}
	names := regionNames()
	workers := cfg.GetWorkers()
	hists := make([]*report.Histograms, workers)

	monitoring.Logf("running over %d input(s) with %d worker(s), eta mode %s, counting %s",
		len(inputs), workers, opts.Objects.TightPhotonEta, opts.Counting)
	start := time.Now()
	a, err := pipeline.RunParallel(ctx, src, opts,
		pipeline.RunConfig{Workers: workers, MaxEvents: cfg.GetMaxEvents()},
		func(w int, a *pipeline.Analysis) error {
			hists[w] = report.NewHistograms(names, binning)
			a.Observe(hists[w].Observer())
			return nil
		})
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	metrics.ObserveDuration(elapsed)

	merged := hists[0]
	for _, h := range hists[1:] {
		if h == nil {
			continue
		}
		if err := merged.Merge(h); err != nil {
			return nil, err
		}
	}

	yields := a.Summary()
	flows := a.CutFlows()
	if err := regions.WriteSummary(out, yields); err != nil {
		return nil, err
	}
	if err := regions.WriteCutFlows(out, flows); err != nil {
		return nil, err
	}
	st := a.Stats()
	monitoring.Logf("processed %d events (%d skipped, sum of weights %.3f) in %s",
		st.Events, st.Skipped, st.SumWeights, elapsed.Round(time.Millisecond))

	if f.outDir != "" {
		files, err := report.Write(f.outDir, report.Result{
			Title:      "monophoton: " + strings.Join(inputs, ", "),
			Yields:     yields,
			Flows:      flows,
			Histograms: merged,
		})
		if err != nil {
			return nil, fmt.Errorf("write reports: %w", err)
		}
		monitoring.Logf("wrote %d report files to %s", len(files), f.outDir)
	}

	run := newRunRecord(cfg, a, inputs, workers, elapsed)
	if f.dbPath != "" {
		if err := storeRun(f.dbPath, run); err != nil {
			return nil, err
		}
		monitoring.Logf("recorded run %s in %s", run.RunID, f.dbPath)
	}

	if f.metricsPath != "" {
		if err := metrics.WriteTextfile(f.metricsPath); err != nil {
			return nil, fmt.Errorf("write metrics: %w", err)
		}
	}
	return run, nil
}

// expandInputs resolves each argument as a doublestar glob. Arguments
// without glob syntax are passed through so a missing file is reported
// by the source that fails to open it.
func expandInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			inputs = append(inputs, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: %q matches nothing", errNoInputs, arg)
		}
		inputs = append(inputs, matches...)
	}
	if len(inputs) == 0 {
		return nil, errNoInputs
	}
	return inputs, nil
}

func regionNames() []string {
	defs := regions.Default()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

func newRunRecord(cfg *config.SelectionConfig, a *pipeline.Analysis, inputs []string, workers int, elapsed time.Duration) *sqlite.Run {
	st := a.Stats()
	run := &sqlite.Run{
		Inputs:               inputs,
		TightPhotonEtaMode:   cfg.GetTightPhotonEtaMode(),
		PreselectionCounting: string(a.Counting()),
		DegenerateEvents:     string(a.Options().Degenerate),
		Workers:              workers,
		Events:               st.Events,
		Skipped:              st.Skipped,
		SumWeights:           st.SumWeights,
		DurationMs:           elapsed.Milliseconds(),
	}
	if b, err := json.Marshal(cfg); err == nil {
		run.ConfigJSON = b
	}
	for _, y := range a.Summary() {
		run.Yields = append(run.Yields, sqlite.RegionYield{Region: y.Name, Count: y.Count, Uncertainty: y.Uncertainty})
	}
	for _, fl := range a.CutFlows() {
		for i, s := range fl.Steps {
			run.CutFlows = append(run.CutFlows, sqlite.CutFlowStep{
				Region: fl.Region,
				Step:   i + 1,
				Label:  s.Name,
				SumW:   s.SumW,
				SumW2:  s.SumW2,
			})
		}
	}
	return run
}

func storeRun(path string, run *sqlite.Run) error {
	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return sqlite.NewRunStore(db.DB).Insert(run)
}
