package main

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/monophoton/internal/analysis/regions"
	"github.com/banshee-data/monophoton/internal/config"
	"github.com/banshee-data/monophoton/internal/report"
	"github.com/banshee-data/monophoton/internal/storage/sqlite"
)

const passingEvent = `{"photons":[{"pt":200,"eta":0.5,"phi":1}],"met":{"pt":260,"phi":0},"scalar_ht":676}`

const perEventConfig = `tight_photon_eta_mode: barrel_or_endcap
preselection_counting: per_event
degenerate_events: skip
`

// writeInputs lays out two JSONL files under dir/data/<sub>/ so that
// globbing needs "**".
func writeInputs(t *testing.T, dir string) {
	t.Helper()
	for sub, n := range map[string]int{"a": 2, "b": 1} {
		d := filepath.Join(dir, "data", sub)
		require.NoError(t, os.MkdirAll(d, 0o755))
		lines := strings.Repeat(passingEvent+"\n", n)
		require.NoError(t, os.WriteFile(filepath.Join(d, "events.jsonl"), []byte(lines), 0o644))
	}
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "selection.yaml")
	require.NoError(t, os.WriteFile(p, []byte(perEventConfig), 0o644))
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func yieldsByRegion(ys []sqlite.RegionYield) map[string]float64 {
	m := make(map[string]float64, len(ys))
	for _, y := range ys {
		m[y.Region] = y.Count
	}
	return m
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir)
	dbPath := filepath.Join(dir, "runs.db")
	outDir := filepath.Join(dir, "report")
	metricsPath := filepath.Join(dir, "metrics.prom")

	var live bytes.Buffer
	run, err := runAnalysis(context.Background(), &live, runFlags{
		configPath:  writeConfig(t, dir),
		dbPath:      dbPath,
		outDir:      outDir,
		metricsPath: metricsPath,
		workers:     2,
		maxEvents:   -1,
	}, []string{filepath.Join(dir, "data", "**", "*.jsonl")})
	require.NoError(t, err)

	assert.NotEmpty(t, run.RunID)
	assert.Len(t, run.Inputs, 2)
	assert.Equal(t, 3, run.Events)
	assert.Equal(t, 0, run.Skipped)
	assert.Equal(t, 2, run.Workers)
	assert.Equal(t, "per_event", run.PreselectionCounting)

	want := map[string]float64{
		regions.Preselection: 3,
		regions.SRE1:         0,
		regions.SRE2:         3,
		regions.SRI1:         3,
		regions.SRI2:         3,
		regions.SRI3:         0,
	}
	if diff := cmp.Diff(want, yieldsByRegion(run.Yields)); diff != "" {
		t.Errorf("yields mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, math.Sqrt(3), run.Yields[0].Uncertainty, 1e-12)
	assert.True(t, strings.HasPrefix(live.String(), "event counts\n"))

	for _, name := range []string{report.SummaryFile, report.HTMLFile, report.XLSXFile, report.YieldChartFile, report.YODAFile} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "monophoton_events_processed_total 3")

	// The stored run prints the same tables as the live run.
	shown, err := execute(t, "show", "--db", dbPath, run.RunID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(shown), live.Len())
	if diff := cmp.Diff(live.String(), shown[len(shown)-live.Len():]); diff != "" {
		t.Errorf("show output mismatch (-live +shown):\n%s", diff)
	}
	assert.True(t, strings.HasPrefix(shown, "run "+run.RunID))

	listed, err := execute(t, "runs", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, listed, run.RunID)
	assert.Contains(t, listed, "3 events")

	deleted, err := execute(t, "delete", "--db", dbPath, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, "deleted run "+run.RunID+"\n", deleted)

	listed, err = execute(t, "runs", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "no runs recorded\n", listed)
}

func TestRunCommandMaxEvents(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir)
	dbPath := filepath.Join(dir, "runs.db")

	out, err := execute(t, "run",
		"--config", writeConfig(t, dir),
		"--db", dbPath,
		"--max-events", "1",
		filepath.Join(dir, "data", "a", "events.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, out, "event counts")

	db, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	runs, err := sqlite.NewRunStore(db.DB).List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Events)
	assert.Equal(t, 1, runs[0].Workers)
}

func TestRunRejectsBadFlags(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir)
	input := filepath.Join(dir, "data", "a", "events.jsonl")

	_, err := execute(t, "run", "--workers", "1000", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid flags")

	_, err = execute(t, "run", "--counting", "sometimes", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid flags")

	_, err = execute(t, "run", "--format", "root", input)
	require.Error(t, err)

	_, err = execute(t, "run")
	require.Error(t, err)
}

func TestRunFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir)

	// The config asks for per_event counting; the flag switches it back.
	run, err := runAnalysis(context.Background(), &bytes.Buffer{}, runFlags{
		configPath: writeConfig(t, dir),
		counting:   "per_invocation",
		maxEvents:  -1,
	}, []string{filepath.Join(dir, "data", "a", "events.jsonl")})
	require.NoError(t, err)

	assert.Equal(t, "per_invocation", run.PreselectionCounting)
	assert.Equal(t, "barrel_or_endcap", run.TightPhotonEtaMode)
	assert.Equal(t, 12.0, yieldsByRegion(run.Yields)[regions.Preselection])
	assert.Equal(t, 2.0, yieldsByRegion(run.Yields)[regions.SRI1])
}

func TestRunFlagsOverrides(t *testing.T) {
	assert.Equal(t, &config.SelectionConfig{}, runFlags{maxEvents: -1}.overrides())

	o := runFlags{etaMode: "barrel_or_endcap", degenerate: "fail", workers: 4, maxEvents: 0}.overrides()
	require.NotNil(t, o.TightPhotonEtaMode)
	assert.Equal(t, "barrel_or_endcap", *o.TightPhotonEtaMode)
	require.NotNil(t, o.DegenerateEvents)
	assert.Equal(t, "fail", *o.DegenerateEvents)
	require.NotNil(t, o.Workers)
	assert.Equal(t, 4, *o.Workers)
	require.NotNil(t, o.MaxEvents)
	assert.Equal(t, 0, *o.MaxEvents)
	assert.Nil(t, o.PreselectionCounting)
}

func TestRunMissingInput(t *testing.T) {
	_, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir)

	got, err := expandInputs([]string{filepath.Join(dir, "data", "**", "*.jsonl")})
	require.NoError(t, err)
	want := []string{
		filepath.Join(dir, "data", "a", "events.jsonl"),
		filepath.Join(dir, "data", "b", "events.jsonl"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("expandInputs mismatch (-want +got):\n%s", diff)
	}

	literal := filepath.Join(dir, "not-there.jsonl")
	got, err = expandInputs([]string{literal})
	require.NoError(t, err)
	assert.Equal(t, []string{literal}, got)

	_, err = expandInputs([]string{filepath.Join(dir, "*.lcio")})
	assert.ErrorIs(t, err, errNoInputs)
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	out, err := execute(t, "migrate", "--db", dbPath, "version")
	require.NoError(t, err)
	assert.Equal(t, "schema version 0 (dirty: false)\n", out)

	out, err = execute(t, "migrate", "--db", dbPath, "up")
	require.NoError(t, err)
	assert.Equal(t, "schema version 2 (dirty: false)\n", out)

	out, err = execute(t, "migrate", "--db", dbPath, "down")
	require.NoError(t, err)
	assert.Equal(t, "schema version 1 (dirty: false)\n", out)

	_, err = execute(t, "migrate", "--db", dbPath, "sideways")
	assert.Error(t, err)
}

func TestStoreCommandsNeedDB(t *testing.T) {
	for _, args := range [][]string{
		{"runs"},
		{"show", "some-id"},
		{"delete", "some-id"},
		{"migrate", "up"},
	} {
		_, err := execute(t, args...)
		assert.ErrorIs(t, err, errNoDB, "args %v", args)
	}
}

func TestShowUnknownRun(t *testing.T) {
	_, err := execute(t, "show", "--db", filepath.Join(t.TempDir(), "runs.db"), "nope")
	assert.ErrorIs(t, err, sqlite.ErrRunNotFound)
}

func TestStoredFlows(t *testing.T) {
	steps := []sqlite.CutFlowStep{
		{Region: "preselection", Step: 1, Label: "none", SumW: 4, SumW2: 4},
		{Region: "preselection", Step: 2, Label: "size(tightphotons) > 0", SumW: 2, SumW2: 2},
		{Region: "SRE1", Step: 1, Label: "none", SumW: 2, SumW2: 2},
	}
	want := []regions.Flow{
		{Region: "preselection", Steps: []regions.Accumulator{
			{Name: "none", SumW: 4, SumW2: 4},
			{Name: "size(tightphotons) > 0", SumW: 2, SumW2: 2},
		}},
		{Region: "SRE1", Steps: []regions.Accumulator{{Name: "none", SumW: 2, SumW2: 2}}},
	}
	if diff := cmp.Diff(want, storedFlows(steps)); diff != "" {
		t.Errorf("storedFlows mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, storedFlows(nil))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "monophoton dev"))
}
