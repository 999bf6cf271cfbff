package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSelectionConfig(t *testing.T) {
	cfg := DefaultSelectionConfig()
	empty := EmptySelectionConfig()

	if cfg.GetTightPhotonEtaMode() != empty.GetTightPhotonEtaMode() {
		t.Errorf("GetTightPhotonEtaMode() = %q, want %q", cfg.GetTightPhotonEtaMode(), empty.GetTightPhotonEtaMode())
	}
	if cfg.GetPreselectionCounting() != CountingPerInvocation {
		t.Errorf("GetPreselectionCounting() = %q, want %q", cfg.GetPreselectionCounting(), CountingPerInvocation)
	}
	if cfg.GetDegenerateEvents() != DegenerateSkip {
		t.Errorf("GetDegenerateEvents() = %q, want %q", cfg.GetDegenerateEvents(), DegenerateSkip)
	}
	if cfg.GetWorkers() != 1 || empty.GetWorkers() != 1 {
		t.Errorf("GetWorkers() = %d/%d, want 1", cfg.GetWorkers(), empty.GetWorkers())
	}
	if cfg.GetMETBins() != empty.GetMETBins() || cfg.GetMETMax() != empty.GetMETMax() {
		t.Errorf("MET binning defaults disagree")
	}
	if cfg.GetPhotonPtBins() != empty.GetPhotonPtBins() || cfg.GetPhotonPtMax() != empty.GetPhotonPtMax() {
		t.Errorf("photon pt binning defaults disagree")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	assert.Equal(t, DefaultSelectionConfig(), cfg)
}

func TestLoadSelectionConfigJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	data := `{"tight_photon_eta_mode": "barrel_or_endcap", "workers": 4, "met_max": 600}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadSelectionConfig(path)
	require.NoError(t, err)
	assert.Equal(t, EtaModeBarrelOrEndcap, cfg.GetTightPhotonEtaMode())
	assert.Equal(t, 4, cfg.GetWorkers())
	assert.Equal(t, 600.0, cfg.GetMETMax())
	assert.Nil(t, cfg.PreselectionCounting, "omitted fields stay unset")
	assert.Equal(t, CountingPerInvocation, cfg.GetPreselectionCounting())
}

func TestLoadSelectionConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := "preselection_counting: per_event\ndegenerate_events: fail\nphoton_pt_bins: 25\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadSelectionConfig(path)
	require.NoError(t, err)
	assert.Equal(t, CountingPerEvent, cfg.GetPreselectionCounting())
	assert.Equal(t, DegenerateFail, cfg.GetDegenerateEvents())
	assert.Equal(t, 25, cfg.GetPhotonPtBins())
}

func TestLoadSelectionConfigErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, data string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
		return p
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "nope.json")},
		{"extension", write("run.toml", "workers = 2")},
		{"bad json", write("bad.json", `{"workers": "two"`)},
		{"bad yaml", write("bad.yaml", "workers: [1")},
		{"unknown mode", write("mode.json", `{"tight_photon_eta_mode": "either"}`)},
		{"unknown counting", write("count.yml", "preselection_counting: twice\n")},
		{"zero workers", write("workers.json", `{"workers": 0}`)},
		{"negative met max", write("met.json", `{"met_max": -1}`)},
		{"too large", write("large.json", string(make([]byte, 2*maxConfigFileSizeBytes)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadSelectionConfig(tt.path); err == nil {
				t.Errorf("LoadSelectionConfig(%s) succeeded, want error", filepath.Base(tt.path))
			}
		})
	}
}

func TestLoadAppliesEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"workers": 2, "preselection_counting": "per_event"}`), 0o644))

	t.Setenv("MONOPHOTON_WORKERS", "8")
	t.Setenv("MONOPHOTON_TIGHT_PHOTON_ETA_MODE", "barrel_or_endcap")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.GetWorkers(), "environment wins over file")
	assert.Equal(t, EtaModeBarrelOrEndcap, cfg.GetTightPhotonEtaMode())
	assert.Equal(t, CountingPerEvent, cfg.GetPreselectionCounting(), "file value kept")

	t.Setenv("MONOPHOTON_DEGENERATE_EVENTS", "ignore")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, EmptySelectionConfig(), cfg)
}

func TestMerge(t *testing.T) {
	base := DefaultSelectionConfig()
	base.Merge(&SelectionConfig{Workers: ptrInt(3), METMax: ptrFloat64(500)})
	assert.Equal(t, 3, base.GetWorkers())
	assert.Equal(t, 500.0, base.GetMETMax())
	assert.Equal(t, EtaModeLiteralAnd, base.GetTightPhotonEtaMode())

	base.Merge(nil)
	assert.Equal(t, 3, base.GetWorkers())
}
