package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical selection defaults file.
const DefaultConfigPath = "config/selection.defaults.json"

// EnvPrefix prefixes every environment override, e.g.
// MONOPHOTON_PRESELECTION_COUNTING=per_event.
const EnvPrefix = "MONOPHOTON"

// Values accepted by the mode switches.
const (
	EtaModeLiteralAnd      = "literal_and"
	EtaModeBarrelOrEndcap  = "barrel_or_endcap"
	CountingPerInvocation  = "per_invocation"
	CountingPerEvent       = "per_event"
	DegenerateSkip         = "skip"
	DegenerateFail         = "fail"
	defaultMETBins         = 40
	defaultMETMax          = 1000.0
	defaultPhotonPtBins    = 40
	defaultPhotonPtMax     = 1000.0
	maxConfigFileSizeBytes = 1 * 1024 * 1024
)

// SelectionConfig holds the run switches. Every field is optional; the
// Get* accessors supply the default for unset fields, so partial files
// are safe.
type SelectionConfig struct {
	// Analysis switches
	TightPhotonEtaMode   *string `json:"tight_photon_eta_mode,omitempty" yaml:"tight_photon_eta_mode,omitempty" envconfig:"TIGHT_PHOTON_ETA_MODE" validate:"omitempty,oneof=literal_and barrel_or_endcap"`
	PreselectionCounting *string `json:"preselection_counting,omitempty" yaml:"preselection_counting,omitempty" envconfig:"PRESELECTION_COUNTING" validate:"omitempty,oneof=per_invocation per_event"`
	DegenerateEvents     *string `json:"degenerate_events,omitempty" yaml:"degenerate_events,omitempty" envconfig:"DEGENERATE_EVENTS" validate:"omitempty,oneof=skip fail"`

	// Run params
	Workers   *int `json:"workers,omitempty" yaml:"workers,omitempty" envconfig:"WORKERS" validate:"omitempty,min=1,max=256"`
	MaxEvents *int `json:"max_events,omitempty" yaml:"max_events,omitempty" envconfig:"MAX_EVENTS" validate:"omitempty,min=0"`

	// Histogram binning
	METBins      *int     `json:"met_bins,omitempty" yaml:"met_bins,omitempty" envconfig:"MET_BINS" validate:"omitempty,min=1,max=10000"`
	METMax       *float64 `json:"met_max,omitempty" yaml:"met_max,omitempty" envconfig:"MET_MAX" validate:"omitempty,gt=0"`
	PhotonPtBins *int     `json:"photon_pt_bins,omitempty" yaml:"photon_pt_bins,omitempty" envconfig:"PHOTON_PT_BINS" validate:"omitempty,min=1,max=10000"`
	PhotonPtMax  *float64 `json:"photon_pt_max,omitempty" yaml:"photon_pt_max,omitempty" envconfig:"PHOTON_PT_MAX" validate:"omitempty,gt=0"`
}

func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrFloat64(v float64) *float64 { return &v }

// EmptySelectionConfig returns a SelectionConfig with all fields unset.
func EmptySelectionConfig() *SelectionConfig {
	return &SelectionConfig{}
}

// DefaultSelectionConfig returns a config with every field set to the
// value its accessor would default to.
func DefaultSelectionConfig() *SelectionConfig {
	return &SelectionConfig{
		TightPhotonEtaMode:   ptrString(EtaModeLiteralAnd),
		PreselectionCounting: ptrString(CountingPerInvocation),
		DegenerateEvents:     ptrString(DegenerateSkip),
		Workers:              ptrInt(1),
		MaxEvents:            ptrInt(0),
		METBins:              ptrInt(defaultMETBins),
		METMax:               ptrFloat64(defaultMETMax),
		PhotonPtBins:         ptrInt(defaultPhotonPtBins),
		PhotonPtMax:          ptrFloat64(defaultPhotonPtMax),
	}
}

// LoadSelectionConfig loads a config from a .json, .yaml or .yml file no
// larger than 1MB.
func LoadSelectionConfig(path string) (*SelectionConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSizeBytes {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSizeBytes)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySelectionConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Load reads path (if non-empty), applies MONOPHOTON_* environment
// overrides on top and validates the result.
func Load(path string) (*SelectionConfig, error) {
	cfg := EmptySelectionConfig()
	if path != "" {
		var err error
		if cfg, err = LoadSelectionConfig(path); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory
// or one of its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *SelectionConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/analysis/pipeline/
	}
	for _, path := range candidates {
		if cfg, err := LoadSelectionConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

var validate = validator.New()

// Validate checks the set fields against their struct tags.
func (c *SelectionConfig) Validate() error {
	return validate.Struct(c)
}

// Merge copies the set fields of other over c.
func (c *SelectionConfig) Merge(other *SelectionConfig) {
	if other == nil {
		return
	}
	if other.TightPhotonEtaMode != nil {
		c.TightPhotonEtaMode = other.TightPhotonEtaMode
	}
	if other.PreselectionCounting != nil {
		c.PreselectionCounting = other.PreselectionCounting
	}
	if other.DegenerateEvents != nil {
		c.DegenerateEvents = other.DegenerateEvents
	}
	if other.Workers != nil {
		c.Workers = other.Workers
	}
	if other.MaxEvents != nil {
		c.MaxEvents = other.MaxEvents
	}
	if other.METBins != nil {
		c.METBins = other.METBins
	}
	if other.METMax != nil {
		c.METMax = other.METMax
	}
	if other.PhotonPtBins != nil {
		c.PhotonPtBins = other.PhotonPtBins
	}
	if other.PhotonPtMax != nil {
		c.PhotonPtMax = other.PhotonPtMax
	}
}

// GetTightPhotonEtaMode returns tight_photon_eta_mode or the default.
func (c *SelectionConfig) GetTightPhotonEtaMode() string {
	if c.TightPhotonEtaMode == nil || *c.TightPhotonEtaMode == "" {
		return EtaModeLiteralAnd
	}
	return *c.TightPhotonEtaMode
}

// GetPreselectionCounting returns preselection_counting or the default.
func (c *SelectionConfig) GetPreselectionCounting() string {
	if c.PreselectionCounting == nil || *c.PreselectionCounting == "" {
		return CountingPerInvocation
	}
	return *c.PreselectionCounting
}

// GetDegenerateEvents returns degenerate_events or the default.
func (c *SelectionConfig) GetDegenerateEvents() string {
	if c.DegenerateEvents == nil || *c.DegenerateEvents == "" {
		return DegenerateSkip
	}
	return *c.DegenerateEvents
}

func (c *SelectionConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

func (c *SelectionConfig) GetMaxEvents() int {
	if c.MaxEvents == nil {
		return 0
	}
	return *c.MaxEvents
}

func (c *SelectionConfig) GetMETBins() int {
	if c.METBins == nil {
		return defaultMETBins
	}
	return *c.METBins
}

func (c *SelectionConfig) GetMETMax() float64 {
	if c.METMax == nil {
		return defaultMETMax
	}
	return *c.METMax
}

func (c *SelectionConfig) GetPhotonPtBins() int {
	if c.PhotonPtBins == nil {
		return defaultPhotonPtBins
	}
	return *c.PhotonPtBins
}

func (c *SelectionConfig) GetPhotonPtMax() float64 {
	if c.PhotonPtMax == nil {
		return defaultPhotonPtMax
	}
	return *c.PhotonPtMax
}
