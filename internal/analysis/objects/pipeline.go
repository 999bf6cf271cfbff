package objects

import (
	"errors"
	"fmt"

	"github.com/banshee-data/monophoton/internal/analysis/record"
)

// EtaWindowMode selects how the tight-photon barrel/end-cap window is
// combined.
type EtaWindowMode string

const (
	// EtaWindowLiteralAnd requires |eta| < 1.37 and 1.52 < |eta| < 2.37
	// together, as the published analysis code does. No photon can pass,
	// so every event fails preselection in this mode.
	EtaWindowLiteralAnd EtaWindowMode = "literal_and"
	// EtaWindowBarrelOrEndcap accepts the barrel (|eta| < 1.37) or the
	// end-cap (1.52 < |eta| < 2.37).
	EtaWindowBarrelOrEndcap EtaWindowMode = "barrel_or_endcap"
)

// Options holds the switches that alter the fixed builder chain.
type Options struct {
	TightPhotonEta EtaWindowMode
}

// StageError attributes a failure to an event and a named stage.
type StageError struct {
	Event int
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("event %d: stage %s: %v", e.Event, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ErrInvalidPipeline is wrapped by every Validate failure.
var ErrInvalidPipeline = errors.New("invalid pipeline")

// Pipeline is the ordered builder list.
type Pipeline struct {
	Builders []Builder
}

// TightPhotonCondition returns the eta window for the given mode.
func TightPhotonCondition(mode EtaWindowMode) Condition {
	endcap := AllOf{Above(record.AttrAbsEta, 1.52), Below(record.AttrAbsEta, 2.37)}
	barrel := Below(record.AttrAbsEta, 1.37)
	if mode == EtaWindowBarrelOrEndcap {
		return AnyOf{barrel, endcap}
	}
	return AllOf{barrel, endcap}
}

// NewPipeline returns the analysis builder chain in dependency order.
func NewPipeline(opts Options) Pipeline {
	return Pipeline{Builders: []Builder{
		PassThrough(ScalarHT, RawScalarHT),
		Select(Photons, RawPhotons, Above(record.AttrPt, 10), Below(record.AttrAbsEta, 2.37)),
		Select(Muons, RawMuons, Above(record.AttrPt, 6), Below(record.AttrAbsEta, 2.7)),
		Select(Jets, RawJets, Above(record.AttrPt, 20), Below(record.AttrAbsEta, 4.5)),
		PassThrough(MET, RawMET),
		Select(Electrons, RawElectrons, Above(record.AttrPt, 7), Below(record.AttrAbsEta, 2.47)),
		Select(TightPhotons, Photons, TightPhotonCondition(opts.TightPhotonEta)),
		Clean(CleanJets, Jets, Overlap{Reference: Electrons, Attr: "drje", MinDR: 0.2}),
		Clean(CleanElectrons, Electrons, Overlap{Reference: CleanJets, Attr: "drej", MinDR: 0.4}),
		Combined(JetsSR, CleanJets,
			[]Condition{Above(record.AttrPt, 30)},
			&Overlap{Reference: Photons, Attr: "drjp", MinDR: 0.4},
			&METSeparation{MET: MET, Attr: "dphijmet", MinDPhi: 0.4}),
		Clean(CleanMuons, Muons, Overlap{Reference: CleanJets, Attr: "drmuj", MinDR: 0.4}),
	}}
}

// Outputs lists the builder names in order.
func (pl Pipeline) Outputs() []string {
	names := make([]string, len(pl.Builders))
	for i, b := range pl.Builders {
		names[i] = b.Name
	}
	return names
}

// Validate checks that builder names are unique and that each builder
// reads only raw collections or outputs of earlier builders.
func (pl Pipeline) Validate(raw []string) error {
	avail := make(map[string]bool, len(raw)+len(pl.Builders))
	for _, r := range raw {
		avail[r] = true
	}
	for i, b := range pl.Builders {
		if b.Name == "" {
			return fmt.Errorf("%w: builder %d has no name", ErrInvalidPipeline, i)
		}
		if b.Build == nil {
			return fmt.Errorf("%w: builder %s has no build func", ErrInvalidPipeline, b.Name)
		}
		if avail[b.Name] {
			return fmt.Errorf("%w: builder %s redefines an existing collection", ErrInvalidPipeline, b.Name)
		}
		for _, in := range b.Inputs {
			if !avail[in] {
				return fmt.Errorf("%w: builder %s reads %s before it is built", ErrInvalidPipeline, b.Name, in)
			}
		}
		avail[b.Name] = true
	}
	return nil
}

// Run executes every builder against the arena in order. The observe
// callback, if non-nil, sees each finished collection.
func (pl Pipeline) Run(ev *Event, observe func(name string, c record.Collection)) error {
	for _, b := range pl.Builders {
		c, err := b.Build(ev)
		if err != nil {
			return &StageError{Event: ev.Index, Stage: b.Name, Err: err}
		}
		ev.Put(b.Name, c)
		if observe != nil {
			observe(b.Name, c)
		}
	}
	return nil
}
