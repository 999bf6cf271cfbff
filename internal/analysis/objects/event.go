package objects

import (
	"errors"
	"fmt"
	"sort"

	"github.com/banshee-data/monophoton/internal/analysis/record"
)

// Raw collection names supplied by the event adapter.
const (
	RawPhotons   = "Delphes_Photon"
	RawMuons     = "Delphes_Muon"
	RawJets      = "Delphes_Jet"
	RawElectrons = "Delphes_Electron"
	RawMET       = "Delphes_MissingET"
	RawScalarHT  = "Delphes_scalarHT"
)

// RawNames lists every raw collection the builder pipeline may read.
var RawNames = []string{RawPhotons, RawMuons, RawJets, RawElectrons, RawMET, RawScalarHT}

// Built collection names.
const (
	ScalarHT       = "scalarHT"
	Photons        = "photons"
	Muons          = "muons"
	Jets           = "jets"
	MET            = "MET"
	Electrons      = "electrons"
	TightPhotons   = "tightphotons"
	CleanJets      = "cleanjets"
	CleanElectrons = "cleanelectrons"
	JetsSR         = "jetsSR"
	CleanMuons     = "cleanmuons"
)

var (
	// ErrCollectionNotFound is returned when a stage reads a collection
	// that no earlier stage has written in this event.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrNotSingleton is returned when a singleton object (MET, scalarHT)
	// does not hold exactly one record.
	ErrNotSingleton = errors.New("expected exactly one record")
	// ErrVariableNotFound is returned for an unset event variable.
	ErrVariableNotFound = errors.New("variable not found")
)

// Event is the arena for one event. It owns every collection and event
// variable and is discarded once the regions have been evaluated.
type Event struct {
	Index  int
	Weight float64

	collections map[string]record.Collection
	variables   map[string]float64
}

// NewEvent creates an empty arena. The weight is taken as given; sources
// supply 1.0 when the input carries none.
func NewEvent(index int, weight float64) *Event {
	return &Event{
		Index:       index,
		Weight:      weight,
		collections: make(map[string]record.Collection, 20),
		variables:   make(map[string]float64, 4),
	}
}

// Put stores a collection under name, replacing any previous value.
func (e *Event) Put(name string, c record.Collection) {
	if c == nil {
		c = record.Collection{}
	}
	e.collections[name] = c
}

// Collection returns a previously stored collection.
func (e *Event) Collection(name string) (record.Collection, error) {
	c, ok := e.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
	}
	return c, nil
}

// Single returns the only record of a singleton collection.
func (e *Event) Single(name string) (*record.Particle, error) {
	c, err := e.Collection(name)
	if err != nil {
		return nil, err
	}
	if len(c) != 1 {
		return nil, fmt.Errorf("%w: %q has %d", ErrNotSingleton, name, len(c))
	}
	return c[0], nil
}

// Has reports whether name has been stored.
func (e *Event) Has(name string) bool {
	_, ok := e.collections[name]
	return ok
}

// Names returns the stored collection names in sorted order.
func (e *Event) Names() []string {
	names := make([]string, 0, len(e.collections))
	for k := range e.collections {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetVar stores an event variable.
func (e *Event) SetVar(name string, v float64) {
	e.variables[name] = v
}

// Var returns an event variable.
func (e *Event) Var(name string) (float64, error) {
	v, ok := e.variables[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrVariableNotFound, name)
	}
	return v, nil
}
