package record

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go-hep.org/x/hep/fmom"
)

// Well-known attribute names.
const (
	AttrPt     = "pt"
	AttrEta    = "eta"
	AttrAbsEta = "|eta|"
	AttrPhi    = "phi"
	AttrMass   = "m"
)

// ErrAttributeNotFound is returned by Get when the attribute was never set
// on the record. Reading an unset attribute means a builder ran out of
// order, so callers treat it as fatal.
var ErrAttributeNotFound = errors.New("attribute not found")

// Particle is one reconstructed object: a set of named float attributes.
type Particle struct {
	attrs map[string]float64
}

// NewParticle creates a record holding the standard kinematic attributes.
func NewParticle(pt, eta, phi float64) *Particle {
	p := &Particle{attrs: make(map[string]float64, 8)}
	p.attrs[AttrPt] = pt
	p.attrs[AttrEta] = eta
	p.attrs[AttrPhi] = phi
	return p
}

// FromAttributes creates a record from an attribute map. The map is copied.
func FromAttributes(attrs map[string]float64) *Particle {
	p := &Particle{attrs: make(map[string]float64, len(attrs)+4)}
	for k, v := range attrs {
		p.attrs[k] = v
	}
	return p
}

// Get returns the named attribute. The derived key "|eta|" is computed
// from "eta" unless it was set explicitly.
func (p *Particle) Get(name string) (float64, error) {
	if p == nil {
		return 0, fmt.Errorf("%w: %q on nil record", ErrAttributeNotFound, name)
	}
	if v, ok := p.attrs[name]; ok {
		return v, nil
	}
	if name == AttrAbsEta {
		if eta, ok := p.attrs[AttrEta]; ok {
			return math.Abs(eta), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrAttributeNotFound, name)
}

// Set attaches or overwrites an attribute.
func (p *Particle) Set(name string, v float64) {
	if p.attrs == nil {
		p.attrs = make(map[string]float64, 8)
	}
	p.attrs[name] = v
}

// Has reports whether the attribute was set.
func (p *Particle) Has(name string) bool {
	_, ok := p.attrs[name]
	return ok
}

// Names returns the attribute names in sorted order.
func (p *Particle) Names() []string {
	names := make([]string, 0, len(p.attrs))
	for k := range p.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the record.
func (p *Particle) Clone() *Particle {
	return FromAttributes(p.attrs)
}

// P4 returns the record as a four-vector. Mass defaults to zero when the
// record carries no "m" attribute.
func (p *Particle) P4() (fmom.PtEtaPhiM, error) {
	pt, err := p.Get(AttrPt)
	if err != nil {
		return fmom.PtEtaPhiM{}, err
	}
	eta, err := p.Get(AttrEta)
	if err != nil {
		return fmom.PtEtaPhiM{}, err
	}
	phi, err := p.Get(AttrPhi)
	if err != nil {
		return fmom.PtEtaPhiM{}, err
	}
	m := p.attrs[AttrMass]
	return fmom.NewPtEtaPhiM(pt, eta, phi, m), nil
}

func (p *Particle) String() string {
	return fmt.Sprintf("Particle{pt=%.3f eta=%.3f phi=%.3f attrs=%d}",
		p.attrs[AttrPt], p.attrs[AttrEta], p.attrs[AttrPhi], len(p.attrs))
}
