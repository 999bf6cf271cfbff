package source

import (
	"context"
	"fmt"
	"io"
	"math"

	"go-hep.org/x/hep/fmom"
	"go-hep.org/x/hep/lcio"

	"github.com/banshee-data/monophoton/internal/analysis/record"
)

// Default LCIO collection names.
const (
	DefaultParticleCollection = "PandoraPFOs"
	DefaultJetCollection      = "Jets"
	WeightParameter           = "_weight"
)

// PDG identifiers used to classify reconstructed particles.
const (
	pdgElectron = 11
	pdgMuon     = 13
	pdgPhoton   = 22
)

// LCIOSource reads reconstructed particles from an LCIO file. Photons,
// electrons and muons are selected from the particle collection by PDG
// id, jets come from the jet collection, MET is the negative vector sum
// of every reconstructed particle and scalar HT is the sum of their pt.
type LCIOSource struct {
	r         *lcio.Reader
	Particles string
	Jets      string
}

// OpenLCIO opens an LCIO file with the default collection names.
func OpenLCIO(path string) (*LCIOSource, error) {
	r, err := lcio.Open(path)
	if err != nil {
		return nil, err
	}
	return &LCIOSource{r: r, Particles: DefaultParticleCollection, Jets: DefaultJetCollection}, nil
}

func (s *LCIOSource) Next(ctx context.Context) (*RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.r.Next() {
		if err := s.r.Err(); err != nil && err != io.EOF {
			return nil, err
		}
		return nil, io.EOF
	}
	evt := s.r.Event()
	return FromLCIO(&evt, s.Particles, s.Jets)
}

func (s *LCIOSource) Close() error { return s.r.Close() }

// FromLCIO converts one LCIO event. A missing jet collection yields no
// jets; a missing particle collection is an error.
func FromLCIO(evt *lcio.Event, particles, jets string) (*RawEvent, error) {
	if !evt.Has(particles) {
		return nil, fmt.Errorf("%w: event %d: no collection %q", ErrMalformedEvent, evt.EventNumber, particles)
	}
	parts, ok := evt.Get(particles).(*lcio.RecParticleContainer)
	if !ok {
		return nil, fmt.Errorf("%w: event %d: %q is not a reconstructed particle collection", ErrMalformedEvent, evt.EventNumber, particles)
	}

	ev := &RawEvent{
		Weight:    1,
		Photons:   record.Collection{},
		Muons:     record.Collection{},
		Jets:      record.Collection{},
		Electrons: record.Collection{},
	}
	if w, ok := evt.Params.Floats[WeightParameter]; ok && len(w) > 0 {
		ev.Weight = float64(w[0])
	}

	var missing fmom.PxPyPzE
	sumPt := 0.0
	for i := range parts.Parts {
		p := &parts.Parts[i]
		v := p4(p)
		missing = fmom.NewPxPyPzE(missing.Px()-v.Px(), missing.Py()-v.Py(), 0, 0)
		sumPt += v.Pt()
		rec := fromP4(v)
		switch abs(p.Type) {
		case pdgPhoton:
			ev.Photons = append(ev.Photons, rec)
		case pdgElectron:
			ev.Electrons = append(ev.Electrons, rec)
		case pdgMuon:
			ev.Muons = append(ev.Muons, rec)
		}
	}

	if evt.Has(jets) {
		jc, ok := evt.Get(jets).(*lcio.RecParticleContainer)
		if !ok {
			return nil, fmt.Errorf("%w: event %d: %q is not a reconstructed particle collection", ErrMalformedEvent, evt.EventNumber, jets)
		}
		for i := range jc.Parts {
			ev.Jets = append(ev.Jets, fromP4(p4(&jc.Parts[i])))
		}
	}

	met := record.NewParticle(missing.Pt(), 0, math.Atan2(missing.Py(), missing.Px()))
	ev.MET = record.Single(met)
	ev.ScalarHT = record.Single(record.NewParticle(sumPt, 0, 0))

	sortByPt(ev.Photons)
	sortByPt(ev.Electrons)
	sortByPt(ev.Muons)
	sortByPt(ev.Jets)
	return ev, nil
}

func p4(p *lcio.RecParticle) fmom.PxPyPzE {
	return fmom.NewPxPyPzE(float64(p.P[0]), float64(p.P[1]), float64(p.P[2]), float64(p.Energy))
}

func fromP4(v fmom.PxPyPzE) *record.Particle {
	eta := 0.0
	if v.Pt() > 0 {
		eta = v.Eta()
	}
	rec := record.NewParticle(v.Pt(), eta, v.Phi())
	if m := v.M(); m > 0 && !math.IsNaN(m) {
		rec.Set(record.AttrMass, m)
	}
	return rec
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
