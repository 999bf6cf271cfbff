package objects

import (
	"fmt"

	"github.com/banshee-data/monophoton/internal/analysis/kinematics"
	"github.com/banshee-data/monophoton/internal/analysis/record"
)

// BuildFunc produces one collection from collections already in the arena.
type BuildFunc func(ev *Event) (record.Collection, error)

// Builder is one named step of the object pipeline. Inputs lists every
// collection Build reads; Validate relies on it being complete.
type Builder struct {
	Name   string
	Inputs []string
	Build  BuildFunc
}

// Overlap rejects a candidate that lies closer than MinDR to any record
// of the Reference collection. The last computed separation is attached
// to the candidate under Attr.
type Overlap struct {
	Reference string
	Attr      string
	MinDR     float64
}

// keep scans the reference records in order and stops at the first one
// that is too close.
func (o Overlap) keep(p *record.Particle, refs record.Collection) (bool, error) {
	for _, q := range refs {
		dr, err := kinematics.ParticleDeltaR(p, q)
		if err != nil {
			return false, err
		}
		p.Set(o.Attr, dr)
		if dr < o.MinDR {
			return false, nil
		}
	}
	return true, nil
}

// METSeparation rejects a candidate whose |dphi| to the MET object is
// below MinDPhi. The value is attached under Attr.
type METSeparation struct {
	MET     string
	Attr    string
	MinDPhi float64
}

func (m METSeparation) keep(p, met *record.Particle) (bool, error) {
	dphi, err := kinematics.ParticleDeltaPhi(p, met)
	if err != nil {
		return false, err
	}
	p.Set(m.Attr, dphi)
	return dphi >= m.MinDPhi, nil
}

// PassThrough copies a singleton object unchanged.
func PassThrough(name, input string) Builder {
	return Builder{
		Name:   name,
		Inputs: []string{input},
		Build: func(ev *Event) (record.Collection, error) {
			p, err := ev.Single(input)
			if err != nil {
				return nil, err
			}
			return record.Collection{p.Clone()}, nil
		},
	}
}

// Select keeps each input record for which every condition holds.
func Select(name, input string, conds ...Condition) Builder {
	return Combined(name, input, conds, nil, nil)
}

// Clean keeps each input record that does not overlap the reference.
func Clean(name, input string, o Overlap) Builder {
	return Combined(name, input, nil, &o, nil)
}

// Combined applies, in order, the threshold conditions, the overlap
// removal and the MET separation. Any of the three may be omitted.
func Combined(name, input string, conds []Condition, o *Overlap, m *METSeparation) Builder {
	inputs := []string{input}
	if o != nil {
		inputs = append(inputs, o.Reference)
	}
	if m != nil {
		inputs = append(inputs, m.MET)
	}
	sel := AllOf(conds)
	return Builder{
		Name:   name,
		Inputs: inputs,
		Build: func(ev *Event) (record.Collection, error) {
			in, err := ev.Collection(input)
			if err != nil {
				return nil, err
			}
			var refs record.Collection
			if o != nil {
				if refs, err = ev.Collection(o.Reference); err != nil {
					return nil, err
				}
			}
			var met *record.Particle
			if m != nil {
				if met, err = ev.Single(m.MET); err != nil {
					return nil, err
				}
			}

			out := make(record.Collection, 0, len(in))
			for i, p := range in {
				ok, err := sel.Holds(p)
				if err != nil {
					return nil, fmt.Errorf("%s[%d]: %w", input, i, err)
				}
				if !ok {
					continue
				}
				if o != nil {
					if ok, err = o.keep(p, refs); err != nil {
						return nil, fmt.Errorf("%s[%d] vs %s: %w", input, i, o.Reference, err)
					}
					if !ok {
						continue
					}
				}
				if m != nil {
					if ok, err = m.keep(p, met); err != nil {
						return nil, fmt.Errorf("%s[%d] vs %s: %w", input, i, m.MET, err)
					}
					if !ok {
						continue
					}
				}
				out = append(out, p.Clone())
			}
			return out, nil
		},
	}
}
