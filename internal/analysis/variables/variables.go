// Package variables owns Layer 4 of the analysis data model: scalar
// event variables computed once per event from finished collections.
package variables

import (
	"fmt"

	"github.com/banshee-data/monophoton/internal/analysis/kinematics"
	"github.com/banshee-data/monophoton/internal/analysis/objects"
	"github.com/banshee-data/monophoton/internal/analysis/record"
)

// METOverSqrtSumET is the name of the MET significance variable.
const METOverSqrtSumET = "METoverSqrtSumET_"

// Variable is one named event-level scalar.
type Variable struct {
	Name    string
	Inputs  []string
	Compute func(ev *objects.Event) (float64, error)
}

// Set is the ordered list of event variables.
type Set []Variable

// Default returns the variables used by the region predicates.
func Default() Set {
	return Set{
		{
			Name:   METOverSqrtSumET,
			Inputs: []string{objects.MET, objects.ScalarHT},
			Compute: func(ev *objects.Event) (float64, error) {
				met, err := ev.Single(objects.MET)
				if err != nil {
					return 0, err
				}
				ht, err := ev.Single(objects.ScalarHT)
				if err != nil {
					return 0, err
				}
				sumET, err := ht.Get(record.AttrPt)
				if err != nil {
					return 0, err
				}
				return kinematics.METOverSqrtSumET(met, sumET)
			},
		},
	}
}

// Validate checks that every input collection is available.
func (s Set) Validate(collections []string) error {
	avail := make(map[string]bool, len(collections))
	for _, c := range collections {
		avail[c] = true
	}
	seen := make(map[string]bool, len(s))
	for _, v := range s {
		if v.Compute == nil {
			return fmt.Errorf("%w: variable %s has no compute func", objects.ErrInvalidPipeline, v.Name)
		}
		if seen[v.Name] {
			return fmt.Errorf("%w: variable %s defined twice", objects.ErrInvalidPipeline, v.Name)
		}
		seen[v.Name] = true
		for _, in := range v.Inputs {
			if !avail[in] {
				return fmt.Errorf("%w: variable %s reads unknown collection %s", objects.ErrInvalidPipeline, v.Name, in)
			}
		}
	}
	return nil
}

// Compute evaluates every variable and stores it in the arena.
func (s Set) Compute(ev *objects.Event) error {
	for _, v := range s {
		x, err := v.Compute(ev)
		if err != nil {
			return &objects.StageError{Event: ev.Index, Stage: v.Name, Err: err}
		}
		ev.SetVar(v.Name, x)
	}
	return nil
}
