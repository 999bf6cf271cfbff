package regions

import (
	"github.com/banshee-data/monophoton/internal/analysis/kinematics"
	"github.com/banshee-data/monophoton/internal/analysis/objects"
	"github.com/banshee-data/monophoton/internal/analysis/record"
	"github.com/banshee-data/monophoton/internal/analysis/variables"
)

// Region names.
const (
	Preselection = "preselection"
	SRE1         = "SRE1"
	SRE2         = "SRE2"
	SRI1         = "SRI1"
	SRI2         = "SRI2"
	SRI3         = "SRI3"
)

// Step is one condition of a region.
type Step struct {
	Label string
	Pass  func(ev *objects.Event) (bool, error)
}

// Region is a named chain of steps, optionally behind another region.
type Region struct {
	Name     string
	Requires string
	Steps    []Step
}

// Default returns the analysis regions in their declared order. That
// order is also the evaluation and summary order.
func Default() []Region {
	return []Region{
		{
			Name: Preselection,
			Steps: []Step{
				{"size(tightphotons) > 0", func(ev *objects.Event) (bool, error) {
					c, err := ev.Collection(objects.TightPhotons)
					return len(c) > 0, err
				}},
				{"tightphotons[0].pt > 150", func(ev *objects.Event) (bool, error) {
					c, err := ev.Collection(objects.TightPhotons)
					if err != nil {
						return false, err
					}
					pt, err := c.Leading().Get(record.AttrPt)
					return pt > 150, err
				}},
				{"dPhi(tightphotons[0], MET) > 0.4", func(ev *objects.Event) (bool, error) {
					c, err := ev.Collection(objects.TightPhotons)
					if err != nil {
						return false, err
					}
					met, err := ev.Single(objects.MET)
					if err != nil {
						return false, err
					}
					dphi, err := kinematics.ParticleDeltaPhi(c.Leading(), met)
					return dphi > 0.4, err
				}},
				{"METoverSqrtSumET_ > 8.5", func(ev *objects.Event) (bool, error) {
					v, err := ev.Var(variables.METOverSqrtSumET)
					return v > 8.5, err
				}},
				{"size(cleanmuons) == 0", isEmpty(objects.CleanMuons)},
				{"size(cleanelectrons) == 0", isEmpty(objects.CleanElectrons)},
			},
		},
		metWindow(SRE2, 225, 300),
		metAbove(SRI1, 150),
		metAbove(SRI2, 225),
		metAbove(SRI3, 300),
		metWindow(SRE1, 150, 225),
	}
}

func isEmpty(name string) func(ev *objects.Event) (bool, error) {
	return func(ev *objects.Event) (bool, error) {
		c, err := ev.Collection(name)
		return len(c) == 0 && err == nil, err
	}
}

func metPt(ev *objects.Event) (float64, error) {
	met, err := ev.Single(objects.MET)
	if err != nil {
		return 0, err
	}
	return met.Get(record.AttrPt)
}

func metWindow(name string, lo, hi float64) Region {
	return Region{
		Name:     name,
		Requires: Preselection,
		Steps: []Step{{
			Label: "MET.pt > " + ftoa(lo) + " and MET.pt < " + ftoa(hi),
			Pass: func(ev *objects.Event) (bool, error) {
				pt, err := metPt(ev)
				return pt > lo && pt < hi, err
			},
		}},
	}
}

func metAbove(name string, lo float64) Region {
	return Region{
		Name:     name,
		Requires: Preselection,
		Steps: []Step{{
			Label: "MET.pt > " + ftoa(lo),
			Pass: func(ev *objects.Event) (bool, error) {
				pt, err := metPt(ev)
				return pt > lo, err
			},
		}},
	}
}
