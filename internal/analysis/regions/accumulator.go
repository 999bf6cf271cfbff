package regions

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Accumulator holds the weighted count of one region or cut-flow step.
type Accumulator struct {
	Name  string
	SumW  float64
	SumW2 float64
}

// Add records one passing event of weight w.
func (a *Accumulator) Add(w float64) {
	a.SumW += w
	a.SumW2 += w * w
}

// Uncertainty is sqrt(sum of squared weights).
func (a Accumulator) Uncertainty() float64 {
	return math.Sqrt(a.SumW2)
}

// Total reduces several accumulators for the same quantity into one.
// Sums commute and associate, so the order of parts does not matter.
func Total(name string, parts []Accumulator) Accumulator {
	w := make([]float64, len(parts))
	w2 := make([]float64, len(parts))
	for i, p := range parts {
		w[i] = p.SumW
		w2[i] = p.SumW2
	}
	return Accumulator{Name: name, SumW: floats.Sum(w), SumW2: floats.Sum(w2)}
}
