package kinematics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/monophoton/internal/analysis/record"
)

// ErrDegenerateInput marks inputs for which a quantity is undefined, such
// as a non-positive scalar ET sum. Callers decide whether the event is
// skipped or the run aborted; the value is never silently NaN or Inf.
var ErrDegenerateInput = errors.New("degenerate input")

// SignedDeltaPhi returns phi1-phi2 wrapped into (-pi, pi].
func SignedDeltaPhi(phi1, phi2 float64) float64 {
	d := math.Remainder(phi1-phi2, 2*math.Pi)
	if d == -math.Pi {
		return math.Pi
	}
	return d
}

// DeltaPhi returns the absolute wrapped azimuthal difference, in [0, pi].
func DeltaPhi(phi1, phi2 float64) float64 {
	return math.Abs(SignedDeltaPhi(phi1, phi2))
}

// DeltaR returns the angular separation in (eta, phi) space.
func DeltaR(eta1, phi1, eta2, phi2 float64) float64 {
	return math.Hypot(eta1-eta2, SignedDeltaPhi(phi1, phi2))
}

// ParticleDeltaR is DeltaR between two records.
func ParticleDeltaR(a, b *record.Particle) (float64, error) {
	eta1, err := a.Get(record.AttrEta)
	if err != nil {
		return 0, err
	}
	phi1, err := a.Get(record.AttrPhi)
	if err != nil {
		return 0, err
	}
	eta2, err := b.Get(record.AttrEta)
	if err != nil {
		return 0, err
	}
	phi2, err := b.Get(record.AttrPhi)
	if err != nil {
		return 0, err
	}
	return DeltaR(eta1, phi1, eta2, phi2), nil
}

// ParticleDeltaPhi is DeltaPhi between two records.
func ParticleDeltaPhi(a, b *record.Particle) (float64, error) {
	phi1, err := a.Get(record.AttrPhi)
	if err != nil {
		return 0, err
	}
	phi2, err := b.Get(record.AttrPhi)
	if err != nil {
		return 0, err
	}
	return DeltaPhi(phi1, phi2), nil
}

// Meff is the effective mass: scalar sum of jet pt plus MET pt.
// An empty jet collection contributes zero.
func Meff(jets record.Collection, met *record.Particle) (float64, error) {
	pts := make([]float64, 0, len(jets)+1)
	for i, j := range jets {
		v, err := j.P4()
		if err != nil {
			return 0, fmt.Errorf("jet %d: %w", i, err)
		}
		pts = append(pts, v.Pt())
	}
	v, err := met.P4()
	if err != nil {
		return 0, fmt.Errorf("met: %w", err)
	}
	pts = append(pts, v.Pt())
	return floats.Sum(pts), nil
}

// METOverSqrtSumET returns MET pt / sqrt(sumET). A sumET <= 0 or any
// non-finite input yields ErrDegenerateInput.
func METOverSqrtSumET(met *record.Particle, sumET float64) (float64, error) {
	pt, err := met.Get(record.AttrPt)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(sumET) || math.IsInf(sumET, 0) || math.IsNaN(pt) || math.IsInf(pt, 0) {
		return 0, fmt.Errorf("%w: met=%v sumET=%v", ErrDegenerateInput, pt, sumET)
	}
	if sumET <= 0 {
		return 0, fmt.Errorf("%w: scalar ET sum %v <= 0", ErrDegenerateInput, sumET)
	}
	return pt / math.Sqrt(sumET), nil
}
