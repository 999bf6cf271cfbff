package kinematics

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/monophoton/internal/analysis/record"
)

var anglePairs = []struct{ eta1, phi1, eta2, phi2 float64 }{
	{0, 0, 0, 0},
	{0.5, 3.1, -0.5, -3.1},
	{1.2, math.Pi, 1.2, -math.Pi},
	{-2.4, 0.1, 2.4, 6.2},
	{0, 10 * math.Pi, 0, 0},
	{3.3, -7.5, -1.1, 2.2},
	{0.1, 1, 0.1, 1 + 2*math.Pi},
}

func TestDeltaRSymmetric(t *testing.T) {
	for _, c := range anglePairs {
		ab := DeltaR(c.eta1, c.phi1, c.eta2, c.phi2)
		ba := DeltaR(c.eta2, c.phi2, c.eta1, c.phi1)
		assert.Equal(t, ab, ba, "DeltaR(%v) not symmetric", c)
		assert.GreaterOrEqual(t, ab, 0.0)
	}
}

func TestDeltaRZero(t *testing.T) {
	assert.Equal(t, 0.0, DeltaR(1.1, 0.4, 1.1, 0.4))
	// pi and -pi are the same direction.
	assert.InDelta(t, 0, DeltaR(0, math.Pi, 0, -math.Pi), 1e-12)
	assert.InDelta(t, 0, DeltaR(0.2, 1, 0.2, 1+2*math.Pi), 1e-12)
	assert.Greater(t, DeltaR(0, 0, 1e-9, 0), 0.0)
	assert.Greater(t, DeltaR(0, 0, 0, 1e-9), 0.0)
}

func TestDeltaRWrapsAcrossBoundary(t *testing.T) {
	// 3.1 and -3.1 are 2pi-6.2 apart, not 6.2.
	got := DeltaR(0, 3.1, 0, -3.1)
	assert.InDelta(t, 2*math.Pi-6.2, got, 1e-12)
}

func TestDeltaPhiRange(t *testing.T) {
	for _, c := range anglePairs {
		d := DeltaPhi(c.phi1, c.phi2)
		assert.GreaterOrEqual(t, d, 0.0)
		assert.LessOrEqual(t, d, math.Pi)

		s := SignedDeltaPhi(c.phi1, c.phi2)
		assert.Greater(t, s, -math.Pi)
		assert.LessOrEqual(t, s, math.Pi)
	}
	for _, x := range []float64{-7, -math.Pi, 0, 1.5, math.Pi, 42} {
		assert.Equal(t, 0.0, DeltaPhi(x, x))
	}
	assert.Equal(t, math.Pi, SignedDeltaPhi(0, math.Pi))
	assert.Equal(t, math.Pi, SignedDeltaPhi(math.Pi, 0))
}

func TestParticleHelpers(t *testing.T) {
	a := record.NewParticle(10, 0, 0)
	b := record.NewParticle(10, 0, 1.0)

	dr, err := ParticleDeltaR(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, dr, 1e-12)

	dphi, err := ParticleDeltaPhi(b, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, dphi, 1e-12)

	broken := record.FromAttributes(map[string]float64{"pt": 1})
	_, err = ParticleDeltaR(a, broken)
	assert.ErrorIs(t, err, record.ErrAttributeNotFound)
	_, err = ParticleDeltaPhi(broken, a)
	assert.ErrorIs(t, err, record.ErrAttributeNotFound)
}

func TestMeff(t *testing.T) {
	met := record.NewParticle(120, 0, 0)

	m, err := Meff(nil, met)
	require.NoError(t, err)
	assert.InDelta(t, 120, m, 1e-9)

	jets := record.Collection{record.NewParticle(40, 0.5, 1), record.NewParticle(35, -1.5, 2)}
	m, err = Meff(jets, met)
	require.NoError(t, err)
	assert.InDelta(t, 195, m, 1e-9)
}

func TestMETOverSqrtSumET(t *testing.T) {
	met := record.NewParticle(100, 0, 0)

	v, err := METOverSqrtSumET(met, 400)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, v, 1e-12)

	for _, sum := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := METOverSqrtSumET(met, sum)
		assert.True(t, errors.Is(err, ErrDegenerateInput), "sumET=%v", sum)
	}

	_, err = METOverSqrtSumET(record.FromAttributes(nil), 1)
	assert.ErrorIs(t, err, record.ErrAttributeNotFound)
}
