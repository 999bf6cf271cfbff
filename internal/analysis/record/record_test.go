package record

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticleGetSet(t *testing.T) {
	p := NewParticle(42, -1.2, 0.5)

	pt, err := p.Get(AttrPt)
	require.NoError(t, err)
	assert.Equal(t, 42.0, pt)

	_, err = p.Get("drje")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAttributeNotFound))
	assert.Contains(t, err.Error(), "drje")

	p.Set("drje", 0.3)
	v, err := p.Get("drje")
	require.NoError(t, err)
	assert.Equal(t, 0.3, v)

	p.Set("drje", 0.7)
	v, _ = p.Get("drje")
	assert.Equal(t, 0.7, v, "Set overwrites")
}

func TestParticleAbsEta(t *testing.T) {
	p := NewParticle(10, -2.1, 0)
	v, err := p.Get(AttrAbsEta)
	require.NoError(t, err)
	assert.Equal(t, 2.1, v)

	p.Set(AttrAbsEta, 5)
	v, _ = p.Get(AttrAbsEta)
	assert.Equal(t, 5.0, v, "explicit |eta| wins over derived value")

	empty := FromAttributes(nil)
	_, err = empty.Get(AttrAbsEta)
	assert.ErrorIs(t, err, ErrAttributeNotFound)
}

func TestParticleNilGet(t *testing.T) {
	var p *Particle
	_, err := p.Get(AttrPt)
	assert.ErrorIs(t, err, ErrAttributeNotFound)
}

func TestParticleCloneIsIndependent(t *testing.T) {
	p := NewParticle(1, 2, 3)
	c := p.Clone()
	c.Set(AttrPt, 99)
	c.Set("extra", 1)

	pt, _ := p.Get(AttrPt)
	assert.Equal(t, 1.0, pt)
	assert.False(t, p.Has("extra"))
	assert.Equal(t, []string{"eta", "extra", "phi", "pt"}, c.Names())
}

func TestParticleP4(t *testing.T) {
	p := NewParticle(50, 0.3, -1.0)
	v, err := p.P4()
	require.NoError(t, err)
	assert.InDelta(t, 50, v.Pt(), 1e-9)
	assert.InDelta(t, 0.3, v.Eta(), 1e-9)
	assert.InDelta(t, -1.0, v.Phi(), 1e-9)
	assert.InDelta(t, 0, v.M(), 1e-9)

	_, err = FromAttributes(map[string]float64{"pt": 1}).P4()
	assert.ErrorIs(t, err, ErrAttributeNotFound)
}

func TestCollectionHelpers(t *testing.T) {
	var empty Collection
	assert.Nil(t, empty.Leading())
	assert.Nil(t, empty.Clone())
	assert.Len(t, Single(nil), 0)

	a := NewParticle(1, 0, 0)
	c := Collection{a, NewParticle(2, 0, 0)}
	assert.Same(t, a, c.Leading())

	cl := c.Clone()
	require.Len(t, cl, 2)
	assert.NotSame(t, a, cl[0])
	pt, _ := cl[1].Get(AttrPt)
	assert.Equal(t, 2.0, pt)
	assert.False(t, math.IsNaN(pt))
}
