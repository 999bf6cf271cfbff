package variables

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/monophoton/internal/analysis/kinematics"
	"github.com/banshee-data/monophoton/internal/analysis/objects"
	"github.com/banshee-data/monophoton/internal/analysis/record"
)

func eventWith(met, ht float64) *objects.Event {
	ev := objects.NewEvent(4, 1)
	ev.Put(objects.MET, record.Collection{record.NewParticle(met, 0, 0)})
	ev.Put(objects.ScalarHT, record.Collection{record.NewParticle(ht, 0, 0)})
	return ev
}

func TestDefaultComputesSignificance(t *testing.T) {
	ev := eventWith(100, 100)
	require.NoError(t, Default().Compute(ev))
	v, err := ev.Var(METOverSqrtSumET)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, v, 1e-12)
}

func TestDegenerateSumET(t *testing.T) {
	ev := eventWith(100, 0)
	err := Default().Compute(ev)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kinematics.ErrDegenerateInput))

	var se *objects.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 4, se.Event)
	assert.Equal(t, METOverSqrtSumET, se.Stage)

	_, err = ev.Var(METOverSqrtSumET)
	assert.ErrorIs(t, err, objects.ErrVariableNotFound, "failed variables are not stored")
}

func TestValidate(t *testing.T) {
	pl := objects.NewPipeline(objects.Options{})
	assert.NoError(t, Default().Validate(pl.Outputs()))
	assert.ErrorIs(t, Default().Validate([]string{objects.MET}), objects.ErrInvalidPipeline)

	dup := append(Default(), Default()...)
	assert.ErrorIs(t, dup.Validate(pl.Outputs()), objects.ErrInvalidPipeline)
	assert.ErrorIs(t, Set{{Name: "x"}}.Validate(nil), objects.ErrInvalidPipeline)
}
