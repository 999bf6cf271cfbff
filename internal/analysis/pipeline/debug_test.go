package pipeline

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/monophoton/internal/analysis/record"
	"github.com/banshee-data/monophoton/internal/analysis/variables"
)

func TestLogStreams(t *testing.T) {
	var ops, diag, trace bytes.Buffer
	SetLogWriters(&ops, &diag, &trace)
	defer SetLogWriters(nil, nil, nil)
	require.True(t, tracing())

	a := newAnalysis(t, Options{Objects: barrelOrEndcap})
	require.NoError(t, a.ProcessEvent(monophoton(260, 1), 0))
	bad := monophoton(260, 1)
	bad.ScalarHT = record.Single(record.NewParticle(0, 0, 0))
	require.NoError(t, a.ProcessEvent(bad, 1))

	assert.Contains(t, trace.String(), "[pipeline] ")
	assert.Contains(t, trace.String(), "event 0: tightphotons has 1 objects")
	assert.Contains(t, ops.String(), "skipping event 1 at stage "+variables.METOverSqrtSumET)
	assert.NotContains(t, ops.String(), "event 0")
	assert.Empty(t, diag.String())
}

func TestTraceOffSkipsObserver(t *testing.T) {
	var ops bytes.Buffer
	SetLogWriters(&ops, nil, nil)
	defer SetLogWriters(nil, nil, nil)
	assert.False(t, tracing())

	a := newAnalysis(t, Options{Objects: barrelOrEndcap})
	require.NoError(t, a.ProcessEvent(monophoton(260, 1), 0))
	assert.Empty(t, ops.String())
}
