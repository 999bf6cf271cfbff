package pipeline

import (
	"errors"
	"fmt"

	"github.com/banshee-data/monophoton/internal/analysis/kinematics"
	"github.com/banshee-data/monophoton/internal/analysis/objects"
	"github.com/banshee-data/monophoton/internal/analysis/record"
	"github.com/banshee-data/monophoton/internal/analysis/regions"
	"github.com/banshee-data/monophoton/internal/analysis/variables"
	"github.com/banshee-data/monophoton/internal/source"
)

// StageError attributes a failure to an event and the builder, variable
// or region that raised it.
type StageError = objects.StageError

// DegeneratePolicy says what to do with an event whose data cannot be
// evaluated (zero scalar ET, non-finite values, a MET collection that is
// not a single record).
type DegeneratePolicy string

const (
	// SkipDegenerate drops the event, counts it and logs its index and
	// stage. The run continues.
	SkipDegenerate DegeneratePolicy = "skip"
	// FailDegenerate aborts the run on the first degenerate event.
	FailDegenerate DegeneratePolicy = "fail"
)

// ErrUnknownPolicy is returned by New for an unrecognised policy.
var ErrUnknownPolicy = errors.New("unknown degenerate-event policy")

// Options configures an Analysis.
type Options struct {
	Objects    objects.Options
	Counting   regions.CountingMode
	Degenerate DegeneratePolicy
	// Recorder, if set, is told about every processed and skipped event.
	Recorder Recorder
}

// Recorder receives per-event outcomes. Parallel runs share one Recorder
// across workers, so implementations must be safe for concurrent use.
// monitoring.Metrics implements it.
type Recorder interface {
	EventProcessed(weight float64)
	EventSkipped(stage string)
	RegionPassed(region string, weight float64)
}

// Stats counts the events seen by an Analysis.
type Stats struct {
	Events     int
	Skipped    int
	SumWeights float64
}

// Add folds other into s.
func (s *Stats) Add(other Stats) {
	s.Events += other.Events
	s.Skipped += other.Skipped
	s.SumWeights += other.SumWeights
}

// Analysis owns the pipeline definition and the accumulators of one run,
// or of one shard of a parallel run.
type Analysis struct {
	opts      Options
	pipeline  objects.Pipeline
	variables variables.Set
	selector  *regions.Selector
	stats     Stats
}

// New validates the builder chain, the variables and the regions.
func New(opts Options) (*Analysis, error) {
	switch opts.Degenerate {
	case SkipDegenerate, FailDegenerate:
	case "":
		opts.Degenerate = SkipDegenerate
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, opts.Degenerate)
	}

	pl := objects.NewPipeline(opts.Objects)
	if err := pl.Validate(objects.RawNames); err != nil {
		return nil, err
	}
	vars := variables.Default()
	if err := vars.Validate(append(append([]string(nil), objects.RawNames...), pl.Outputs()...)); err != nil {
		return nil, err
	}
	sel, err := regions.NewSelector(regions.Default(), opts.Counting)
	if err != nil {
		return nil, err
	}

	a := &Analysis{opts: opts, pipeline: pl, variables: vars, selector: sel}
	if rec := opts.Recorder; rec != nil {
		sel.Observe(func(region string, ev *objects.Event) {
			rec.RegionPassed(region, ev.Weight)
		})
	}
	return a, nil
}

// Observe registers fn for every committed region pass.
func (a *Analysis) Observe(fn regions.Observer) { a.selector.Observe(fn) }

// ProcessEvent runs the builders, the variables and the regions for one
// event. Accumulators change only when all three succeed. A degenerate
// event under the skip policy is counted and nil is returned.
func (a *Analysis) ProcessEvent(raw *source.RawEvent, index int) error {
	ev := objects.NewEvent(index, raw.Weight)
	for name, c := range raw.Named() {
		ev.Put(name, c)
	}

	var observe func(string, record.Collection)
	if tracing() {
		observe = func(name string, c record.Collection) {
			tracef("event %d: %s has %d objects", index, name, len(c))
		}
	}
	err := a.pipeline.Run(ev, observe)
	if err == nil {
		err = a.variables.Compute(ev)
	}
	if err == nil {
		err = a.selector.Evaluate(ev)
	}
	a.stats.Events++
	if err != nil {
		if a.opts.Degenerate == SkipDegenerate && Degenerate(err) {
			a.stats.Skipped++
			stage := ""
			var se *StageError
			if errors.As(err, &se) {
				stage = se.Stage
			}
			opsf("skipping event %d at stage %s: %v", index, stage, err)
			if a.opts.Recorder != nil {
				a.opts.Recorder.EventSkipped(stage)
			}
			return nil
		}
		opsf("aborting at event %d: %v", index, err)
		return err
	}
	a.stats.SumWeights += ev.Weight
	if a.opts.Recorder != nil {
		a.opts.Recorder.EventProcessed(ev.Weight)
	}
	return nil
}

// Degenerate reports whether err stems from event data that cannot be
// evaluated, as opposed to a broken pipeline.
func Degenerate(err error) bool {
	return errors.Is(err, kinematics.ErrDegenerateInput) || errors.Is(err, objects.ErrNotSingleton)
}

// Summary returns (name, count, uncertainty) per region in declared order.
func (a *Analysis) Summary() []regions.Yield { return a.selector.Summary() }

// CutFlows returns every region's cut flow in declared order.
func (a *Analysis) CutFlows() []regions.Flow { return a.selector.CutFlows() }

// Stats returns the event counters.
func (a *Analysis) Stats() Stats { return a.stats }

// Options returns the options the Analysis was built with, with defaults
// applied.
func (a *Analysis) Options() Options { return a.opts }

// Counting returns the effective preselection counting mode.
func (a *Analysis) Counting() regions.CountingMode { return a.selector.Mode() }

// Merge folds the accumulators and counters of others into a.
func (a *Analysis) Merge(others ...*Analysis) error {
	sels := make([]*regions.Selector, len(others))
	for i, o := range others {
		sels[i] = o.selector
	}
	if err := a.selector.Merge(sels...); err != nil {
		return err
	}
	for _, o := range others {
		a.stats.Add(o.stats)
	}
	return nil
}
