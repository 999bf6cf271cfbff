package regions

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/banshee-data/monophoton/internal/analysis/objects"
)

// CountingMode controls how a required region counts when several
// regions invoke it within one event.
type CountingMode string

const (
	// CountPerInvocation re-evaluates the required region on every call,
	// and its accumulator grows on every passing call. With the default
	// regions a passing event adds 6w to preselection: once for its own
	// evaluation and once for each of the five regions that require it.
	CountPerInvocation CountingMode = "per_invocation"
	// CountPerEvent evaluates each region at most once per event and
	// reuses the result for later callers.
	CountPerEvent CountingMode = "per_event"
)

// ErrInvalidRegions is wrapped by every NewSelector validation failure.
var ErrInvalidRegions = errors.New("invalid regions")

// Observer is called once per committed region pass.
type Observer func(region string, ev *objects.Event)

// Yield is the summary line of one region.
type Yield struct {
	Name        string
	Count       float64
	Uncertainty float64
}

// Flow is the cut flow of one region: the entry count ("none") followed
// by one accumulator per condition.
type Flow struct {
	Region string
	Steps  []Accumulator
}

type pendingAdd struct {
	acc *Accumulator
	w   float64
}

// Selector evaluates the regions of one event and owns their
// accumulators for the whole run.
type Selector struct {
	mode      CountingMode
	regions   []Region
	index     map[string]int
	totals    []Accumulator
	flows     [][]Accumulator
	observers []Observer

	memo    map[int]bool
	pending []pendingAdd
	passed  []int
}

// NewSelector validates the region definitions. A required region must
// be declared before the regions that require it.
func NewSelector(defs []Region, mode CountingMode) (*Selector, error) {
	switch mode {
	case CountPerInvocation, CountPerEvent:
	case "":
		mode = CountPerInvocation
	default:
		return nil, fmt.Errorf("%w: unknown counting mode %q", ErrInvalidRegions, mode)
	}
	s := &Selector{
		mode:    mode,
		regions: defs,
		index:   make(map[string]int, len(defs)),
		totals:  make([]Accumulator, len(defs)),
		flows:   make([][]Accumulator, len(defs)),
		memo:    make(map[int]bool, len(defs)),
	}
	for i, r := range defs {
		if r.Name == "" {
			return nil, fmt.Errorf("%w: region %d has no name", ErrInvalidRegions, i)
		}
		if _, dup := s.index[r.Name]; dup {
			return nil, fmt.Errorf("%w: region %s declared twice", ErrInvalidRegions, r.Name)
		}
		labels := []string{"none"}
		if r.Requires != "" {
			if _, ok := s.index[r.Requires]; !ok {
				return nil, fmt.Errorf("%w: region %s requires undeclared region %s", ErrInvalidRegions, r.Name, r.Requires)
			}
			labels = append(labels, r.Requires)
		}
		for _, st := range r.Steps {
			if st.Pass == nil {
				return nil, fmt.Errorf("%w: region %s step %q has no predicate", ErrInvalidRegions, r.Name, st.Label)
			}
			labels = append(labels, st.Label)
		}
		s.index[r.Name] = i
		s.totals[i] = Accumulator{Name: r.Name}
		s.flows[i] = make([]Accumulator, len(labels))
		for k, l := range labels {
			s.flows[i][k] = Accumulator{Name: l}
		}
	}
	return s, nil
}

// Mode returns the counting mode in effect.
func (s *Selector) Mode() CountingMode { return s.mode }

// Observe registers fn to be called for every committed region pass.
func (s *Selector) Observe(fn Observer) {
	s.observers = append(s.observers, fn)
}

// Evaluate runs every region, in declared order, against one event. On
// error nothing from this event is committed.
func (s *Selector) Evaluate(ev *objects.Event) error {
	clear(s.memo)
	s.pending = s.pending[:0]
	s.passed = s.passed[:0]

	for i := range s.regions {
		if _, err := s.apply(i, ev); err != nil {
			return &objects.StageError{Event: ev.Index, Stage: s.regions[i].Name, Err: err}
		}
	}

	for _, p := range s.pending {
		p.acc.Add(p.w)
	}
	for _, i := range s.passed {
		for _, fn := range s.observers {
			fn(s.regions[i].Name, ev)
		}
	}
	return nil
}

// passedLast reports whether the named region passed in the last
// evaluated event. In per-invocation mode this is the last result computed.
func (s *Selector) passedLast(name string) bool {
	i, ok := s.index[name]
	return ok && s.memo[i]
}

func (s *Selector) apply(i int, ev *objects.Event) (bool, error) {
	if s.mode == CountPerEvent {
		if r, done := s.memo[i]; done {
			return r, nil
		}
	}
	r := s.regions[i]
	flow := s.flows[i]
	w := ev.Weight
	s.memo[i] = false

	s.stage(&flow[0], w)
	k := 1
	if r.Requires != "" {
		ok, err := s.apply(s.index[r.Requires], ev)
		if err != nil {
			return false, fmt.Errorf("%s: %w", r.Requires, err)
		}
		if !ok {
			return false, nil
		}
		s.stage(&flow[k], w)
		k++
	}
	for _, st := range r.Steps {
		ok, err := st.Pass(ev)
		if err != nil {
			return false, fmt.Errorf("%q: %w", st.Label, err)
		}
		if !ok {
			return false, nil
		}
		s.stage(&flow[k], w)
		k++
	}
	s.stage(&s.totals[i], w)
	s.memo[i] = true
	s.passed = append(s.passed, i)
	return true, nil
}

func (s *Selector) stage(acc *Accumulator, w float64) {
	s.pending = append(s.pending, pendingAdd{acc: acc, w: w})
}

// Summary returns one Yield per region in declared order.
func (s *Selector) Summary() []Yield {
	out := make([]Yield, len(s.totals))
	for i, a := range s.totals {
		out[i] = Yield{Name: a.Name, Count: a.SumW, Uncertainty: a.Uncertainty()}
	}
	return out
}

// Accumulators returns a copy of the region accumulators in declared order.
func (s *Selector) Accumulators() []Accumulator {
	return append([]Accumulator(nil), s.totals...)
}

// CutFlows returns a copy of every region's cut flow in declared order.
func (s *Selector) CutFlows() []Flow {
	out := make([]Flow, len(s.flows))
	for i, f := range s.flows {
		out[i] = Flow{Region: s.regions[i].Name, Steps: append([]Accumulator(nil), f...)}
	}
	return out
}

// Merge adds the accumulators of others, which must have been built from
// the same region definitions. Each accumulator is reduced over all
// shards at once. Nothing changes if any shard does not match.
func (s *Selector) Merge(others ...*Selector) error {
	for _, o := range others {
		if len(o.regions) != len(s.regions) {
			return fmt.Errorf("%w: merging %d regions into %d", ErrInvalidRegions, len(o.regions), len(s.regions))
		}
		for i := range s.regions {
			if s.regions[i].Name != o.regions[i].Name || len(s.flows[i]) != len(o.flows[i]) {
				return fmt.Errorf("%w: region %d differs (%s vs %s)", ErrInvalidRegions, i, s.regions[i].Name, o.regions[i].Name)
			}
		}
	}
	parts := make([]Accumulator, len(others)+1)
	reduce := func(acc *Accumulator, pick func(o *Selector) Accumulator) {
		parts[0] = *acc
		for j, o := range others {
			parts[j+1] = pick(o)
		}
		*acc = Total(acc.Name, parts)
	}
	for i := range s.regions {
		reduce(&s.totals[i], func(o *Selector) Accumulator { return o.totals[i] })
		for k := range s.flows[i] {
			reduce(&s.flows[i][k], func(o *Selector) Accumulator { return o.flows[i][k] })
		}
	}
	return nil
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
