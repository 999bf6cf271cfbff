package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/banshee-data/monophoton/internal/analysis/objects"
	"github.com/banshee-data/monophoton/internal/analysis/record"
)

// Supported input formats.
const (
	FormatJSONL = "jsonl"
	FormatLCIO  = "lcio"
)

// ErrMalformedEvent is returned when an input record cannot be turned into
// raw collections.
var ErrMalformedEvent = errors.New("malformed event")

// ErrUnknownFormat is returned by Open for an unrecognised format.
var ErrUnknownFormat = errors.New("unknown input format")

// RawEvent holds the six raw collections of one event and its weight.
type RawEvent struct {
	Weight    float64
	Photons   record.Collection
	Muons     record.Collection
	Jets      record.Collection
	Electrons record.Collection
	MET       record.Collection
	ScalarHT  record.Collection
}

// Named returns the collections keyed by their raw collection names.
func (r *RawEvent) Named() map[string]record.Collection {
	return map[string]record.Collection{
		objects.RawPhotons:   r.Photons,
		objects.RawMuons:     r.Muons,
		objects.RawJets:      r.Jets,
		objects.RawElectrons: r.Electrons,
		objects.RawMET:       r.MET,
		objects.RawScalarHT:  r.ScalarHT,
	}
}

// EventSource yields events in file order.
type EventSource interface {
	// Next returns the next event, or io.EOF when the source is drained.
	Next(ctx context.Context) (*RawEvent, error)
	Close() error
}

// SliceSource serves events from memory.
type SliceSource struct {
	events []*RawEvent
	pos    int
}

// NewSliceSource returns a source over events.
func NewSliceSource(events ...*RawEvent) *SliceSource {
	return &SliceSource{events: events}
}

func (s *SliceSource) Next(ctx context.Context) (*RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.events) {
		return nil, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

func (s *SliceSource) Close() error { return nil }

// multiSource drains several sources one after another.
type multiSource struct {
	srcs []EventSource
}

// Concat chains sources. Closing the result closes all of them.
func Concat(srcs ...EventSource) EventSource {
	if len(srcs) == 1 {
		return srcs[0]
	}
	return &multiSource{srcs: srcs}
}

func (m *multiSource) Next(ctx context.Context) (*RawEvent, error) {
	for len(m.srcs) > 0 {
		ev, err := m.srcs[0].Next(ctx)
		if err == io.EOF {
			if cerr := m.srcs[0].Close(); cerr != nil {
				return nil, cerr
			}
			m.srcs = m.srcs[1:]
			continue
		}
		return ev, err
	}
	return nil, io.EOF
}

func (m *multiSource) Close() error {
	var errs []error
	for _, s := range m.srcs {
		errs = append(errs, s.Close())
	}
	m.srcs = nil
	return errors.Join(errs...)
}

// DetectFormat guesses the input format from a file extension.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".slcio", ".lcio":
		return FormatLCIO
	default:
		return FormatJSONL
	}
}

// Open opens one input file. An empty format is detected from the
// extension.
func Open(path, format string) (EventSource, error) {
	if format == "" {
		format = DetectFormat(path)
	}
	switch format {
	case FormatJSONL:
		return OpenJSONL(path)
	case FormatLCIO:
		return OpenLCIO(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// OpenAll opens every path and chains them in order.
func OpenAll(paths []string, format string) (EventSource, error) {
	return openAll(paths, func(p string) (EventSource, error) { return Open(p, format) })
}

// openAll closes every source it already opened when one path fails and
// reports their close errors alongside the open error.
func openAll(paths []string, open func(path string) (EventSource, error)) (EventSource, error) {
	srcs := make([]EventSource, 0, len(paths))
	for _, p := range paths {
		s, err := open(p)
		if err != nil {
			errs := []error{fmt.Errorf("open %s: %w", p, err)}
			for _, o := range srcs {
				if cerr := o.Close(); cerr != nil {
					errs = append(errs, fmt.Errorf("close: %w", cerr))
				}
			}
			return nil, errors.Join(errs...)
		}
		srcs = append(srcs, s)
	}
	return Concat(srcs...), nil
}

// sortByPt orders a collection by descending pt. Records without pt keep
// their relative position at the end.
func sortByPt(c record.Collection) {
	sort.SliceStable(c, func(i, j int) bool {
		a, errA := c[i].Get(record.AttrPt)
		b, errB := c[j].Get(record.AttrPt)
		if errA != nil || errB != nil {
			return errA == nil && errB != nil
		}
		return a > b
	})
}
