package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/banshee-data/monophoton/internal/analysis/record"
)

const maxLineBytes = 16 << 20

// jsonEvent is one line of a JSONL event file. Objects carry at least pt,
// eta and phi; any further keys are kept as record attributes.
type jsonEvent struct {
	Weight    *float64             `json:"weight,omitempty"`
	Photons   []map[string]float64 `json:"photons"`
	Muons     []map[string]float64 `json:"muons"`
	Jets      []map[string]float64 `json:"jets"`
	Electrons []map[string]float64 `json:"electrons"`
	MET       map[string]float64   `json:"met,omitempty"`
	ScalarHT  *float64             `json:"scalar_ht,omitempty"`
}

// JSONLSource reads one JSON event per line. Blank lines are ignored.
type JSONLSource struct {
	sc     *bufio.Scanner
	closer io.Closer
	line   int
}

// NewJSONLSource reads events from r.
func NewJSONLSource(r io.Reader) *JSONLSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	s := &JSONLSource{sc: sc}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OpenJSONL opens a JSONL event file.
func OpenJSONL(path string) (*JSONLSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewJSONLSource(f), nil
}

func (s *JSONLSource) Next(ctx context.Context) (*RawEvent, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.sc.Scan() {
			if err := s.sc.Err(); err != nil {
				return nil, fmt.Errorf("line %d: %w", s.line+1, err)
			}
			return nil, io.EOF
		}
		s.line++
		b := bytes.TrimSpace(s.sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var je jsonEvent
		if err := json.Unmarshal(b, &je); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedEvent, s.line, err)
		}
		ev, err := je.raw()
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedEvent, s.line, err)
		}
		return ev, nil
	}
}

func (s *JSONLSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (je *jsonEvent) raw() (*RawEvent, error) {
	ev := &RawEvent{Weight: 1, MET: record.Collection{}, ScalarHT: record.Collection{}}
	if je.Weight != nil {
		if math.IsNaN(*je.Weight) || math.IsInf(*je.Weight, 0) {
			return nil, fmt.Errorf("weight %v is not finite", *je.Weight)
		}
		ev.Weight = *je.Weight
	}
	var err error
	if ev.Photons, err = particles("photons", je.Photons); err != nil {
		return nil, err
	}
	if ev.Muons, err = particles("muons", je.Muons); err != nil {
		return nil, err
	}
	if ev.Jets, err = particles("jets", je.Jets); err != nil {
		return nil, err
	}
	if ev.Electrons, err = particles("electrons", je.Electrons); err != nil {
		return nil, err
	}
	if je.MET != nil {
		for _, k := range []string{record.AttrPt, record.AttrPhi} {
			if _, ok := je.MET[k]; !ok {
				return nil, fmt.Errorf("met: missing %q", k)
			}
		}
		met := record.FromAttributes(je.MET)
		if !met.Has(record.AttrEta) {
			met.Set(record.AttrEta, 0)
		}
		ev.MET = record.Single(met)
	}
	if je.ScalarHT != nil {
		ev.ScalarHT = record.Single(record.NewParticle(*je.ScalarHT, 0, 0))
	}
	return ev, nil
}

func particles(kind string, in []map[string]float64) (record.Collection, error) {
	c := make(record.Collection, 0, len(in))
	for i, attrs := range in {
		for _, k := range []string{record.AttrPt, record.AttrEta, record.AttrPhi} {
			if _, ok := attrs[k]; !ok {
				return nil, fmt.Errorf("%s[%d]: missing %q", kind, i, k)
			}
		}
		c = append(c, record.FromAttributes(attrs))
	}
	sortByPt(c)
	return c, nil
}

// EncodeJSONL writes events in the format read by JSONLSource.
func EncodeJSONL(w io.Writer, events ...*RawEvent) error {
	enc := json.NewEncoder(w)
	for _, ev := range events {
		je := jsonEvent{
			Weight:    &ev.Weight,
			Photons:   attrMaps(ev.Photons),
			Muons:     attrMaps(ev.Muons),
			Jets:      attrMaps(ev.Jets),
			Electrons: attrMaps(ev.Electrons),
		}
		if met := ev.MET.Leading(); met != nil {
			je.MET = attrMaps(record.Collection{met})[0]
		}
		if ht := ev.ScalarHT.Leading(); ht != nil {
			v, err := ht.Get(record.AttrPt)
			if err != nil {
				return fmt.Errorf("scalar_ht: %w", err)
			}
			je.ScalarHT = &v
		}
		if err := enc.Encode(&je); err != nil {
			return err
		}
	}
	return nil
}

func attrMaps(c record.Collection) []map[string]float64 {
	out := make([]map[string]float64, len(c))
	for i, p := range c {
		m := make(map[string]float64)
		for _, n := range p.Names() {
			v, _ := p.Get(n)
			m[n] = v
		}
		out[i] = m
	}
	return out
}
