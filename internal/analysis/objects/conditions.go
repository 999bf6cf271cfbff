package objects

import (
	"fmt"
	"strings"

	"github.com/banshee-data/monophoton/internal/analysis/record"
)

// Condition is a per-record selection test.
type Condition interface {
	Holds(p *record.Particle) (bool, error)
	String() string
}

// Op is a strict comparison against a fixed threshold.
type Op int

const (
	Greater Op = iota
	Less
)

func (o Op) String() string {
	if o == Greater {
		return ">"
	}
	return "<"
}

// Threshold compares one attribute against a fixed value.
type Threshold struct {
	Attr  string
	Op    Op
	Value float64
}

// Above is attr > v.
func Above(attr string, v float64) Threshold { return Threshold{Attr: attr, Op: Greater, Value: v} }

// Below is attr < v.
func Below(attr string, v float64) Threshold { return Threshold{Attr: attr, Op: Less, Value: v} }

func (t Threshold) Holds(p *record.Particle) (bool, error) {
	v, err := p.Get(t.Attr)
	if err != nil {
		return false, err
	}
	switch t.Op {
	case Greater:
		return v > t.Value, nil
	case Less:
		return v < t.Value, nil
	}
	return false, fmt.Errorf("unknown op %d", t.Op)
}

func (t Threshold) String() string {
	return fmt.Sprintf("%s %s %g", t.Attr, t.Op, t.Value)
}

// AllOf holds when every condition holds. Evaluation stops at the first
// failing condition.
type AllOf []Condition

func (a AllOf) Holds(p *record.Particle) (bool, error) {
	for _, c := range a {
		ok, err := c.Holds(p)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (a AllOf) String() string { return join(a, " and ") }

// AnyOf holds when at least one condition holds.
type AnyOf []Condition

func (a AnyOf) Holds(p *record.Particle) (bool, error) {
	for _, c := range a {
		ok, err := c.Holds(p)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (a AnyOf) String() string { return join(a, " or ") }

func join(cs []Condition, sep string) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}
