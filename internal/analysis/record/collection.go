package record

// Collection is an ordered set of records for one object type at one
// pipeline stage. Index 0 is the leading object.
type Collection []*Particle

// Leading returns the first record, or nil if the collection is empty.
func (c Collection) Leading() *Particle {
	if len(c) == 0 {
		return nil
	}
	return c[0]
}

// Clone deep-copies every record.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i, p := range c {
		out[i] = p.Clone()
	}
	return out
}

// Single wraps one record as a collection; nil yields an empty collection.
func Single(p *Particle) Collection {
	if p == nil {
		return Collection{}
	}
	return Collection{p}
}
