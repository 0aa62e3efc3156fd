package transform

// Sequence hands out ascending transformation ids. A plan owns exactly one
// Sequence; the generator draws virtual-node ids from the same Sequence so
// real and virtual ids share a single namespace. Sequences are never shared
// between independent compilation passes.
type Sequence struct {
	next int
}

// NewSequence returns a Sequence starting at 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next id.
func (s *Sequence) Next() int {
	s.next++
	return s.next
}
