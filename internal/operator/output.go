package operator

import (
	"github.com/streamweave/streamweave/internal/types"
)

// OutputTag identifies a side-output channel by name and element type. Two
// tags with the same id and type address the same channel.
type OutputTag struct {
	id  string
	typ types.TypeInfo
}

// NewOutputTag constructs an OutputTag.
func NewOutputTag(id string, typ types.TypeInfo) OutputTag {
	return OutputTag{id: id, typ: typ}
}

// ID returns the tag name.
func (t OutputTag) ID() string { return t.id }

// Type returns the element type of the side channel.
func (t OutputTag) Type() types.TypeInfo { return t.typ }

func (t OutputTag) String() string {
	return t.id + " (" + t.typ.String() + ")"
}

// OutputSelector is the legacy split routing policy. It names the output
// branches each record belongs to; the compiler stores it on the upstream
// node without interpreting it.
type OutputSelector interface {
	Name() string
}

// NamedSelector is an OutputSelector identified by name.
type NamedSelector string

// Name returns the selector name.
func (s NamedSelector) Name() string { return string(s) }
