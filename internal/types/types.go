package types

import (
	"fmt"
)

// TypeInfo describes the element type flowing on one stream. Inference can
// fail upstream of graph compilation; a TypeInfo built with Missing carries
// the failure and surfaces it when forced.
type TypeInfo struct {
	name    string
	missing bool
	reason  string
}

// New returns a concrete TypeInfo for the named type.
func New(name string) TypeInfo {
	return TypeInfo{name: name}
}

// Missing returns a TypeInfo marking a failed type inference.
func Missing(reason string) TypeInfo {
	return TypeInfo{missing: true, reason: reason}
}

// Name returns the type name, or "" when the type is missing or unset.
func (t TypeInfo) Name() string {
	return t.name
}

// IsMissing reports whether type inference failed for this stream.
func (t TypeInfo) IsMissing() bool {
	return t.missing
}

// Force surfaces a pending type-inference failure. Compilation calls this
// before any graph mutation for a transformation so the pass aborts early.
func (t TypeInfo) Force() error {
	if t.missing {
		return &MissingTypeError{Reason: t.reason}
	}
	return nil
}

func (t TypeInfo) String() string {
	if t.missing {
		return fmt.Sprintf("<missing: %s>", t.reason)
	}
	return t.name
}

// MissingTypeError reports a type that inference could not determine.
type MissingTypeError struct {
	Reason string
}

func (e *MissingTypeError) Error() string {
	return fmt.Sprintf("type information could not be determined: %s", e.Reason)
}

// Serializer is an opaque handle to the runtime serializer of one element
// type. The compiler only stores it on nodes; it never serializes anything.
type Serializer struct {
	typeName string
}

// TypeName returns the name of the type the serializer handles.
func (s Serializer) TypeName() string {
	return s.typeName
}

// IsZero reports whether the serializer slot is unset.
func (s Serializer) IsZero() bool {
	return s.typeName == ""
}

// SerializerFactory creates serializer handles keyed by type descriptor. The
// job configuration supplies the factory; the compiler never implements
// serialization itself.
type SerializerFactory interface {
	Create(t TypeInfo) (Serializer, error)
}

// BasicSerializerFactory derives a serializer handle from the type name.
type BasicSerializerFactory struct{}

// Create returns a serializer for the given type, or the pending inference
// failure when the type is missing.
func (BasicSerializerFactory) Create(t TypeInfo) (Serializer, error) {
	if err := t.Force(); err != nil {
		return Serializer{}, err
	}
	return Serializer{typeName: t.name}, nil
}
