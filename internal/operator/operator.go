// Package operator holds the opaque handles the graph compiler stores on
// nodes: operator references, routing policies and side-output tags. The
// runtime behavior behind these handles is out of scope for compilation.
package operator

// Function is the user logic wrapped by an operator. The compiler treats it
// as opaque identity; only sources get a narrow extra capability check, see
// FormatSource.
type Function interface {
	Name() string
}

// NamedFunc is a Function carrying nothing but a display name. The plan
// front-end declares operators by name only.
type NamedFunc string

// Name returns the function name.
func (f NamedFunc) Name() string { return string(f) }

// InputFormat describes a format-driven source input (files, tables, ...).
type InputFormat interface {
	Description() string
}

// FormatSource is implemented by source functions that read through an
// InputFormat. When a source operator's function is a FormatSource, the
// format is propagated onto the source node.
type FormatSource interface {
	Function
	Format() InputFormat
}

// FileFormat is an InputFormat naming a file path pattern.
type FileFormat struct {
	Path string
}

// Description returns a human-readable summary of the format.
func (f FileFormat) Description() string { return "file: " + f.Path }

// FormatFunc is a source Function that reads through an InputFormat.
type FormatFunc struct {
	FuncName string
	In       InputFormat
}

// Name returns the function name.
func (f FormatFunc) Name() string { return f.FuncName }

// Format returns the input format the function reads through.
func (f FormatFunc) Format() InputFormat { return f.In }

// Ref is an opaque reference to a runtime operator. Nodes store the
// reference; the compiler never inspects the wrapped behavior.
type Ref struct {
	name string
	fn   Function
}

// NewRef wraps a function into an operator reference.
func NewRef(name string, fn Function) Ref {
	return Ref{name: name, fn: fn}
}

// Name returns the operator display name.
func (r Ref) Name() string { return r.name }

// Function returns the wrapped user function.
func (r Ref) Function() Function { return r.fn }

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool { return r.name == "" && r.fn == nil }

// KeySelector extracts the state key from stream elements. Opaque to the
// compiler; it is stored on nodes together with the key serializer.
type KeySelector interface {
	Name() string
}

// NamedKeySelector is a KeySelector identified by field or expression name.
type NamedKeySelector string

// Name returns the selector name.
func (s NamedKeySelector) Name() string { return string(s) }
