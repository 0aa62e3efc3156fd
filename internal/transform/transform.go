// Package transform models the logical dataflow steps a user declares before
// compilation. The Transformation interface is a closed sum: exactly the
// eleven variants in this package implement it, and the generator matches on
// them exhaustively.
package transform

import (
	"time"

	"github.com/streamweave/streamweave/internal/types"
)

// Transformation is one logical dataflow step. Implementations are read-only
// for the compiler except for SetMaxParallelism, which backfills the job-wide
// default during generation.
type Transformation interface {
	ID() int
	Name() string
	OutputType() types.TypeInfo
	Parallelism() int
	MaxParallelism() int
	SetMaxParallelism(parallelism int)
	SlotSharingGroup() string
	CoLocationGroupKey() string
	UID() string
	UserProvidedHash() string
	BufferTimeout() time.Duration
	MinResources() *ResourceSpec
	PreferredResources() *ResourceSpec

	sealed()
}

// Configurable is the write surface shared by every variant through the
// embedded Attrs. Front-ends use it to apply declaration-level knobs without
// switching on the concrete variant.
type Configurable interface {
	SetUID(uid string)
	SetUserProvidedHash(hash string)
	SetSlotSharingGroup(group string)
	SetCoLocationGroupKey(key string)
	SetBufferTimeout(timeout time.Duration)
	SetResources(min, preferred ResourceSpec)
}

// Attrs carries the fields shared by every transformation variant. Variants
// embed it; the embedded methods satisfy most of the Transformation
// interface.
type Attrs struct {
	id                 int
	name               string
	outputType         types.TypeInfo
	parallelism        int
	maxParallelism     int
	slotSharingGroup   string
	coLocationGroupKey string
	uid                string
	userProvidedHash   string
	bufferTimeout      time.Duration
	minResources       *ResourceSpec
	preferredResources *ResourceSpec
}

func newAttrs(seq *Sequence, name string, outputType types.TypeInfo, parallelism int) Attrs {
	return Attrs{
		id:             seq.Next(),
		name:           name,
		outputType:     outputType,
		parallelism:    parallelism,
		maxParallelism: -1,
		bufferTimeout:  -1,
	}
}

func (*Attrs) sealed() {}

// ID returns the process-unique transformation id.
func (a *Attrs) ID() int { return a.id }

// Name returns the user-facing transformation name.
func (a *Attrs) Name() string { return a.name }

// OutputType returns the element type this transformation produces.
func (a *Attrs) OutputType() types.TypeInfo { return a.outputType }

// Parallelism returns the declared parallelism.
func (a *Attrs) Parallelism() int { return a.parallelism }

// MaxParallelism returns the maximum parallelism; values <= 0 mean unset.
func (a *Attrs) MaxParallelism() int { return a.maxParallelism }

// SetMaxParallelism overrides the maximum parallelism.
func (a *Attrs) SetMaxParallelism(parallelism int) { a.maxParallelism = parallelism }

// SlotSharingGroup returns the explicit slot-sharing group, "" if unset.
func (a *Attrs) SlotSharingGroup() string { return a.slotSharingGroup }

// SetSlotSharingGroup pins the transformation to a named slot-sharing group.
func (a *Attrs) SetSlotSharingGroup(group string) { a.slotSharingGroup = group }

// CoLocationGroupKey returns the co-location constraint key, "" if unset.
func (a *Attrs) CoLocationGroupKey() string { return a.coLocationGroupKey }

// SetCoLocationGroupKey constrains the transformation to co-locate with all
// others sharing the key.
func (a *Attrs) SetCoLocationGroupKey(key string) { a.coLocationGroupKey = key }

// UID returns the user-assigned stable identifier, "" if unset.
func (a *Attrs) UID() string { return a.uid }

// SetUID assigns a stable identifier used for restore compatibility.
func (a *Attrs) SetUID(uid string) { a.uid = uid }

// UserProvidedHash returns the user-provided node hash, "" if unset.
func (a *Attrs) UserProvidedHash() string { return a.userProvidedHash }

// SetUserProvidedHash assigns a precomputed node hash.
func (a *Attrs) SetUserProvidedHash(hash string) { a.userProvidedHash = hash }

// BufferTimeout returns the output flush interval; negative means unset.
func (a *Attrs) BufferTimeout() time.Duration { return a.bufferTimeout }

// SetBufferTimeout sets the output flush interval.
func (a *Attrs) SetBufferTimeout(timeout time.Duration) { a.bufferTimeout = timeout }

// MinResources returns the lower resource bound, nil if unset.
func (a *Attrs) MinResources() *ResourceSpec { return a.minResources }

// PreferredResources returns the preferred resource bound, nil if unset.
func (a *Attrs) PreferredResources() *ResourceSpec { return a.preferredResources }

// SetResources sets the paired resource bounds.
func (a *Attrs) SetResources(min, preferred ResourceSpec) {
	a.minResources = &min
	a.preferredResources = &preferred
}
