package transform

import (
	"fmt"
	"time"

	"github.com/streamweave/streamweave/internal/operator"
	"github.com/streamweave/streamweave/internal/types"
)

// Source produces the initial stream from an operator with no inputs.
type Source struct {
	Attrs
	op operator.Ref
}

// NewSource constructs a Source transformation.
func NewSource(seq *Sequence, name string, op operator.Ref, outputType types.TypeInfo, parallelism int) *Source {
	return &Source{Attrs: newAttrs(seq, name, outputType, parallelism), op: op}
}

// Operator returns the wrapped source operator.
func (s *Source) Operator() operator.Ref { return s.op }

// Sink consumes a stream; nothing downstream can attach to it.
type Sink struct {
	Attrs
	input            Transformation
	op               operator.Ref
	stateKeySelector operator.KeySelector
	stateKeyType     types.TypeInfo
}

// NewSink constructs a Sink transformation consuming the given input.
func NewSink(seq *Sequence, name string, input Transformation, op operator.Ref, parallelism int) *Sink {
	return &Sink{
		Attrs: newAttrs(seq, name, input.OutputType(), parallelism),
		input: input,
		op:    op,
	}
}

// Input returns the consumed transformation.
func (s *Sink) Input() Transformation { return s.input }

// Operator returns the wrapped sink operator.
func (s *Sink) Operator() operator.Ref { return s.op }

// SetStateKey keys the sink's state by the given selector and key type.
func (s *Sink) SetStateKey(selector operator.KeySelector, keyType types.TypeInfo) {
	s.stateKeySelector = selector
	s.stateKeyType = keyType
}

// StateKeySelector returns the state-key selector, nil if the sink is unkeyed.
func (s *Sink) StateKeySelector() operator.KeySelector { return s.stateKeySelector }

// StateKeyType returns the state-key type.
func (s *Sink) StateKeyType() types.TypeInfo { return s.stateKeyType }

// OneInput applies an operator to a single input stream.
type OneInput struct {
	Attrs
	input            Transformation
	op               operator.Ref
	inputType        types.TypeInfo
	stateKeySelector operator.KeySelector
	stateKeyType     types.TypeInfo
}

// NewOneInput constructs a OneInput transformation.
func NewOneInput(seq *Sequence, name string, input Transformation, op operator.Ref, outputType types.TypeInfo, parallelism int) *OneInput {
	return &OneInput{
		Attrs:     newAttrs(seq, name, outputType, parallelism),
		input:     input,
		op:        op,
		inputType: input.OutputType(),
	}
}

// Input returns the consumed transformation.
func (o *OneInput) Input() Transformation { return o.input }

// Operator returns the wrapped operator.
func (o *OneInput) Operator() operator.Ref { return o.op }

// InputType returns the element type of the input stream.
func (o *OneInput) InputType() types.TypeInfo { return o.inputType }

// SetStateKey keys the operator's state by the given selector and key type.
func (o *OneInput) SetStateKey(selector operator.KeySelector, keyType types.TypeInfo) {
	o.stateKeySelector = selector
	o.stateKeyType = keyType
}

// StateKeySelector returns the state-key selector, nil if unkeyed.
func (o *OneInput) StateKeySelector() operator.KeySelector { return o.stateKeySelector }

// StateKeyType returns the state-key type.
func (o *OneInput) StateKeyType() types.TypeInfo { return o.stateKeyType }

// TwoInput applies an operator to two input streams.
type TwoInput struct {
	Attrs
	input1            Transformation
	input2            Transformation
	op                operator.Ref
	stateKeySelector1 operator.KeySelector
	stateKeySelector2 operator.KeySelector
	stateKeyType      types.TypeInfo
}

// NewTwoInput constructs a TwoInput transformation.
func NewTwoInput(seq *Sequence, name string, input1, input2 Transformation, op operator.Ref, outputType types.TypeInfo, parallelism int) *TwoInput {
	return &TwoInput{
		Attrs:  newAttrs(seq, name, outputType, parallelism),
		input1: input1,
		input2: input2,
		op:     op,
	}
}

// Input1 returns the first consumed transformation.
func (t *TwoInput) Input1() Transformation { return t.input1 }

// Input2 returns the second consumed transformation.
func (t *TwoInput) Input2() Transformation { return t.input2 }

// Operator returns the wrapped operator.
func (t *TwoInput) Operator() operator.Ref { return t.op }

// InputType1 returns the element type of the first input stream.
func (t *TwoInput) InputType1() types.TypeInfo { return t.input1.OutputType() }

// InputType2 returns the element type of the second input stream.
func (t *TwoInput) InputType2() types.TypeInfo { return t.input2.OutputType() }

// SetStateKeys keys the operator's state by one selector per input and a
// shared key type.
func (t *TwoInput) SetStateKeys(selector1, selector2 operator.KeySelector, keyType types.TypeInfo) {
	t.stateKeySelector1 = selector1
	t.stateKeySelector2 = selector2
	t.stateKeyType = keyType
}

// StateKeySelector1 returns the first input's state-key selector.
func (t *TwoInput) StateKeySelector1() operator.KeySelector { return t.stateKeySelector1 }

// StateKeySelector2 returns the second input's state-key selector.
func (t *TwoInput) StateKeySelector2() operator.KeySelector { return t.stateKeySelector2 }

// StateKeyType returns the shared state-key type.
func (t *TwoInput) StateKeyType() types.TypeInfo { return t.stateKeyType }

// Union merges several streams of the same type. It is purely logical: no
// node is ever created for it.
type Union struct {
	Attrs
	inputs []Transformation
}

// NewUnion constructs a Union over the given inputs. All inputs must carry
// the same element type; the plan front-end enforces this before building.
func NewUnion(seq *Sequence, name string, inputs []Transformation) *Union {
	outputType := types.TypeInfo{}
	parallelism := 1
	if len(inputs) > 0 {
		outputType = inputs[0].OutputType()
		parallelism = inputs[0].Parallelism()
	}
	return &Union{Attrs: newAttrs(seq, name, outputType, parallelism), inputs: inputs}
}

// Inputs returns the merged transformations in declaration order.
func (u *Union) Inputs() []Transformation { return u.inputs }

// Partition changes how records are routed to the downstream consumer. It
// only ever materializes as an edge property.
type Partition struct {
	Attrs
	input       Transformation
	partitioner operator.Partitioner
}

// NewPartition constructs a Partition transformation.
func NewPartition(seq *Sequence, name string, input Transformation, partitioner operator.Partitioner) *Partition {
	return &Partition{
		Attrs:       newAttrs(seq, name, input.OutputType(), input.Parallelism()),
		input:       input,
		partitioner: partitioner,
	}
}

// Input returns the repartitioned transformation.
func (p *Partition) Input() Transformation { return p.input }

// Partitioner returns the routing policy.
func (p *Partition) Partitioner() operator.Partitioner { return p.partitioner }

// Split names the output branches of its input via an OutputSelector. It
// predates side outputs and attaches the selector directly to the upstream
// node instead of going through the virtual-node table.
type Split struct {
	Attrs
	input    Transformation
	selector operator.OutputSelector
}

// NewSplit constructs a Split transformation.
func NewSplit(seq *Sequence, name string, input Transformation, selector operator.OutputSelector) *Split {
	return &Split{
		Attrs:    newAttrs(seq, name, input.OutputType(), input.Parallelism()),
		input:    input,
		selector: selector,
	}
}

// Input returns the split transformation.
func (s *Split) Input() Transformation { return s.input }

// Selector returns the branch-naming policy.
func (s *Split) Selector() operator.OutputSelector { return s.selector }

// Select picks named branches out of a preceding Split.
type Select struct {
	Attrs
	input         Transformation
	selectedNames []string
}

// NewSelect constructs a Select transformation.
func NewSelect(seq *Sequence, name string, input Transformation, selectedNames []string) *Select {
	return &Select{
		Attrs:         newAttrs(seq, name, input.OutputType(), input.Parallelism()),
		input:         input,
		selectedNames: selectedNames,
	}
}

// Input returns the selected transformation.
func (s *Select) Input() Transformation { return s.input }

// SelectedNames returns the chosen branch names.
func (s *Select) SelectedNames() []string { return s.selectedNames }

// SideOutput taps the side channel identified by an OutputTag.
type SideOutput struct {
	Attrs
	input Transformation
	tag   operator.OutputTag
}

// NewSideOutput constructs a SideOutput transformation.
func NewSideOutput(seq *Sequence, name string, input Transformation, tag operator.OutputTag) *SideOutput {
	return &SideOutput{
		Attrs: newAttrs(seq, name, tag.Type(), input.Parallelism()),
		input: input,
		tag:   tag,
	}
}

// Input returns the tapped transformation.
func (s *SideOutput) Input() Transformation { return s.input }

// Tag returns the side-channel tag.
func (s *SideOutput) Tag() operator.OutputTag { return s.tag }

// Feedback closes a loop over a single stream: the feedback edges re-enter
// the dataflow at this point.
type Feedback struct {
	Attrs
	input         Transformation
	feedbackEdges []Transformation
	waitTime      time.Duration
}

// NewFeedback constructs a Feedback transformation over the given input.
// WaitTime bounds how long the loop waits for fed-back records before
// shutting down.
func NewFeedback(seq *Sequence, name string, input Transformation, waitTime time.Duration) *Feedback {
	return &Feedback{
		Attrs:    newAttrs(seq, name, input.OutputType(), input.Parallelism()),
		input:    input,
		waitTime: waitTime,
	}
}

// Input returns the forward-path transformation.
func (f *Feedback) Input() Transformation { return f.input }

// WaitTime returns the loop's wait bound.
func (f *Feedback) WaitTime() time.Duration { return f.waitTime }

// FeedbackEdges returns the transformations wired back into the loop.
func (f *Feedback) FeedbackEdges() []Transformation { return f.feedbackEdges }

// AddFeedbackEdge closes the loop with the given transformation. The edge
// must run at the loop's parallelism.
func (f *Feedback) AddFeedbackEdge(edge Transformation) error {
	if edge.Parallelism() != f.parallelism {
		return fmt.Errorf("parallelism of feedback stream must match the parallelism of the original stream: %d != %d",
			edge.Parallelism(), f.parallelism)
	}
	f.feedbackEdges = append(f.feedbackEdges, edge)
	return nil
}

// CoFeedback closes a loop into the second input of a two-input operator.
// Unlike Feedback it has no forward input of its own: the downstream
// operator's first input is wired directly by the caller.
type CoFeedback struct {
	Attrs
	feedbackEdges []Transformation
	waitTime      time.Duration
}

// NewCoFeedback constructs a CoFeedback transformation. FeedbackType is the
// element type of the fed-back stream.
func NewCoFeedback(seq *Sequence, name string, feedbackType types.TypeInfo, parallelism int, waitTime time.Duration) *CoFeedback {
	return &CoFeedback{
		Attrs:    newAttrs(seq, name, feedbackType, parallelism),
		waitTime: waitTime,
	}
}

// WaitTime returns the loop's wait bound.
func (c *CoFeedback) WaitTime() time.Duration { return c.waitTime }

// FeedbackEdges returns the transformations wired back into the loop.
func (c *CoFeedback) FeedbackEdges() []Transformation { return c.feedbackEdges }

// AddFeedbackEdge closes the loop with the given transformation. The edge
// must run at the loop's parallelism.
func (c *CoFeedback) AddFeedbackEdge(edge Transformation) error {
	if edge.Parallelism() != c.parallelism {
		return fmt.Errorf("parallelism of feedback stream must match the parallelism of the original stream: %d != %d",
			edge.Parallelism(), c.parallelism)
	}
	c.feedbackEdges = append(c.feedbackEdges, edge)
	return nil
}
