package plan

import (
	"fmt"
	"time"

	"github.com/streamweave/streamweave/internal/operator"
	"github.com/streamweave/streamweave/internal/transform"
	"github.com/streamweave/streamweave/internal/types"
	streamweaveerrors "github.com/streamweave/streamweave/pkg/errors"
)

const defaultParallelism = 1

// Tree is the result of building a plan: the transformation values keyed by
// declaration id, the sinks to hand to the generator, and the id sequence
// that numbered them.
type Tree struct {
	Terminals []transform.Transformation
	ByID      map[string]transform.Transformation
	Seq       *transform.Sequence
}

// Build validates a plan and turns it into transformation values. Forward
// inputs are resolved recursively; feedback edges are attached in a second
// pass so loops can reference declarations that consume the loop itself.
func Build(p *Plan) (*Tree, error) {
	if err := ValidatePlan(p); err != nil {
		return nil, err
	}

	b := &builder{
		seq:      transform.NewSequence(),
		decls:    make(map[string]*Decl, len(p.Transformations)),
		built:    make(map[string]transform.Transformation, len(p.Transformations)),
		building: make(map[string]bool),
	}
	for i := range p.Transformations {
		decl := &p.Transformations[i]
		b.decls[decl.ID] = decl
	}

	// Pass 1: every declaration, in plan order, following forward inputs
	// only. Declarations reachable only through feedback edges are still
	// built here.
	for i := range p.Transformations {
		if _, err := b.build(p.Transformations[i].ID); err != nil {
			return nil, err
		}
	}

	// Pass 2: close the loops.
	for i := range p.Transformations {
		decl := &p.Transformations[i]
		if len(decl.FeedbackEdges) == 0 {
			continue
		}
		if err := b.attachFeedbackEdges(decl); err != nil {
			return nil, err
		}
	}

	tree := &Tree{ByID: b.built, Seq: b.seq}
	for i := range p.Transformations {
		decl := &p.Transformations[i]
		if decl.Kind == "sink" {
			tree.Terminals = append(tree.Terminals, b.built[decl.ID])
		}
	}
	if len(tree.Terminals) == 0 {
		return nil, streamweaveerrors.NewValidationError("plan", "plan declares no sinks", nil)
	}

	return tree, nil
}

type builder struct {
	seq      *transform.Sequence
	decls    map[string]*Decl
	built    map[string]transform.Transformation
	building map[string]bool
}

func (b *builder) build(id string) (transform.Transformation, error) {
	if t, ok := b.built[id]; ok {
		return t, nil
	}
	if b.building[id] {
		return nil, streamweaveerrors.NewValidationError(id,
			"forward inputs form a cycle (only feedback_edges may close loops)", nil)
	}
	b.building[id] = true
	defer delete(b.building, id)

	decl := b.decls[id]
	t, err := b.buildDecl(decl)
	if err != nil {
		return nil, err
	}

	applyCommon(decl, t)
	b.built[id] = t
	return t, nil
}

func (b *builder) buildDecl(decl *Decl) (transform.Transformation, error) {
	name := decl.Name
	if name == "" {
		name = decl.ID
	}
	parallelism := decl.Parallelism
	if parallelism == 0 {
		parallelism = defaultParallelism
	}

	switch decl.Kind {
	case "source":
		var fn operator.Function = operator.NamedFunc(decl.Operator)
		if decl.FilePath != "" {
			fn = operator.FormatFunc{FuncName: decl.Operator, In: operator.FileFormat{Path: decl.FilePath}}
		}
		return transform.NewSource(b.seq, name, operator.NewRef(decl.Operator, fn),
			types.New(decl.OutputType), parallelism), nil

	case "sink":
		input, err := b.build(decl.Input)
		if err != nil {
			return nil, err
		}
		sink := transform.NewSink(b.seq, name, input,
			operator.NewRef(decl.Operator, operator.NamedFunc(decl.Operator)), parallelism)
		if decl.Key != "" {
			sink.SetStateKey(operator.NamedKeySelector(decl.Key), keyType(decl))
		}
		return sink, nil

	case "map":
		input, err := b.build(decl.Input)
		if err != nil {
			return nil, err
		}
		mapped := transform.NewOneInput(b.seq, name, input,
			operator.NewRef(decl.Operator, operator.NamedFunc(decl.Operator)),
			types.New(decl.OutputType), parallelism)
		if decl.Key != "" {
			mapped.SetStateKey(operator.NamedKeySelector(decl.Key), keyType(decl))
		}
		return mapped, nil

	case "two_input":
		input1, err := b.build(decl.Input1)
		if err != nil {
			return nil, err
		}
		input2, err := b.build(decl.Input2)
		if err != nil {
			return nil, err
		}
		joined := transform.NewTwoInput(b.seq, name, input1, input2,
			operator.NewRef(decl.Operator, operator.NamedFunc(decl.Operator)),
			types.New(decl.OutputType), parallelism)
		if decl.Key != "" && decl.Key2 != "" {
			joined.SetStateKeys(operator.NamedKeySelector(decl.Key),
				operator.NamedKeySelector(decl.Key2), keyType(decl))
		}
		return joined, nil

	case "union":
		inputs := make([]transform.Transformation, 0, len(decl.Inputs))
		for _, ref := range decl.Inputs {
			input, err := b.build(ref)
			if err != nil {
				return nil, err
			}
			if len(inputs) > 0 && input.OutputType().Name() != inputs[0].OutputType().Name() {
				return nil, streamweaveerrors.NewValidationError(decl.ID,
					fmt.Sprintf("union inputs must share one element type: %q vs %q",
						inputs[0].OutputType().Name(), input.OutputType().Name()), nil)
			}
			inputs = append(inputs, input)
		}
		return transform.NewUnion(b.seq, name, inputs), nil

	case "partition":
		input, err := b.build(decl.Input)
		if err != nil {
			return nil, err
		}
		return transform.NewPartition(b.seq, name, input, partitionerFor(decl)), nil

	case "split":
		input, err := b.build(decl.Input)
		if err != nil {
			return nil, err
		}
		return transform.NewSplit(b.seq, name, input, operator.NamedSelector(decl.Selector)), nil

	case "select":
		input, err := b.build(decl.Input)
		if err != nil {
			return nil, err
		}
		return transform.NewSelect(b.seq, name, input, decl.SelectedNames), nil

	case "side_output":
		input, err := b.build(decl.Input)
		if err != nil {
			return nil, err
		}
		tag := operator.NewOutputTag(decl.Tag, types.New(decl.TagType))
		return transform.NewSideOutput(b.seq, name, input, tag), nil

	case "feedback":
		input, err := b.build(decl.Input)
		if err != nil {
			return nil, err
		}
		return transform.NewFeedback(b.seq, name, input, waitTime(decl)), nil

	case "co_feedback":
		return transform.NewCoFeedback(b.seq, name, types.New(decl.FeedbackType),
			parallelism, waitTime(decl)), nil
	}

	// Unreachable after ValidatePlan; kept for safety.
	return nil, streamweaveerrors.NewValidationError(decl.ID,
		fmt.Sprintf("unknown kind %q", decl.Kind), nil)
}

func (b *builder) attachFeedbackEdges(decl *Decl) error {
	loop := b.built[decl.ID]
	for _, ref := range decl.FeedbackEdges {
		edge := b.built[ref]

		var err error
		switch l := loop.(type) {
		case *transform.Feedback:
			err = l.AddFeedbackEdge(edge)
		case *transform.CoFeedback:
			err = l.AddFeedbackEdge(edge)
		default:
			err = fmt.Errorf("kind %q does not accept feedback edges", decl.Kind)
		}
		if err != nil {
			return streamweaveerrors.NewValidationError(decl.ID, err.Error(), err)
		}
	}
	return nil
}

func applyCommon(decl *Decl, t transform.Transformation) {
	setter, ok := t.(transform.Configurable)
	if !ok {
		return
	}

	if decl.UID != "" {
		setter.SetUID(decl.UID)
	}
	if decl.UserHash != "" {
		setter.SetUserProvidedHash(decl.UserHash)
	}
	if decl.SlotSharingGroup != "" {
		setter.SetSlotSharingGroup(decl.SlotSharingGroup)
	}
	if decl.CoLocationGroup != "" {
		setter.SetCoLocationGroupKey(decl.CoLocationGroup)
	}
	if decl.MaxParallelism > 0 {
		t.SetMaxParallelism(decl.MaxParallelism)
	}
	if decl.BufferTimeoutMS != nil {
		setter.SetBufferTimeout(time.Duration(*decl.BufferTimeoutMS) * time.Millisecond)
	}
	if decl.Resources != nil {
		setter.SetResources(
			transform.ResourceSpec{CPUCores: decl.Resources.MinCPUCores, MemoryMB: decl.Resources.MinMemoryMB},
			transform.ResourceSpec{CPUCores: decl.Resources.PreferredCPUCores, MemoryMB: decl.Resources.PreferredMemoryMB},
		)
	}
}

func partitionerFor(decl *Decl) operator.Partitioner {
	switch decl.Partitioner {
	case "forward":
		return operator.ForwardPartitioner{}
	case "rebalance":
		return operator.RebalancePartitioner{}
	case "broadcast":
		return operator.BroadcastPartitioner{}
	case "shuffle":
		return operator.ShufflePartitioner{}
	case "rescale":
		return operator.RescalePartitioner{}
	case "global":
		return operator.GlobalPartitioner{}
	case "hash":
		return operator.KeyGroupPartitioner{Selector: operator.NamedKeySelector(decl.Key)}
	}
	return nil
}

func keyType(decl *Decl) types.TypeInfo {
	if decl.KeyType == "" {
		return types.New("string")
	}
	return types.New(decl.KeyType)
}

func waitTime(decl *Decl) time.Duration {
	return time.Duration(decl.WaitTimeMS) * time.Millisecond
}
