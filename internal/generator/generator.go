// Package generator lowers a tree of logical transformations into a physical
// stream graph.
//
// The traversal starts from the terminal (sink) transformations and
// recursively resolves inputs first, so every edge endpoint exists before the
// edge referencing it. Each transformation is lowered at most once; the memo
// table returns the cached exit ids for transformations reachable from
// several terminals. Feedback variants pre-register their exit ids before
// descending into the feedback edges, which is what lets a cyclic tree
// terminate.
//
// Partition, Select and SideOutput never create physical nodes. They register
// virtual ids that carry the routing property; the graph rewrites edges from
// virtual ids onto the underlying real node. For example
//
//	Map-1 -> HashPartition-2 -> Map-3
//
// lowers to nodes 1 and 3 and a single edge 1->3 carrying the hash
// partitioner.
package generator

import (
	"errors"
	"fmt"

	"github.com/streamweave/streamweave/internal/config"
	"github.com/streamweave/streamweave/internal/graph"
	"github.com/streamweave/streamweave/internal/logger"
	"github.com/streamweave/streamweave/internal/operator"
	"github.com/streamweave/streamweave/internal/transform"
	"github.com/streamweave/streamweave/internal/types"
	streamweaveerrors "github.com/streamweave/streamweave/pkg/errors"
)

type visitState uint8

const (
	// visitPending is set by the feedback variants before descending into
	// their feedback edges; the entry already carries the final exit ids.
	visitPending visitState = iota + 1
	visitDone
)

type memoEntry struct {
	state visitState
	ids   []int
}

// Generator performs one compilation pass. It owns the memo table and the
// descending iteration-id counter; independent passes never share either.
type Generator struct {
	graph *graph.StreamGraph
	job   *config.Job
	seq   *transform.Sequence
	memo  map[int]memoEntry
	log   *logger.Logger

	nextIterationID int
}

// Generate lowers the given terminal transformations into a StreamGraph. The
// Sequence must be the one that assigned the tree's transformation ids;
// virtual ids are drawn from it so the id namespace stays consistent.
func Generate(job *config.Job, seq *transform.Sequence, terminals []transform.Transformation, log *logger.Logger) (*graph.StreamGraph, error) {
	g := &Generator{
		graph: graph.New(job.Name),
		job:   job,
		seq:   seq,
		memo:  make(map[int]memoEntry),
		log:   log,
	}

	for _, t := range terminals {
		if _, err := g.transform(t); err != nil {
			return nil, err
		}
	}
	return g.graph, nil
}

func (g *Generator) newIterationNodeID() int {
	g.nextIterationID--
	return g.nextIterationID
}

// transform resolves one transformation and returns its exit ids. Resolved
// transformations are cached; re-encountering one returns the cached ids
// without side effects.
func (g *Generator) transform(t transform.Transformation) ([]int, error) {
	if entry, ok := g.memo[t.ID()]; ok {
		return entry.ids, nil
	}

	g.log.Debug(fmt.Sprintf("transforming %s-%d", t.Name(), t.ID()))

	if t.MaxParallelism() <= 0 && g.job.DefaultMaxParallelism > 0 {
		t.SetMaxParallelism(g.job.DefaultMaxParallelism)
	}

	// Force the output type once so inference failures abort before any
	// graph mutation for this transformation.
	if err := t.OutputType().Force(); err != nil {
		return nil, g.fail(t, err)
	}

	var ids []int
	var err error
	switch tr := t.(type) {
	case *transform.Source:
		ids, err = g.transformSource(tr)
	case *transform.Sink:
		ids, err = g.transformSink(tr)
	case *transform.OneInput:
		ids, err = g.transformOneInput(tr)
	case *transform.TwoInput:
		ids, err = g.transformTwoInput(tr)
	case *transform.Union:
		ids, err = g.transformUnion(tr)
	case *transform.Partition:
		ids, err = g.transformPartition(tr)
	case *transform.Split:
		ids, err = g.transformSplit(tr)
	case *transform.Select:
		ids, err = g.transformSelect(tr)
	case *transform.SideOutput:
		ids, err = g.transformSideOutput(tr)
	case *transform.Feedback:
		ids, err = g.transformFeedback(tr)
	case *transform.CoFeedback:
		ids, err = g.transformCoFeedback(tr)
	default:
		err = fmt.Errorf("%w: %T", ErrUnknownTransformation, t)
	}
	if err != nil {
		return nil, g.fail(t, err)
	}

	// The feedback variants insert their own entry before lowering their
	// feedback edges; only mark those done here.
	if entry, ok := g.memo[t.ID()]; ok {
		if entry.state == visitPending {
			g.memo[t.ID()] = memoEntry{state: visitDone, ids: entry.ids}
		}
	} else {
		g.memo[t.ID()] = memoEntry{state: visitDone, ids: ids}
	}

	if t.BufferTimeout() >= 0 {
		g.graph.SetBufferTimeout(t.ID(), t.BufferTimeout())
	} else if defaultTimeout, ok := g.job.DefaultBufferTimeout(); ok {
		g.graph.SetBufferTimeout(t.ID(), defaultTimeout)
	}
	if t.UID() != "" {
		g.graph.SetUID(t.ID(), t.UID())
	}
	if t.UserProvidedHash() != "" {
		g.graph.SetUserHash(t.ID(), t.UserProvidedHash())
	}
	if !g.job.HasAutoGeneratedUIDs() && t.UID() == "" && t.UserProvidedHash() == "" {
		return nil, g.fail(t, ErrMissingUID)
	}
	if t.MinResources() != nil && t.PreferredResources() != nil {
		g.graph.SetResources(t.ID(), *t.MinResources(), *t.PreferredResources())
	}

	return ids, nil
}

func (g *Generator) transformSource(source *transform.Source) ([]int, error) {
	slotSharingGroup := g.determineSlotSharingGroup(source.SlotSharingGroup(), nil)

	if err := g.graph.AddSource(source.ID(), slotSharingGroup, source.CoLocationGroupKey(),
		source.Operator(), source.OutputType(), "Source: "+source.Name()); err != nil {
		return nil, err
	}

	if formatSource, ok := source.Operator().Function().(operator.FormatSource); ok {
		g.graph.SetInputFormat(source.ID(), formatSource.Format())
	}

	g.graph.SetParallelism(source.ID(), source.Parallelism())
	g.graph.SetMaxParallelism(source.ID(), source.MaxParallelism())
	return []int{source.ID()}, nil
}

// transformSink lowers a sink and returns an empty exit set: nothing
// downstream can attach to a sink.
func (g *Generator) transformSink(sink *transform.Sink) ([]int, error) {
	inputIDs, err := g.transform(sink.Input())
	if err != nil {
		return nil, err
	}

	slotSharingGroup := g.determineSlotSharingGroup(sink.SlotSharingGroup(), inputIDs)

	if err := g.graph.AddSink(sink.ID(), slotSharingGroup, sink.CoLocationGroupKey(),
		sink.Operator(), sink.Input().OutputType(), "Sink: "+sink.Name()); err != nil {
		return nil, err
	}

	g.graph.SetParallelism(sink.ID(), sink.Parallelism())
	g.graph.SetMaxParallelism(sink.ID(), sink.MaxParallelism())

	for _, inputID := range inputIDs {
		if err := g.graph.AddEdge(inputID, sink.ID(), 0); err != nil {
			return nil, err
		}
	}

	if sink.StateKeySelector() != nil {
		keySerializer, err := g.job.SerializerFactory().Create(sink.StateKeyType())
		if err != nil {
			return nil, err
		}
		g.graph.SetOneInputStateKey(sink.ID(), sink.StateKeySelector(), keySerializer)
	}

	return nil, nil
}

func (g *Generator) transformOneInput(t *transform.OneInput) ([]int, error) {
	inputIDs, err := g.transform(t.Input())
	if err != nil {
		return nil, err
	}

	// The recursive call above might have lowered this already.
	if entry, ok := g.memo[t.ID()]; ok {
		return entry.ids, nil
	}

	slotSharingGroup := g.determineSlotSharingGroup(t.SlotSharingGroup(), inputIDs)

	if err := g.graph.AddOperator(t.ID(), slotSharingGroup, t.CoLocationGroupKey(),
		t.Operator(), t.InputType(), t.OutputType(), t.Name()); err != nil {
		return nil, err
	}

	if t.StateKeySelector() != nil {
		keySerializer, err := g.job.SerializerFactory().Create(t.StateKeyType())
		if err != nil {
			return nil, err
		}
		g.graph.SetOneInputStateKey(t.ID(), t.StateKeySelector(), keySerializer)
	}

	g.graph.SetParallelism(t.ID(), t.Parallelism())
	g.graph.SetMaxParallelism(t.ID(), t.MaxParallelism())

	for _, inputID := range inputIDs {
		if err := g.graph.AddEdge(inputID, t.ID(), 0); err != nil {
			return nil, err
		}
	}

	return []int{t.ID()}, nil
}

func (g *Generator) transformTwoInput(t *transform.TwoInput) ([]int, error) {
	inputIDs1, err := g.transform(t.Input1())
	if err != nil {
		return nil, err
	}
	inputIDs2, err := g.transform(t.Input2())
	if err != nil {
		return nil, err
	}

	if entry, ok := g.memo[t.ID()]; ok {
		return entry.ids, nil
	}

	allInputIDs := make([]int, 0, len(inputIDs1)+len(inputIDs2))
	allInputIDs = append(allInputIDs, inputIDs1...)
	allInputIDs = append(allInputIDs, inputIDs2...)

	slotSharingGroup := g.determineSlotSharingGroup(t.SlotSharingGroup(), allInputIDs)

	if err := g.graph.AddCoOperator(t.ID(), slotSharingGroup, t.CoLocationGroupKey(),
		t.Operator(), t.InputType1(), t.InputType2(), t.OutputType(), t.Name()); err != nil {
		return nil, err
	}

	if t.StateKeySelector1() != nil || t.StateKeySelector2() != nil {
		keySerializer, err := g.job.SerializerFactory().Create(t.StateKeyType())
		if err != nil {
			return nil, err
		}
		g.graph.SetTwoInputStateKey(t.ID(), t.StateKeySelector1(), t.StateKeySelector2(), keySerializer)
	}

	g.graph.SetParallelism(t.ID(), t.Parallelism())
	g.graph.SetMaxParallelism(t.ID(), t.MaxParallelism())

	// Type numbers 1 and 2 let the node distinguish the two logical input
	// streams; 0 is reserved for single-input operators.
	for _, inputID := range inputIDs1 {
		if err := g.graph.AddEdge(inputID, t.ID(), 1); err != nil {
			return nil, err
		}
	}
	for _, inputID := range inputIDs2 {
		if err := g.graph.AddEdge(inputID, t.ID(), 2); err != nil {
			return nil, err
		}
	}

	return []int{t.ID()}, nil
}

// transformUnion is a pure fan-in relabeling: no node of any kind is
// created, downstream consumers wire to all of the union's inputs.
func (g *Generator) transformUnion(union *transform.Union) ([]int, error) {
	var resultIDs []int
	for _, input := range union.Inputs() {
		ids, err := g.transform(input)
		if err != nil {
			return nil, err
		}
		resultIDs = append(resultIDs, ids...)
	}
	return resultIDs, nil
}

func (g *Generator) transformPartition(partition *transform.Partition) ([]int, error) {
	inputIDs, err := g.transform(partition.Input())
	if err != nil {
		return nil, err
	}

	resultIDs := make([]int, 0, len(inputIDs))
	for _, inputID := range inputIDs {
		virtualID := g.seq.Next()
		if err := g.graph.AddVirtualPartitionNode(inputID, virtualID, partition.Partitioner()); err != nil {
			return nil, err
		}
		resultIDs = append(resultIDs, virtualID)
	}
	return resultIDs, nil
}

// transformSplit predates the virtual-node mechanism: it mutates the already
// lowered upstream nodes by attaching the output selector directly.
func (g *Generator) transformSplit(split *transform.Split) ([]int, error) {
	resultIDs, err := g.transform(split.Input())
	if err != nil {
		return nil, err
	}

	if err := validateSplitInput(split.Input()); err != nil {
		return nil, err
	}

	if entry, ok := g.memo[split.ID()]; ok {
		return entry.ids, nil
	}

	for _, inputID := range resultIDs {
		if err := g.graph.AddOutputSelector(inputID, split.Selector()); err != nil {
			return nil, err
		}
	}

	return resultIDs, nil
}

func (g *Generator) transformSelect(sel *transform.Select) ([]int, error) {
	inputIDs, err := g.transform(sel.Input())
	if err != nil {
		return nil, err
	}

	if entry, ok := g.memo[sel.ID()]; ok {
		return entry.ids, nil
	}

	virtualIDs := make([]int, 0, len(inputIDs))
	for _, inputID := range inputIDs {
		virtualID := g.seq.Next()
		if err := g.graph.AddVirtualSelectNode(inputID, virtualID, sel.SelectedNames()); err != nil {
			return nil, err
		}
		virtualIDs = append(virtualIDs, virtualID)
	}
	return virtualIDs, nil
}

func (g *Generator) transformSideOutput(sideOutput *transform.SideOutput) ([]int, error) {
	inputIDs, err := g.transform(sideOutput.Input())
	if err != nil {
		return nil, err
	}

	if entry, ok := g.memo[sideOutput.ID()]; ok {
		return entry.ids, nil
	}

	virtualIDs := make([]int, 0, len(inputIDs))
	for _, inputID := range inputIDs {
		virtualID := g.seq.Next()
		if err := g.graph.AddVirtualSideOutputNode(inputID, virtualID, sideOutput.Tag()); err != nil {
			return nil, err
		}
		virtualIDs = append(virtualIDs, virtualID)
	}
	return virtualIDs, nil
}

// transformFeedback closes a single-stream loop. The exit set is the union
// of the forward path and the synthetic iteration source, and the memo entry
// is inserted before the feedback edges are lowered so that edges which
// transitively re-reference the loop terminate instead of recursing forever.
func (g *Generator) transformFeedback(feedback *transform.Feedback) ([]int, error) {
	if len(feedback.FeedbackEdges()) == 0 {
		return nil, ErrNoFeedbackEdges
	}

	inputIDs, err := g.transform(feedback.Input())
	if err != nil {
		return nil, err
	}

	if entry, ok := g.memo[feedback.ID()]; ok {
		return entry.ids, nil
	}

	resultIDs := append([]int(nil), inputIDs...)

	itSource, itSink, err := g.graph.CreateIterationSourceAndSink(
		feedback.ID(),
		g.newIterationNodeID(),
		g.newIterationNodeID(),
		feedback.WaitTime(),
		feedback.Parallelism(),
		feedback.MaxParallelism(),
		feedback.MinResources(),
		feedback.PreferredResources(),
	)
	if err != nil {
		return nil, err
	}

	serializer, err := g.job.SerializerFactory().Create(feedback.OutputType())
	if err != nil {
		return nil, err
	}
	g.graph.SetSerializers(itSource.ID, types.Serializer{}, serializer)
	g.graph.SetSerializers(itSink.ID, serializer, types.Serializer{})

	resultIDs = append(resultIDs, itSource.ID)

	g.memo[feedback.ID()] = memoEntry{state: visitPending, ids: resultIDs}

	var allFeedbackIDs []int
	for _, feedbackEdge := range feedback.FeedbackEdges() {
		feedbackIDs, err := g.transform(feedbackEdge)
		if err != nil {
			return nil, err
		}
		allFeedbackIDs = append(allFeedbackIDs, feedbackIDs...)
		for _, feedbackID := range feedbackIDs {
			if err := g.graph.AddEdge(feedbackID, itSink.ID, 0); err != nil {
				return nil, err
			}
		}
	}

	// The pair must co-locate with the loop body, so its group is derived
	// from all feedback edges at once.
	slotSharingGroup := g.determineSlotSharingGroup("", allFeedbackIDs)
	g.graph.SetSlotSharingGroup(itSink.ID, slotSharingGroup)
	g.graph.SetSlotSharingGroup(itSource.ID, slotSharingGroup)

	return resultIDs, nil
}

// transformCoFeedback closes a loop into the second input of a two-input
// operator. The forward input is not resolved here at all; the caller wires
// it directly as the downstream operator's first input.
func (g *Generator) transformCoFeedback(coFeedback *transform.CoFeedback) ([]int, error) {
	if len(coFeedback.FeedbackEdges()) == 0 {
		return nil, ErrNoFeedbackEdges
	}

	itSource, itSink, err := g.graph.CreateIterationSourceAndSink(
		coFeedback.ID(),
		g.newIterationNodeID(),
		g.newIterationNodeID(),
		coFeedback.WaitTime(),
		coFeedback.Parallelism(),
		coFeedback.MaxParallelism(),
		coFeedback.MinResources(),
		coFeedback.PreferredResources(),
	)
	if err != nil {
		return nil, err
	}

	serializer, err := g.job.SerializerFactory().Create(coFeedback.OutputType())
	if err != nil {
		return nil, err
	}
	g.graph.SetSerializers(itSource.ID, types.Serializer{}, serializer)
	g.graph.SetSerializers(itSink.ID, serializer, types.Serializer{})

	resultIDs := []int{itSource.ID}

	g.memo[coFeedback.ID()] = memoEntry{state: visitPending, ids: resultIDs}

	var allFeedbackIDs []int
	for _, feedbackEdge := range coFeedback.FeedbackEdges() {
		feedbackIDs, err := g.transform(feedbackEdge)
		if err != nil {
			return nil, err
		}
		allFeedbackIDs = append(allFeedbackIDs, feedbackIDs...)
		for _, feedbackID := range feedbackIDs {
			if err := g.graph.AddEdge(feedbackID, itSink.ID, 0); err != nil {
				return nil, err
			}
		}
	}

	slotSharingGroup := g.determineSlotSharingGroup("", allFeedbackIDs)
	g.graph.SetSlotSharingGroup(itSink.ID, slotSharingGroup)
	g.graph.SetSlotSharingGroup(itSource.ID, slotSharingGroup)

	return resultIDs, nil
}

// determineSlotSharingGroup picks the slot-sharing group for a node. An
// explicit group wins; otherwise the inputs' groups are adopted when they
// are unanimous, and "default" is used when they disagree or there are no
// inputs.
func (g *Generator) determineSlotSharingGroup(specifiedGroup string, inputIDs []int) string {
	if specifiedGroup != "" {
		return specifiedGroup
	}

	first := true
	var inputGroup string
	var inputGroupKnown bool
	for _, id := range inputIDs {
		candidate, known := g.graph.SlotSharingGroupOf(id)
		if first {
			inputGroup, inputGroupKnown, first = candidate, known, false
			continue
		}
		if candidate != inputGroup || known != inputGroupKnown {
			return graph.DefaultSlotSharingGroup
		}
	}
	if first || !inputGroupKnown {
		return graph.DefaultSlotSharingGroup
	}
	return inputGroup
}

// validateSplitInput rejects illegal split chains. It walks through unions
// (all branches) and partitions (their input) but deliberately not through
// select or side-output ancestors beyond the direct-parent checks.
func validateSplitInput(input transform.Transformation) error {
	switch in := input.(type) {
	case *transform.Select, *transform.Split:
		return ErrConsecutiveSplits
	case *transform.SideOutput:
		return ErrSplitAfterSideOutput
	case *transform.Union:
		for _, branch := range in.Inputs() {
			if err := validateSplitInput(branch); err != nil {
				return err
			}
		}
		return nil
	case *transform.Partition:
		return validateSplitInput(in.Input())
	default:
		return nil
	}
}

// fail wraps err with the failing transformation's identity, unless a deeper
// frame already did.
func (g *Generator) fail(t transform.Transformation, err error) error {
	var genErr *streamweaveerrors.GenerationError
	if errors.As(err, &genErr) {
		return err
	}
	return streamweaveerrors.NewGenerationError(fmt.Sprintf("%s-%d", t.Name(), t.ID()), err)
}
