// Package graph holds the mutable execution-graph builder the generator
// populates. Nodes and edges are only ever added, never removed; an aborted
// compilation discards the whole graph.
package graph

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/streamweave/streamweave/internal/operator"
	"github.com/streamweave/streamweave/internal/transform"
	"github.com/streamweave/streamweave/internal/types"
)

// DefaultSlotSharingGroup is assigned when nothing more specific applies.
const DefaultSlotSharingGroup = "default"

// virtualNode carries one edge property on behalf of a real upstream node.
// Virtual ids share the namespace of real ids but never become StreamNodes.
type virtualNode struct {
	underlyingID  int
	partitioner   operator.Partitioner
	selectedNames []string
	outputTag     *operator.OutputTag
}

// IterationPair is the synthetic source/sink closing one feedback loop.
type IterationPair struct {
	Source   *StreamNode
	Sink     *StreamNode
	WaitTime time.Duration
}

// StreamGraph is the compiled execution graph handed to the scheduler.
type StreamGraph struct {
	jobID   uuid.UUID
	jobName string

	nodes   map[int]*StreamNode
	virtual map[int]virtualNode
	sources map[int]struct{}
	sinks   map[int]struct{}
	edges   []*StreamEdge

	iterationPairs []IterationPair
}

// New returns an empty StreamGraph with a fresh job id.
func New(jobName string) *StreamGraph {
	return &StreamGraph{
		jobID:   uuid.New(),
		jobName: jobName,
		nodes:   make(map[int]*StreamNode),
		virtual: make(map[int]virtualNode),
		sources: make(map[int]struct{}),
		sinks:   make(map[int]struct{}),
	}
}

// JobID returns the compilation pass identity.
func (g *StreamGraph) JobID() uuid.UUID { return g.jobID }

// JobName returns the job name the graph was compiled for.
func (g *StreamGraph) JobName() string { return g.jobName }

func (g *StreamGraph) addNode(id int, slotSharingGroup, coLocationGroup string, op operator.Ref, inType, outType types.TypeInfo, name string) (*StreamNode, error) {
	if _, exists := g.nodes[id]; exists {
		return nil, fmt.Errorf("duplicate node id %d", id)
	}
	if _, exists := g.virtual[id]; exists {
		return nil, fmt.Errorf("node id %d is already a virtual node", id)
	}

	node := &StreamNode{
		ID:               id,
		Name:             name,
		SlotSharingGroup: slotSharingGroup,
		CoLocationGroup:  coLocationGroup,
		Operator:         op,
		InType:           inType,
		OutType:          outType,
		MaxParallelism:   -1,
		BufferTimeout:    -1,
	}
	g.nodes[id] = node
	return node, nil
}

// AddSource creates a source node.
func (g *StreamGraph) AddSource(id int, slotSharingGroup, coLocationGroup string, op operator.Ref, outType types.TypeInfo, name string) error {
	if _, err := g.addNode(id, slotSharingGroup, coLocationGroup, op, types.TypeInfo{}, outType, name); err != nil {
		return err
	}
	g.sources[id] = struct{}{}
	return nil
}

// AddSink creates a sink node.
func (g *StreamGraph) AddSink(id int, slotSharingGroup, coLocationGroup string, op operator.Ref, inType types.TypeInfo, name string) error {
	if _, err := g.addNode(id, slotSharingGroup, coLocationGroup, op, inType, types.TypeInfo{}, name); err != nil {
		return err
	}
	g.sinks[id] = struct{}{}
	return nil
}

// AddOperator creates a single-input operator node.
func (g *StreamGraph) AddOperator(id int, slotSharingGroup, coLocationGroup string, op operator.Ref, inType, outType types.TypeInfo, name string) error {
	_, err := g.addNode(id, slotSharingGroup, coLocationGroup, op, inType, outType, name)
	return err
}

// AddCoOperator creates a two-input operator node.
func (g *StreamGraph) AddCoOperator(id int, slotSharingGroup, coLocationGroup string, op operator.Ref, inType1, inType2, outType types.TypeInfo, name string) error {
	node, err := g.addNode(id, slotSharingGroup, coLocationGroup, op, inType1, outType, name)
	if err != nil {
		return err
	}
	node.InType2 = inType2
	return nil
}

func (g *StreamGraph) addVirtual(originalID, virtualID int, vn virtualNode) error {
	if _, exists := g.virtual[virtualID]; exists {
		return fmt.Errorf("duplicate virtual node id %d", virtualID)
	}
	if _, exists := g.nodes[virtualID]; exists {
		return fmt.Errorf("virtual node id %d is already a real node", virtualID)
	}
	vn.underlyingID = originalID
	g.virtual[virtualID] = vn
	return nil
}

// AddVirtualPartitionNode registers a virtual node carrying a partitioner on
// behalf of the original node.
func (g *StreamGraph) AddVirtualPartitionNode(originalID, virtualID int, partitioner operator.Partitioner) error {
	return g.addVirtual(originalID, virtualID, virtualNode{partitioner: partitioner})
}

// AddVirtualSelectNode registers a virtual node carrying selected branch
// names on behalf of the original node.
func (g *StreamGraph) AddVirtualSelectNode(originalID, virtualID int, selectedNames []string) error {
	return g.addVirtual(originalID, virtualID, virtualNode{selectedNames: selectedNames})
}

// AddVirtualSideOutputNode registers a virtual node carrying a side-output
// tag on behalf of the original node.
func (g *StreamGraph) AddVirtualSideOutputNode(originalID, virtualID int, tag operator.OutputTag) error {
	return g.addVirtual(originalID, virtualID, virtualNode{outputTag: &tag})
}

// ResolveID follows the virtual chain from id down to the underlying real
// node id. Real ids resolve to themselves.
func (g *StreamGraph) ResolveID(id int) int {
	for {
		vn, ok := g.virtual[id]
		if !ok {
			return id
		}
		id = vn.underlyingID
	}
}

// IsVirtual reports whether id names a virtual node.
func (g *StreamGraph) IsVirtual(id int) bool {
	_, ok := g.virtual[id]
	return ok
}

// AddOutputSelector attaches a split selector to the real node behind id.
func (g *StreamGraph) AddOutputSelector(id int, selector operator.OutputSelector) error {
	node, ok := g.nodes[g.ResolveID(id)]
	if !ok {
		return fmt.Errorf("unknown node id %d", id)
	}
	node.OutputSelectors = append(node.OutputSelectors, selector)
	return nil
}

// AddEdge connects sourceID to targetID. A virtual sourceID is transparently
// rewritten to the underlying real node; walking the chain, the outermost
// occurrence of each property kind wins. When no partitioner was attached,
// forward is chosen if both endpoints run at the same parallelism, rebalance
// otherwise.
func (g *StreamGraph) AddEdge(sourceID, targetID, typeNumber int) error {
	var partitioner operator.Partitioner
	var selectedNames []string
	var outputTag *operator.OutputTag

	id := sourceID
	for {
		vn, ok := g.virtual[id]
		if !ok {
			break
		}
		if partitioner == nil {
			partitioner = vn.partitioner
		}
		if len(selectedNames) == 0 {
			selectedNames = vn.selectedNames
		}
		if outputTag == nil {
			outputTag = vn.outputTag
		}
		id = vn.underlyingID
	}

	upstream, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("unknown edge source id %d", sourceID)
	}
	target, ok := g.nodes[targetID]
	if !ok {
		return fmt.Errorf("unknown edge target id %d", targetID)
	}

	if partitioner == nil {
		if upstream.Parallelism == target.Parallelism {
			partitioner = operator.ForwardPartitioner{}
		} else {
			partitioner = operator.RebalancePartitioner{}
		}
	}

	edge := &StreamEdge{
		SourceID:      upstream.ID,
		TargetID:      target.ID,
		TypeNumber:    typeNumber,
		Partitioner:   partitioner,
		SelectedNames: selectedNames,
		OutputTag:     outputTag,
	}
	upstream.OutEdges = append(upstream.OutEdges, edge)
	target.InEdges = append(target.InEdges, edge)
	g.edges = append(g.edges, edge)
	return nil
}

// CreateIterationSourceAndSink creates the synthetic node pair closing the
// feedback loop identified by loopID. The pair shares the loop's wait time,
// parallelism and resource bounds; its slot-sharing group is assigned later,
// once all feedback edges are known.
func (g *StreamGraph) CreateIterationSourceAndSink(loopID, sourceID, sinkID int, waitTime time.Duration, parallelism, maxParallelism int, minResources, preferredResources *transform.ResourceSpec) (*StreamNode, *StreamNode, error) {
	source, err := g.addNode(sourceID, "", "", operator.Ref{}, types.TypeInfo{}, types.TypeInfo{},
		fmt.Sprintf("IterationSource-%d", loopID))
	if err != nil {
		return nil, nil, err
	}
	source.Parallelism = parallelism
	source.MaxParallelism = maxParallelism
	source.MinResources = minResources
	source.PreferredResources = preferredResources
	g.sources[sourceID] = struct{}{}

	sink, err := g.addNode(sinkID, "", "", operator.Ref{}, types.TypeInfo{}, types.TypeInfo{},
		fmt.Sprintf("IterationSink-%d", loopID))
	if err != nil {
		return nil, nil, err
	}
	sink.Parallelism = parallelism
	sink.MaxParallelism = maxParallelism
	sink.MinResources = minResources
	sink.PreferredResources = preferredResources
	g.sinks[sinkID] = struct{}{}

	pair := IterationPair{Source: source, Sink: sink, WaitTime: waitTime}
	g.iterationPairs = append(g.iterationPairs, pair)
	return source, sink, nil
}

// Node returns the real node with the given id, nil if absent.
func (g *StreamGraph) Node(id int) *StreamNode {
	return g.nodes[id]
}

// SlotSharingGroupOf returns the slot-sharing group of the real node behind
// id. ok is false when the node is unknown or its group is still unassigned.
func (g *StreamGraph) SlotSharingGroupOf(id int) (string, bool) {
	node, ok := g.nodes[g.ResolveID(id)]
	if !ok || node.SlotSharingGroup == "" {
		return "", false
	}
	return node.SlotSharingGroup, true
}

// SetSlotSharingGroup assigns the group of an existing node.
func (g *StreamGraph) SetSlotSharingGroup(id int, group string) {
	if node, ok := g.nodes[id]; ok {
		node.SlotSharingGroup = group
	}
}

// SetParallelism sets the parallelism of an existing node.
func (g *StreamGraph) SetParallelism(id, parallelism int) {
	if node, ok := g.nodes[id]; ok {
		node.Parallelism = parallelism
	}
}

// SetMaxParallelism sets the maximum parallelism of an existing node.
func (g *StreamGraph) SetMaxParallelism(id, maxParallelism int) {
	if node, ok := g.nodes[id]; ok {
		node.MaxParallelism = maxParallelism
	}
}

// SetBufferTimeout sets the buffer timeout keyed by transformation id. Ids
// without a physical node (unions, virtual indirections) are ignored.
func (g *StreamGraph) SetBufferTimeout(id int, timeout time.Duration) {
	if node, ok := g.nodes[id]; ok {
		node.BufferTimeout = timeout
	}
}

// SetUID records a user-assigned stable identifier keyed by transformation id.
func (g *StreamGraph) SetUID(id int, uid string) {
	if node, ok := g.nodes[id]; ok {
		node.UID = uid
	}
}

// SetUserHash records a user-provided node hash keyed by transformation id.
func (g *StreamGraph) SetUserHash(id int, hash string) {
	if node, ok := g.nodes[id]; ok {
		node.UserHash = hash
	}
}

// SetResources records the paired resource bounds keyed by transformation id.
func (g *StreamGraph) SetResources(id int, min, preferred transform.ResourceSpec) {
	if node, ok := g.nodes[id]; ok {
		node.MinResources = &min
		node.PreferredResources = &preferred
	}
}

// SetSerializers wires the in/out serializers of an existing node. Zero
// serializers leave the corresponding slot untouched.
func (g *StreamGraph) SetSerializers(id int, in, out types.Serializer) {
	node, ok := g.nodes[id]
	if !ok {
		return
	}
	if !in.IsZero() {
		node.InSerializer = in
	}
	if !out.IsZero() {
		node.OutSerializer = out
	}
}

// SetInputFormat stores the input format driving a format source node.
func (g *StreamGraph) SetInputFormat(id int, format operator.InputFormat) {
	if node, ok := g.nodes[id]; ok {
		node.InputFormat = format
	}
}

// SetOneInputStateKey keys an existing single-input node's state.
func (g *StreamGraph) SetOneInputStateKey(id int, selector operator.KeySelector, keySerializer types.Serializer) {
	if node, ok := g.nodes[id]; ok {
		node.StateKeySelectors = []operator.KeySelector{selector}
		node.StateKeySerializer = keySerializer
	}
}

// SetTwoInputStateKey keys an existing two-input node's state.
func (g *StreamGraph) SetTwoInputStateKey(id int, selector1, selector2 operator.KeySelector, keySerializer types.Serializer) {
	if node, ok := g.nodes[id]; ok {
		node.StateKeySelectors = []operator.KeySelector{selector1, selector2}
		node.StateKeySerializer = keySerializer
	}
}

// Nodes returns all real nodes sorted by id.
func (g *StreamGraph) Nodes() []*StreamNode {
	nodes := make([]*StreamNode, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Edges returns all edges in insertion order.
func (g *StreamGraph) Edges() []*StreamEdge {
	return append([]*StreamEdge(nil), g.edges...)
}

// SourceIDs returns the ids of all source nodes, sorted.
func (g *StreamGraph) SourceIDs() []int {
	return sortedIDs(g.sources)
}

// SinkIDs returns the ids of all sink nodes, sorted.
func (g *StreamGraph) SinkIDs() []int {
	return sortedIDs(g.sinks)
}

// IterationPairs returns the synthetic source/sink pairs in creation order.
func (g *StreamGraph) IterationPairs() []IterationPair {
	return append([]IterationPair(nil), g.iterationPairs...)
}

// VirtualNodeCount returns how many virtual indirections were registered.
func (g *StreamGraph) VirtualNodeCount() int {
	return len(g.virtual)
}

func sortedIDs(set map[int]struct{}) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
