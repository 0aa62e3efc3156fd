package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/streamweave/streamweave/internal/operator"
	"github.com/streamweave/streamweave/internal/transform"
	"github.com/streamweave/streamweave/internal/types"
)

func newTestGraph(t *testing.T) *StreamGraph {
	t.Helper()
	return New("test-job")
}

func addOperatorNode(t *testing.T, g *StreamGraph, id, parallelism int, name string) {
	t.Helper()
	op := operator.NewRef(name, operator.NamedFunc(name))
	require.NoError(t, g.AddOperator(id, DefaultSlotSharingGroup, "", op, types.New("string"), types.New("string"), name))
	g.SetParallelism(id, parallelism)
}

func TestAddEdge_DefaultsToForwardOnMatchingParallelism(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t)
	addOperatorNode(t, g, 1, 2, "map-a")
	addOperatorNode(t, g, 2, 2, "map-b")

	require.NoError(t, g.AddEdge(1, 2, 0))

	edges := g.Edges()
	require.Len(t, edges, 1)
	require.Equal(t, "forward", edges[0].Partitioner.Kind())
	require.Equal(t, 0, edges[0].TypeNumber)
}

func TestAddEdge_DefaultsToRebalanceOnMismatchedParallelism(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t)
	addOperatorNode(t, g, 1, 2, "map-a")
	addOperatorNode(t, g, 2, 4, "map-b")

	require.NoError(t, g.AddEdge(1, 2, 0))
	require.Equal(t, "rebalance", g.Edges()[0].Partitioner.Kind())
}

func TestAddEdge_ResolvesVirtualPartitionNode(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t)
	addOperatorNode(t, g, 1, 2, "map-a")
	addOperatorNode(t, g, 2, 2, "map-b")

	require.NoError(t, g.AddVirtualPartitionNode(1, 3, operator.BroadcastPartitioner{}))
	require.NoError(t, g.AddEdge(3, 2, 0))

	edges := g.Edges()
	require.Len(t, edges, 1)
	require.Equal(t, 1, edges[0].SourceID)
	require.Equal(t, 2, edges[0].TargetID)
	require.Equal(t, "broadcast", edges[0].Partitioner.Kind())
}

func TestAddEdge_ComposesChainedVirtualProperties(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t)
	addOperatorNode(t, g, 1, 2, "splitter")
	addOperatorNode(t, g, 2, 2, "consumer")

	// splitter -> partition(4) -> select(5) -> consumer
	require.NoError(t, g.AddVirtualPartitionNode(1, 4, operator.ShufflePartitioner{}))
	require.NoError(t, g.AddVirtualSelectNode(4, 5, []string{"evens"}))
	require.NoError(t, g.AddEdge(5, 2, 0))

	edges := g.Edges()
	require.Len(t, edges, 1)
	require.Equal(t, 1, edges[0].SourceID)
	require.Equal(t, "shuffle", edges[0].Partitioner.Kind())
	require.Equal(t, []string{"evens"}, edges[0].SelectedNames)
}

func TestAddEdge_OutermostVirtualPropertyWins(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t)
	addOperatorNode(t, g, 1, 2, "src")
	addOperatorNode(t, g, 2, 2, "dst")

	require.NoError(t, g.AddVirtualPartitionNode(1, 3, operator.ShufflePartitioner{}))
	require.NoError(t, g.AddVirtualPartitionNode(3, 4, operator.BroadcastPartitioner{}))
	require.NoError(t, g.AddEdge(4, 2, 0))

	require.Equal(t, "broadcast", g.Edges()[0].Partitioner.Kind())
}

func TestAddEdge_CarriesSideOutputTag(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t)
	addOperatorNode(t, g, 1, 1, "process")
	addOperatorNode(t, g, 2, 1, "late-handler")

	tag := operator.NewOutputTag("late", types.New("event"))
	require.NoError(t, g.AddVirtualSideOutputNode(1, 3, tag))
	require.NoError(t, g.AddEdge(3, 2, 0))

	edges := g.Edges()
	require.NotNil(t, edges[0].OutputTag)
	require.Equal(t, "late", edges[0].OutputTag.ID())
}

func TestAddEdge_RejectsUnknownEndpoints(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t)
	addOperatorNode(t, g, 1, 1, "only")

	require.Error(t, g.AddEdge(1, 99, 0))
	require.Error(t, g.AddEdge(99, 1, 0))
}

func TestAddNode_RejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t)
	addOperatorNode(t, g, 1, 1, "a")

	op := operator.NewRef("b", operator.NamedFunc("b"))
	require.Error(t, g.AddOperator(1, DefaultSlotSharingGroup, "", op, types.New("string"), types.New("string"), "b"))
	require.Error(t, g.AddVirtualPartitionNode(1, 1, operator.ForwardPartitioner{}))
}

func TestAddOutputSelector_ResolvesThroughVirtualChain(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t)
	addOperatorNode(t, g, 1, 1, "upstream")
	require.NoError(t, g.AddVirtualPartitionNode(1, 2, operator.ForwardPartitioner{}))

	require.NoError(t, g.AddOutputSelector(2, operator.NamedSelector("split-odd-even")))
	require.Len(t, g.Node(1).OutputSelectors, 1)
}

func TestCreateIterationSourceAndSink(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t)
	min := transform.ResourceSpec{CPUCores: 0.5, MemoryMB: 128}
	pref := transform.ResourceSpec{CPUCores: 1, MemoryMB: 256}

	source, sink, err := g.CreateIterationSourceAndSink(7, -1, -2, 5*time.Second, 3, 128, &min, &pref)
	require.NoError(t, err)

	require.Equal(t, "IterationSource-7", source.Name)
	require.Equal(t, "IterationSink-7", sink.Name)
	require.Equal(t, 3, source.Parallelism)
	require.Equal(t, 128, sink.MaxParallelism)
	require.Equal(t, &min, source.MinResources)

	require.Contains(t, g.SourceIDs(), -1)
	require.Contains(t, g.SinkIDs(), -2)

	pairs := g.IterationPairs()
	require.Len(t, pairs, 1)
	require.Equal(t, 5*time.Second, pairs[0].WaitTime)
}

func TestSlotSharingGroupOf_ResolvesVirtualIDs(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t)
	op := operator.NewRef("a", operator.NamedFunc("a"))
	require.NoError(t, g.AddOperator(1, "pipeline", "", op, types.New("string"), types.New("string"), "a"))
	require.NoError(t, g.AddVirtualPartitionNode(1, 2, operator.ForwardPartitioner{}))

	group, ok := g.SlotSharingGroupOf(2)
	require.True(t, ok)
	require.Equal(t, "pipeline", group)

	_, ok = g.SlotSharingGroupOf(42)
	require.False(t, ok)
}

func TestNodes_SortedByID(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t)
	addOperatorNode(t, g, 3, 1, "c")
	addOperatorNode(t, g, 1, 1, "a")
	addOperatorNode(t, g, 2, 1, "b")

	nodes := g.Nodes()
	require.Len(t, nodes, 3)
	require.Equal(t, []int{1, 2, 3}, []int{nodes[0].ID, nodes[1].ID, nodes[2].ID})
}

func TestSetters_IgnoreIDsWithoutNodes(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t)
	g.SetBufferTimeout(99, time.Second)
	g.SetUID(99, "u")
	g.SetUserHash(99, "h")
	g.SetResources(99, transform.ResourceSpec{}, transform.ResourceSpec{})
	require.Nil(t, g.Node(99))
}
