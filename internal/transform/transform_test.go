package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/streamweave/streamweave/internal/operator"
	"github.com/streamweave/streamweave/internal/types"
)

func TestSequence_IDsAreAscendingFromOne(t *testing.T) {
	t.Parallel()

	seq := NewSequence()

	src := NewSource(seq, "src", operator.NewRef("src", operator.NamedFunc("src")), types.New("string"), 1)
	mapped := NewOneInput(seq, "map", src, operator.NewRef("map", operator.NamedFunc("map")), types.New("string"), 1)
	sink := NewSink(seq, "out", mapped, operator.NewRef("out", operator.NamedFunc("out")), 1)

	require.Equal(t, 1, src.ID())
	require.Equal(t, 2, mapped.ID())
	require.Equal(t, 3, sink.ID())
}

func TestAttrs_Defaults(t *testing.T) {
	t.Parallel()

	seq := NewSequence()
	src := NewSource(seq, "src", operator.NewRef("src", operator.NamedFunc("src")), types.New("string"), 4)

	require.Equal(t, 4, src.Parallelism())
	require.Equal(t, -1, src.MaxParallelism())
	require.Negative(t, src.BufferTimeout())
	require.Empty(t, src.SlotSharingGroup())
	require.Empty(t, src.UID())
	require.Nil(t, src.MinResources())
	require.Nil(t, src.PreferredResources())
}

func TestAttrs_Setters(t *testing.T) {
	t.Parallel()

	seq := NewSequence()
	src := NewSource(seq, "src", operator.NewRef("src", operator.NamedFunc("src")), types.New("string"), 1)

	src.SetMaxParallelism(128)
	src.SetSlotSharingGroup("pipeline")
	src.SetCoLocationGroupKey("loop-1")
	src.SetUID("stable-src")
	src.SetUserProvidedHash("cafebabe")
	src.SetBufferTimeout(100 * time.Millisecond)
	src.SetResources(ResourceSpec{CPUCores: 0.5, MemoryMB: 256}, ResourceSpec{CPUCores: 1, MemoryMB: 512})

	require.Equal(t, 128, src.MaxParallelism())
	require.Equal(t, "pipeline", src.SlotSharingGroup())
	require.Equal(t, "loop-1", src.CoLocationGroupKey())
	require.Equal(t, "stable-src", src.UID())
	require.Equal(t, "cafebabe", src.UserProvidedHash())
	require.Equal(t, 100*time.Millisecond, src.BufferTimeout())
	require.Equal(t, 0.5, src.MinResources().CPUCores)
	require.Equal(t, 512, src.PreferredResources().MemoryMB)
}

func TestFeedback_RejectsMismatchedParallelism(t *testing.T) {
	t.Parallel()

	seq := NewSequence()
	src := NewSource(seq, "src", operator.NewRef("src", operator.NamedFunc("src")), types.New("long"), 2)
	loop := NewFeedback(seq, "loop", src, time.Second)

	edge := NewOneInput(seq, "step", loop, operator.NewRef("step", operator.NamedFunc("step")), types.New("long"), 3)
	require.Error(t, loop.AddFeedbackEdge(edge))
	require.Empty(t, loop.FeedbackEdges())

	matching := NewOneInput(seq, "step2", loop, operator.NewRef("step2", operator.NamedFunc("step2")), types.New("long"), 2)
	require.NoError(t, loop.AddFeedbackEdge(matching))
	require.Len(t, loop.FeedbackEdges(), 1)
}

func TestCoFeedback_RejectsMismatchedParallelism(t *testing.T) {
	t.Parallel()

	seq := NewSequence()
	loop := NewCoFeedback(seq, "co-loop", types.New("long"), 2, time.Second)

	src := NewSource(seq, "src", operator.NewRef("src", operator.NamedFunc("src")), types.New("long"), 4)
	require.Error(t, loop.AddFeedbackEdge(src))

	matching := NewSource(seq, "src2", operator.NewRef("src2", operator.NamedFunc("src2")), types.New("long"), 2)
	require.NoError(t, loop.AddFeedbackEdge(matching))
}

func TestUnion_TakesTypeAndParallelismFromFirstInput(t *testing.T) {
	t.Parallel()

	seq := NewSequence()
	a := NewSource(seq, "a", operator.NewRef("a", operator.NamedFunc("a")), types.New("string"), 3)
	b := NewSource(seq, "b", operator.NewRef("b", operator.NamedFunc("b")), types.New("string"), 5)

	u := NewUnion(seq, "union", []Transformation{a, b})
	require.Equal(t, "string", u.OutputType().Name())
	require.Equal(t, 3, u.Parallelism())
	require.Len(t, u.Inputs(), 2)
}
