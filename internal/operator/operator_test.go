package operator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/streamweave/streamweave/internal/types"
)

func TestRef_WrapsFunction(t *testing.T) {
	t.Parallel()

	ref := NewRef("tokenize", NamedFunc("tokenize"))
	require.Equal(t, "tokenize", ref.Name())
	require.Equal(t, "tokenize", ref.Function().Name())
	require.False(t, ref.IsZero())
	require.True(t, Ref{}.IsZero())
}

func TestFormatFunc_IsDetectedAsFormatSource(t *testing.T) {
	t.Parallel()

	ref := NewRef("read-lines", FormatFunc{FuncName: "read-lines", In: FileFormat{Path: "/data/*.txt"}})

	fs, ok := ref.Function().(FormatSource)
	require.True(t, ok)
	require.Equal(t, "file: /data/*.txt", fs.Format().Description())

	_, ok = NewRef("plain", NamedFunc("plain")).Function().(FormatSource)
	require.False(t, ok)
}

func TestPartitioner_Kinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		partitioner Partitioner
		kind        string
	}{
		{ForwardPartitioner{}, "forward"},
		{RebalancePartitioner{}, "rebalance"},
		{BroadcastPartitioner{}, "broadcast"},
		{ShufflePartitioner{}, "shuffle"},
		{RescalePartitioner{}, "rescale"},
		{GlobalPartitioner{}, "global"},
		{KeyGroupPartitioner{Selector: NamedKeySelector("word")}, "hash"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.kind, tc.partitioner.Kind())
	}
}

func TestOutputTag_String(t *testing.T) {
	t.Parallel()

	tag := NewOutputTag("late-events", types.New("event"))
	require.Equal(t, "late-events", tag.ID())
	require.Equal(t, "event", tag.Type().Name())
	require.Equal(t, "late-events (event)", tag.String())
}
