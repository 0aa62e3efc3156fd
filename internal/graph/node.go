package graph

import (
	"fmt"
	"time"

	"github.com/streamweave/streamweave/internal/operator"
	"github.com/streamweave/streamweave/internal/transform"
	"github.com/streamweave/streamweave/internal/types"
)

// StreamNode is one physical vertex of the execution graph. Exactly one node
// exists per node-creating transformation plus one pair per iteration.
type StreamNode struct {
	ID                 int
	Name               string
	Parallelism        int
	MaxParallelism     int
	SlotSharingGroup   string
	CoLocationGroup    string
	Operator           operator.Ref
	InType             types.TypeInfo
	InType2            types.TypeInfo
	OutType            types.TypeInfo
	InSerializer       types.Serializer
	OutSerializer      types.Serializer
	BufferTimeout      time.Duration
	UID                string
	UserHash           string
	MinResources       *transform.ResourceSpec
	PreferredResources *transform.ResourceSpec
	InputFormat        operator.InputFormat
	StateKeySelectors  []operator.KeySelector
	StateKeySerializer types.Serializer
	OutputSelectors    []operator.OutputSelector

	InEdges  []*StreamEdge
	OutEdges []*StreamEdge
}

func (n *StreamNode) String() string {
	return fmt.Sprintf("%d:%s", n.ID, n.Name)
}

// StreamEdge connects two real nodes. TypeNumber tells the target which
// logical input the edge feeds: 0 for the only input of a single-input
// operator, 1/2 for the first/second input of a two-input operator.
type StreamEdge struct {
	SourceID      int
	TargetID      int
	TypeNumber    int
	Partitioner   operator.Partitioner
	SelectedNames []string
	OutputTag     *operator.OutputTag
}

func (e *StreamEdge) String() string {
	return fmt.Sprintf("%d->%d[%s#%d]", e.SourceID, e.TargetID, e.Partitioner.Kind(), e.TypeNumber)
}
