package operator

// Partitioner decides how records are routed between the parallel subtasks
// of two connected nodes. The compiler attaches partitioners to edges; it
// never routes records itself.
type Partitioner interface {
	Kind() string
}

// ForwardPartitioner sends records to the matching local subtask. It is the
// default when upstream and downstream parallelism agree.
type ForwardPartitioner struct{}

// Kind identifies the routing policy.
func (ForwardPartitioner) Kind() string { return "forward" }

// RebalancePartitioner distributes records round-robin. It is the default
// when upstream and downstream parallelism differ.
type RebalancePartitioner struct{}

// Kind identifies the routing policy.
func (RebalancePartitioner) Kind() string { return "rebalance" }

// BroadcastPartitioner replicates every record to all downstream subtasks.
type BroadcastPartitioner struct{}

// Kind identifies the routing policy.
func (BroadcastPartitioner) Kind() string { return "broadcast" }

// ShufflePartitioner routes each record to a uniformly random subtask.
type ShufflePartitioner struct{}

// Kind identifies the routing policy.
func (ShufflePartitioner) Kind() string { return "shuffle" }

// RescalePartitioner distributes round-robin within a local group of
// downstream subtasks.
type RescalePartitioner struct{}

// Kind identifies the routing policy.
func (RescalePartitioner) Kind() string { return "rescale" }

// GlobalPartitioner sends every record to the first downstream subtask.
type GlobalPartitioner struct{}

// Kind identifies the routing policy.
func (GlobalPartitioner) Kind() string { return "global" }

// KeyGroupPartitioner routes records by hashing the key extracted by the
// selector into key groups.
type KeyGroupPartitioner struct {
	Selector KeySelector
}

// Kind identifies the routing policy.
func (KeyGroupPartitioner) Kind() string { return "hash" }
