package transform

import "fmt"

// ResourceSpec bounds the resources a node may claim. Min and preferred
// specs always travel as a pair; a transformation carrying only one of the
// two is treated as carrying neither.
type ResourceSpec struct {
	CPUCores float64
	MemoryMB int
}

func (r ResourceSpec) String() string {
	return fmt.Sprintf("cpu=%.2f mem=%dMB", r.CPUCores, r.MemoryMB)
}
