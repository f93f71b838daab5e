package plan

import (
	"fmt"
	"iter"
)

// Key addresses a task output: partition Index of the node called Name.
// Index is Whole for the terminal task joining every partition.
type Key struct {
	Name  string
	Index int
}

// Whole is the Index of a terminal concatenation key.
const Whole = -1

func (k Key) String() string {
	if k.Index == Whole {
		return k.Name
	}
	return fmt.Sprintf("(%s, %d)", k.Name, k.Index)
}

// PartitionInfo describes how a lowered node is split.
type PartitionInfo struct {
	Count int
}

// Keys enumerates the partition keys of the node called name.
func (pi PartitionInfo) Keys(name string) iter.Seq[Key] {
	return func(yield func(Key) bool) {
		for i := 0; i < pi.Count; i++ {
			if !yield(Key{Name: name, Index: i}) {
				return
			}
		}
	}
}
