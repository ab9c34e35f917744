package list

import "os"

// Batch is an ordered sequence of signals collected within one
// coalescing window.
type Batch struct {
	values []os.Signal
}

func NewBatch(values ...os.Signal) *Batch {
	return &Batch{values}
}

func (b *Batch) Add(value os.Signal) {
	b.values = append(b.values, value)
}

func (b *Batch) Values() []os.Signal {
	return b.values
}

func (b *Batch) Len() int {
	return len(b.values)
}
