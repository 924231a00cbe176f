// Package partition deterministically slices an ordered workload into
// contiguous, size-balanced batches so independent run invocations (even
// on separate machines) cover every item exactly once.
package partition

import "fmt"

// Batch identifies one slice of the workload. Index is 1-based.
type Batch struct {
	Index int
	Count int
}

// Validate checks the index/count pair.
func (b Batch) Validate() error {
	if b.Count < 1 {
		return fmt.Errorf("batch count must be >= 1, got %d", b.Count)
	}
	if b.Index < 1 || b.Index > b.Count {
		return fmt.Errorf("batch index must be in [1, %d], got %d", b.Count, b.Index)
	}
	return nil
}

func (b Batch) String() string {
	return fmt.Sprintf("%dof%d", b.Index, b.Count)
}

// Slice returns the contiguous sub-slice of items assigned to the batch.
//
// With base = len/count and remainder = len%count, the first remainder
// batches get base+1 items and the rest get base. Slices across all
// batches are contiguous, non-overlapping, preserve order, and their
// union is the full list; sizes differ by at most one.
func Slice[T any](items []T, b Batch) ([]T, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	base := len(items) / b.Count
	remainder := len(items) % b.Count

	start := (b.Index-1)*base + min(b.Index-1, remainder)
	size := base
	if b.Index <= remainder {
		size++
	}

	return items[start : start+size], nil
}
