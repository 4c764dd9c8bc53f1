// SelectionVector: the indirection layer naming which positions of a batch
// are active.

package vector

import (
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
)

// SelectionVector names which physical positions inside a fixed-capacity
// batch are currently active. It comes in two canonical forms:
//
//   - identity: positions 0..size-1, used when every slot of the batch is
//     active (the normal output of a full scan)
//   - filtered: an explicit ordered subset, produced by predicate evaluation
//
// Sibling ValueVectors representing co-indexed columns of one batch share a
// single SelectionVector so that narrowing the active set is visible to all
// of them without copying. Sharing is tracked with a borrow count: an
// operation that would narrow a selection still borrowed by upstream vectors
// must allocate a new one (see Narrow), never mutate the shared array.
//
// Positions are unique and strictly within [0, capacity) of the owning batch.
type SelectionVector struct {
	positions []int // nil in identity form
	size      int
	borrows   atomic.Int32
}

// NewIdentity returns an identity selection of the given active count:
// positions 0..size-1.
func NewIdentity(size int) *SelectionVector {
	return &SelectionVector{size: size}
}

// NewFiltered returns a filtered selection over the given positions. The
// slice is owned by the selection afterwards; callers must not mutate it.
func NewFiltered(positions []int) *SelectionVector {
	return &SelectionVector{positions: positions, size: len(positions)}
}

// FromBitmap materializes a filtered selection from a storage-layer row
// bitmap. Only bits below capacity are taken.
func FromBitmap(bm *roaring.Bitmap, capacity int) *SelectionVector {
	positions := make([]int, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		pos := int(it.Next())
		if pos >= capacity {
			break
		}
		positions = append(positions, pos)
	}
	return NewFiltered(positions)
}

// IsIdentity reports whether the selection is in identity form.
func (s *SelectionVector) IsIdentity() bool { return s.positions == nil }

// SelectedSize returns the number of active positions.
func (s *SelectionVector) SelectedSize() int { return s.size }

// Position returns the physical position at selection index i.
func (s *SelectionVector) Position(i int) int {
	if s.positions == nil {
		return i
	}
	return s.positions[i]
}

// SelectedPositions materializes the active positions in order. Identity
// selections allocate; iterate with Position when on a hot path.
func (s *SelectionVector) SelectedPositions() []int {
	if s.positions != nil {
		return s.positions[:s.size]
	}
	out := make([]int, s.size)
	for i := range out {
		out[i] = i
	}
	return out
}

// Retain records another borrower of this selection and returns it. Sibling
// vectors call Retain when they bind to a shared selection.
func (s *SelectionVector) Retain() *SelectionVector {
	s.borrows.Add(1)
	return s
}

// Release undoes one Retain when a borrowing vector unbinds.
func (s *SelectionVector) Release() {
	s.borrows.Add(-1)
}

// shared reports whether more than one live vector borrows this selection.
func (s *SelectionVector) shared() bool { return s.borrows.Load() > 1 }

// Narrow produces the selection that keeps only the given selection indices
// (indices into the current active sequence, not physical positions). When
// the selection is borrowed by other live vectors it is left untouched and a
// fresh filtered selection is returned; otherwise the backing array is reused
// in place. Either way the result is ordered and unique because the input
// indices are.
func (s *SelectionVector) Narrow(keep []int) *SelectionVector {
	if s.shared() || s.positions == nil {
		positions := make([]int, len(keep))
		for i, k := range keep {
			positions[i] = s.Position(k)
		}
		return NewFiltered(positions)
	}
	for i, k := range keep {
		s.positions[i] = s.positions[k]
	}
	s.size = len(keep)
	s.positions = s.positions[:s.size]
	return s
}
