// NullMask: fixed-capacity validity bitmap for one ValueVector.

package vector

// NullMask tracks which positions of a vector hold NULL. One bit per
// position, packed into 64-bit words; a set bit means the position is null.
//
// Reads never fail for any position in [0, capacity). The data bytes behind a
// null position are logically undefined and must not be read; the executor
// layer gates every value read behind an IsNull check.
type NullMask struct {
	words        []uint64
	capacity     int
	mayHaveNulls bool
}

// NewNullMask returns an all-valid mask for the given capacity.
func NewNullMask(capacity int) *NullMask {
	return &NullMask{
		words:    make([]uint64, (capacity+63)/64),
		capacity: capacity,
	}
}

// IsNull reports whether the position is null.
func (m *NullMask) IsNull(pos int) bool {
	return m.words[pos/64]&(1<<(pos%64)) != 0
}

// Set marks or clears the null bit at the position. Setting a position null
// leaves its data bytes in a logically undefined state.
func (m *NullMask) Set(pos int, isNull bool) {
	if isNull {
		m.words[pos/64] |= 1 << (pos % 64)
		m.mayHaveNulls = true
	} else {
		m.words[pos/64] &^= 1 << (pos % 64)
	}
}

// SetAllNull marks every position null.
func (m *NullMask) SetAllNull() {
	for i := range m.words {
		m.words[i] = ^uint64(0)
	}
	m.mayHaveNulls = true
}

// Reset clears every null bit, making all positions valid again.
func (m *NullMask) Reset() {
	if !m.mayHaveNulls {
		return
	}
	for i := range m.words {
		m.words[i] = 0
	}
	m.mayHaveNulls = false
}

// MayHaveNulls reports whether any position was ever marked null since the
// last Reset. False guarantees no nulls; true is only a hint.
func (m *NullMask) MayHaveNulls() bool { return m.mayHaveNulls }

// Capacity returns the number of positions the mask covers.
func (m *NullMask) Capacity() int { return m.capacity }
