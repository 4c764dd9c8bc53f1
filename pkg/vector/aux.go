// AuxiliaryBuffer: overflow storage for variable-length payloads.

package vector

// AuxiliaryBuffer holds the variable-length payloads (string, blob and list
// contents) of one ValueVector. Fixed-width cells in the vector's backing
// buffer store an 8-byte slot (offset and length) referencing this heap.
//
// The buffer is append-only within one write pass. Before a vector is reused
// for the next batch the owner must call Reset so no stale payload survives;
// ValueVector.ResetAuxiliaryBuffer does exactly that.
type AuxiliaryBuffer struct {
	data []byte
}

// auxSlot is the fixed-width cell representation of a variable-length value.
type auxSlot struct {
	offset uint32
	length uint32
}

// NewAuxiliaryBuffer returns an empty buffer with a small initial reserve.
func NewAuxiliaryBuffer() *AuxiliaryBuffer {
	return &AuxiliaryBuffer{data: make([]byte, 0, 1024)}
}

// Append copies the payload into the heap and returns its slot.
func (b *AuxiliaryBuffer) Append(payload []byte) auxSlot {
	offset := len(b.data)
	b.data = append(b.data, payload...)
	return auxSlot{offset: uint32(offset), length: uint32(len(payload))}
}

// AppendString is Append for string payloads, avoiding an extra copy.
func (b *AuxiliaryBuffer) AppendString(payload string) auxSlot {
	offset := len(b.data)
	b.data = append(b.data, payload...)
	return auxSlot{offset: uint32(offset), length: uint32(len(payload))}
}

// Slice returns the payload bytes for a slot. The returned slice aliases the
// heap and is valid until the next Reset.
func (b *AuxiliaryBuffer) Slice(slot auxSlot) []byte {
	return b.data[slot.offset : slot.offset+slot.length]
}

// Reset discards all payloads, keeping the allocation for reuse.
func (b *AuxiliaryBuffer) Reset() {
	b.data = b.data[:0]
}

// Size returns the number of payload bytes currently stored.
func (b *AuxiliaryBuffer) Size() int { return len(b.data) }
