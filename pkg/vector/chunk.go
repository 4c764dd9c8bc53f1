// DataChunk: one batch of co-indexed column vectors.

package vector

import "github.com/orneryd/vanirdb/pkg/types"

// DataChunk groups the sibling ValueVectors of one batch behind a single
// shared SelectionVector, so that narrowing the active set (a WHERE
// predicate, a limit) stays consistent across all columns without copying.
//
// A chunk's buffers are reused across successive batches of the same
// pipeline stage: call Reset before each refill.
type DataChunk struct {
	columns  []*ValueVector
	sel      *SelectionVector
	capacity int
}

// NewDataChunk allocates a chunk with one vector per column type, all bound
// unflat to a shared identity selection of size zero (empty batch).
func NewDataChunk(columnTypes []types.LogicalType, capacity int) *DataChunk {
	c := &DataChunk{
		sel:      NewIdentity(0),
		capacity: capacity,
	}
	c.columns = make([]*ValueVector, len(columnTypes))
	for i, t := range columnTypes {
		c.columns[i] = New(t, capacity)
		c.columns[i].MakeUnflat(c.sel)
	}
	return c
}

// ColumnCount returns the number of columns.
func (c *DataChunk) ColumnCount() int { return len(c.columns) }

// Column returns the vector at the given column index.
func (c *DataChunk) Column(i int) *ValueVector { return c.columns[i] }

// Selection returns the shared selection of the batch.
func (c *DataChunk) Selection() *SelectionVector { return c.sel }

// Size returns the number of active rows in the batch.
func (c *DataChunk) Size() int { return c.sel.SelectedSize() }

// Capacity returns the physical slot count of each column.
func (c *DataChunk) Capacity() int { return c.capacity }

// SetSelection rebinds every column to the given shared selection. Used by
// the scan layer after materializing a batch (identity for full scans,
// filtered for label scans) and by predicate evaluation after narrowing.
func (c *DataChunk) SetSelection(sel *SelectionVector) {
	c.sel = sel
	for _, col := range c.columns {
		col.MakeUnflat(sel)
	}
}

// Reset prepares the chunk for the next batch: clears auxiliary buffers and
// null masks and rebinds to an empty identity selection. Backing buffers are
// kept for reuse.
func (c *DataChunk) Reset() {
	for _, col := range c.columns {
		col.ResetAuxiliaryBuffer()
	}
	c.SetSelection(NewIdentity(0))
}
