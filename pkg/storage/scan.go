// NodeScanner: materializes node properties into columnar batches.

package storage

import (
	"fmt"
	"math"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/orneryd/vanirdb/pkg/types"
	"github.com/orneryd/vanirdb/pkg/vector"
)

// ColumnSpec names one property to materialize and the logical type its
// column carries. An InternalID-typed column ignores Property and emits the
// node's row reference instead.
type ColumnSpec struct {
	Property string
	Type     types.LogicalType
}

// NodeScanner walks the nodes carrying a label (or all nodes for an empty
// label) and materializes their properties into vector.DataChunk batches.
//
// The row set is snapshotted from the engine's bitmap at construction, so a
// scan observes a stable set of rows even while writes continue.
//
// A label scan whose rows all fit within one batch keeps the bitmap's shape:
// values land at their physical row positions and the chunk binds a filtered
// selection derived from the label bitmap, so no rows are copied into a dense
// layout. Full scans, and label scans whose rows exceed the batch capacity,
// fall back to densely packed batches under a fresh identity selection.
// Either way, a property that is missing on a node, or whose stored value
// does not convert to the column's logical type, surfaces as NULL.
//
// The returned chunk is reused between Next calls. Consume or copy a batch
// before requesting the next one.
type NodeScanner struct {
	engine   Engine
	columns  []ColumnSpec
	bitmap   *roaring.Bitmap
	rows     roaring.IntPeekable
	filtered bool
	chunk    *vector.DataChunk
	done     bool
}

// NewNodeScanner snapshots the label's row set and prepares a scanner
// producing batches of up to batchSize rows.
func NewNodeScanner(engine Engine, label string, columns []ColumnSpec, batchSize int) (*NodeScanner, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("node scanner: no columns requested")
	}
	if batchSize <= 0 {
		batchSize = vector.DefaultCapacity
	}

	bm, err := engine.NodeRows(label)
	if err != nil {
		return nil, fmt.Errorf("node scanner: %w", err)
	}

	columnTypes := make([]types.LogicalType, len(columns))
	for i, col := range columns {
		columnTypes[i] = col.Type
	}

	return &NodeScanner{
		engine:   engine,
		columns:  columns,
		bitmap:   bm,
		rows:     bm.Iterator(),
		filtered: label != "" && !bm.IsEmpty() && bm.Maximum() < uint32(batchSize),
		chunk:    vector.NewDataChunk(columnTypes, batchSize),
	}, nil
}

// Next materializes the next batch. It returns (nil, nil) once the scan is
// exhausted.
func (s *NodeScanner) Next() (*vector.DataChunk, error) {
	if s.done {
		return nil, nil
	}

	s.chunk.Reset()
	if s.filtered {
		return s.nextFiltered()
	}

	count := 0
	for count < s.chunk.Capacity() && s.rows.HasNext() {
		row := s.rows.Next()
		node, err := s.engine.NodeAt(row)
		if err != nil {
			return nil, fmt.Errorf("scanning row %d: %w", row, err)
		}
		s.fillRow(count, row, node)
		count++
	}
	if count == 0 {
		s.done = true
		return nil, nil
	}

	s.chunk.SetSelection(vector.NewIdentity(count))
	return s.chunk, nil
}

// nextFiltered emits the whole label scan as one batch: values sit at their
// physical row positions and the selection is the label bitmap itself.
func (s *NodeScanner) nextFiltered() (*vector.DataChunk, error) {
	s.done = true
	for s.rows.HasNext() {
		row := s.rows.Next()
		node, err := s.engine.NodeAt(row)
		if err != nil {
			return nil, fmt.Errorf("scanning row %d: %w", row, err)
		}
		s.fillRow(int(row), row, node)
	}
	s.chunk.SetSelection(vector.FromBitmap(s.bitmap, s.chunk.Capacity()))
	return s.chunk, nil
}

func (s *NodeScanner) fillRow(pos int, row uint32, node *Node) {
	for i, col := range s.columns {
		out := s.chunk.Column(i)

		if col.Type.ID() == types.IDInternalID {
			vector.SetValue(out, pos, types.NodeRef{Offset: uint64(row)})
			out.SetNull(pos, false)
			continue
		}

		raw, ok := node.Properties[col.Property]
		if !ok || raw == nil {
			out.SetNull(pos, true)
			continue
		}
		value, ok := convertProperty(raw, col.Type)
		if !ok {
			out.SetNull(pos, true)
			continue
		}
		out.SetAny(pos, value)
		out.SetNull(pos, false)
	}
}

// convertProperty coerces a stored property value to the canonical Go
// representation of the column's logical type. Properties arrive either as
// natural Go values (MemoryEngine) or as JSON-decoded ones (BadgerEngine),
// so numeric kinds accept both integer and float64 inputs.
func convertProperty(raw any, lt types.LogicalType) (any, bool) {
	switch lt.ID() {
	case types.IDBool:
		v, ok := raw.(bool)
		return v, ok
	case types.IDInt16:
		if n, ok := asInt64(raw); ok && n >= math.MinInt16 && n <= math.MaxInt16 {
			return int16(n), true
		}
	case types.IDInt32:
		if n, ok := asInt64(raw); ok && n >= math.MinInt32 && n <= math.MaxInt32 {
			return int32(n), true
		}
	case types.IDInt64, types.IDDecimal:
		if n, ok := asInt64(raw); ok {
			return n, true
		}
	case types.IDFloat:
		if f, ok := asFloat64(raw); ok {
			return float32(f), true
		}
	case types.IDDouble:
		if f, ok := asFloat64(raw); ok {
			return f, true
		}
	case types.IDString:
		v, ok := raw.(string)
		return v, ok
	case types.IDBlob:
		switch v := raw.(type) {
		case []byte:
			return v, true
		case string:
			return []byte(v), true
		}
	case types.IDDate:
		switch v := raw.(type) {
		case types.Date:
			return v, true
		case time.Time:
			return types.DateFromTime(v), true
		default:
			if n, ok := asInt64(raw); ok && n >= math.MinInt32 && n <= math.MaxInt32 {
				return types.Date(n), true
			}
		}
	case types.IDTimestamp:
		switch v := raw.(type) {
		case types.Timestamp:
			return v, true
		case time.Time:
			return types.TimestampFromTime(v), true
		default:
			if n, ok := asInt64(raw); ok {
				return types.Timestamp(n), true
			}
		}
	case types.IDUUID:
		switch v := raw.(type) {
		case types.UUID:
			return v, true
		case string:
			if parsed, err := types.ParseUUID(v); err == nil {
				return parsed, true
			}
		}
	case types.IDList:
		v, ok := raw.([]any)
		return v, ok
	case types.IDStruct:
		v, ok := raw.(map[string]any)
		return v, ok
	}
	return nil, false
}

func asInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v == math.Trunc(v) {
			return int64(v), true
		}
	case float32:
		if float64(v) == math.Trunc(float64(v)) {
			return int64(v), true
		}
	}
	return 0, false
}

func asFloat64(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
