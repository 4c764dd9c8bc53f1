// Package vector implements VanirDB's columnar value representation.
//
// A ValueVector is the container every expression in the query engine reads
// from and writes to: one logical column of a batch, with a fixed-capacity
// typed backing buffer, a null bitmap, and (for variable-length kinds) an
// auxiliary payload heap. Which positions of the batch are active is decided
// by a SelectionVector that sibling vectors of the same batch share.
//
// A vector is in one of two representational modes:
//
//   - flat: exactly one logically active position (a scalar or broadcast
//     operand). The active position is always the selection's 0th slot.
//   - unflat: all positions named by the shared SelectionVector are active
//     at once (the normal columnar execution mode).
//
// Value access is deliberately unchecked: GetValue and SetValue reinterpret
// backing bytes at a position as the requested Go type. The caller contract
// is that the Go type matches the vector's logical type; the executor layer
// (pkg/function) upholds it and gates every read behind a null check. An
// optional debug assertion can be enabled via DebugTypeChecks (wired to
// VANIRDB_DEBUG_TYPE_CHECKS by pkg/config) to catch cell-width mismatches
// during development.
//
// Example Usage:
//
//	v := vector.New(types.Int64(), vector.DefaultCapacity)
//	vector.SetValue[int64](v, 0, 42)
//	v.SetNull(0, false)
//	x := vector.GetValue[int64](v, 0) // 42
//
//	s := vector.New(types.String(), vector.DefaultCapacity)
//	s.SetString(0, "odin")
//	s.ResetAuxiliaryBuffer() // before reusing the vector for the next batch
package vector

import (
	"encoding/json"
	"fmt"
	"unsafe"

	"github.com/orneryd/vanirdb/pkg/types"
)

// DefaultCapacity is the number of slots a batch vector holds. One pipeline
// batch never exceeds this many rows.
const DefaultCapacity = 2048

// DebugTypeChecks enables a cell-width assertion inside GetValue/SetValue.
// Off by default: the accessors are a zero-checking fast path. Toggled at
// database open from config; not safe to flip while queries run.
var DebugTypeChecks = false

// State carries the binding of a vector: the borrowed SelectionVector plus
// the flat/unflat mode flag. Sibling vectors of one batch share a single
// State so that active-position changes stay consistent across operands.
type State struct {
	sel  *SelectionVector
	flat bool
}

// IsFlat reports whether the vector holds exactly one active value.
func (s *State) IsFlat() bool { return s.flat }

// Selection returns the borrowed SelectionVector.
func (s *State) Selection() *SelectionVector { return s.sel }

// ValueVector is one column of a batch. It exclusively owns its backing and
// null buffers and borrows (never owns) its SelectionVector.
type ValueVector struct {
	typ      types.LogicalType
	capacity int
	cellSize int
	data     []byte
	nulls    *NullMask
	aux      *AuxiliaryBuffer // nil for fixed-width kinds
	state    *State
}

// New creates a vector of the given logical type and capacity, bound unflat
// to an identity selection over the full capacity. Rebind with MakeFlat,
// MakeUnflat or ShareState before use inside a batch.
func New(typ types.LogicalType, capacity int) *ValueVector {
	cellSize := typ.PhysicalSize()
	if cellSize == 0 {
		panic(fmt.Sprintf("vector: type %s is not vector-storable", typ))
	}
	v := &ValueVector{
		typ:      typ,
		capacity: capacity,
		cellSize: cellSize,
		data:     make([]byte, capacity*cellSize),
		nulls:    NewNullMask(capacity),
		state:    &State{sel: NewIdentity(capacity).Retain()},
	}
	if needsAux(typ.ID()) {
		v.aux = NewAuxiliaryBuffer()
	}
	return v
}

func needsAux(id types.TypeID) bool {
	switch id {
	case types.IDString, types.IDBlob, types.IDList, types.IDStruct:
		return true
	}
	return false
}

// Type returns the vector's logical type.
func (v *ValueVector) Type() types.LogicalType { return v.typ }

// Capacity returns the number of physical slots in the backing buffer.
func (v *ValueVector) Capacity() int { return v.capacity }

// State returns the vector's binding state.
func (v *ValueVector) State() *State { return v.state }

// MakeFlat binds the vector flat with the given physical position as its
// single active slot.
func (v *ValueVector) MakeFlat(pos int) {
	v.unbind()
	v.state = &State{sel: NewFiltered([]int{pos}).Retain(), flat: true}
}

// MakeUnflat binds the vector to a shared SelectionVector with all named
// positions active.
func (v *ValueVector) MakeUnflat(sel *SelectionVector) {
	v.unbind()
	v.state = &State{sel: sel.Retain()}
}

// ShareState adopts another vector's binding wholesale. Executors use this
// to keep a result vector positionally aligned with the operand that drives
// iteration.
func (v *ValueVector) ShareState(other *ValueVector) {
	v.unbind()
	other.state.sel.Retain()
	v.state = other.state
}

func (v *ValueVector) unbind() {
	if v.state != nil && v.state.sel != nil {
		v.state.sel.Release()
	}
}

// FlatPosition returns the single active position of a flat vector: the 0th
// selected slot.
func (v *ValueVector) FlatPosition() int {
	return v.state.sel.Position(0)
}

// IsNull reports whether the physical position holds NULL.
func (v *ValueVector) IsNull(pos int) bool { return v.nulls.IsNull(pos) }

// SetNull marks or clears the null bit at the physical position. Marking a
// position null leaves its data bytes logically undefined.
func (v *ValueVector) SetNull(pos int, isNull bool) { v.nulls.Set(pos, isNull) }

// Nulls exposes the vector's null mask.
func (v *ValueVector) Nulls() *NullMask { return v.nulls }

// FlatIsNull reports the null bit of a flat vector's single active position.
func (v *ValueVector) FlatIsNull() bool { return v.nulls.IsNull(v.FlatPosition()) }

// SetFlatNull sets the null bit of a flat vector's single active position.
func (v *ValueVector) SetFlatNull(isNull bool) { v.nulls.Set(v.FlatPosition(), isNull) }

// ResetAuxiliaryBuffer clears the variable-length payload heap and the null
// mask so the vector can be reused for the next batch without stale payloads
// or stale null bits surviving. No-op on the heap for fixed-width kinds.
func (v *ValueVector) ResetAuxiliaryBuffer() {
	if v.aux != nil {
		v.aux.Reset()
	}
	v.nulls.Reset()
}

// Aux exposes the auxiliary payload heap. Nil for fixed-width kinds.
func (v *ValueVector) Aux() *AuxiliaryBuffer { return v.aux }

// GetValue reinterprets the backing bytes at the physical position as T.
// This is the unchecked fast path: T must be the vector's canonical cell
// representation or behavior is undefined. Variable-length kinds must go
// through GetString, GetBlob or GetAny instead.
func GetValue[T any](v *ValueVector, pos int) T {
	if DebugTypeChecks {
		assertCellWidth[T](v)
	}
	return *(*T)(unsafe.Pointer(&v.data[pos*v.cellSize]))
}

// SetValue writes the value at the physical position. It does not clear the
// null bit: callers writing a non-null result over a formerly null slot must
// call SetNull(pos, false) themselves.
func SetValue[T any](v *ValueVector, pos int, value T) {
	if DebugTypeChecks {
		assertCellWidth[T](v)
	}
	*(*T)(unsafe.Pointer(&v.data[pos*v.cellSize])) = value
}

func assertCellWidth[T any](v *ValueVector) {
	var t T
	if int(unsafe.Sizeof(t)) != v.cellSize {
		panic(fmt.Sprintf("vector: cell width mismatch: %T is %d bytes, %s cells are %d",
			t, unsafe.Sizeof(t), v.typ, v.cellSize))
	}
}

// GetString reads a STRING cell via the auxiliary buffer. The returned
// string copies the payload, so it stays valid across ResetAuxiliaryBuffer.
func (v *ValueVector) GetString(pos int) string {
	slot := GetValue[auxSlot](v, pos)
	return string(v.aux.Slice(slot))
}

// SetString appends the payload to the auxiliary buffer and writes its slot
// at the position. Like SetValue it does not clear the null bit.
func (v *ValueVector) SetString(pos int, s string) {
	SetValue(v, pos, v.aux.AppendString(s))
}

// GetBlob reads a BLOB cell. The returned bytes alias the auxiliary buffer
// and are valid until the next ResetAuxiliaryBuffer.
func (v *ValueVector) GetBlob(pos int) []byte {
	slot := GetValue[auxSlot](v, pos)
	return v.aux.Slice(slot)
}

// SetBlob appends the payload to the auxiliary buffer and writes its slot.
func (v *ValueVector) SetBlob(pos int, b []byte) {
	SetValue(v, pos, v.aux.Append(b))
}

// GetAny reads the cell at the position as the logical type's canonical Go
// representation (types.GoType). It is the slow, type-switched path used by
// the reflection UDF wrapper and result materialization; executors use the
// generic accessors.
func (v *ValueVector) GetAny(pos int) any {
	switch v.typ.ID() {
	case types.IDBool:
		return GetValue[bool](v, pos)
	case types.IDInt16:
		return GetValue[int16](v, pos)
	case types.IDInt32:
		return GetValue[int32](v, pos)
	case types.IDInt64, types.IDDecimal:
		return GetValue[int64](v, pos)
	case types.IDFloat:
		return GetValue[float32](v, pos)
	case types.IDDouble:
		return GetValue[float64](v, pos)
	case types.IDString:
		return v.GetString(pos)
	case types.IDBlob:
		return v.GetBlob(pos)
	case types.IDDate:
		return GetValue[types.Date](v, pos)
	case types.IDTimestamp:
		return GetValue[types.Timestamp](v, pos)
	case types.IDInterval:
		return GetValue[types.Interval](v, pos)
	case types.IDUUID:
		return GetValue[types.UUID](v, pos)
	case types.IDInternalID:
		return GetValue[types.NodeRef](v, pos)
	case types.IDList:
		var out []any
		decodeAuxJSON(v, pos, &out)
		return out
	case types.IDStruct:
		var out map[string]any
		decodeAuxJSON(v, pos, &out)
		return out
	default:
		panic(fmt.Sprintf("vector: GetAny on %s", v.typ))
	}
}

// SetAny writes a value of the logical type's canonical Go representation.
// It panics on a mismatched dynamic type, mirroring the unchecked contract
// of SetValue.
func (v *ValueVector) SetAny(pos int, value any) {
	switch v.typ.ID() {
	case types.IDBool:
		SetValue(v, pos, value.(bool))
	case types.IDInt16:
		SetValue(v, pos, value.(int16))
	case types.IDInt32:
		SetValue(v, pos, value.(int32))
	case types.IDInt64, types.IDDecimal:
		SetValue(v, pos, value.(int64))
	case types.IDFloat:
		SetValue(v, pos, value.(float32))
	case types.IDDouble:
		SetValue(v, pos, value.(float64))
	case types.IDString:
		v.SetString(pos, value.(string))
	case types.IDBlob:
		v.SetBlob(pos, value.([]byte))
	case types.IDDate:
		SetValue(v, pos, value.(types.Date))
	case types.IDTimestamp:
		SetValue(v, pos, value.(types.Timestamp))
	case types.IDInterval:
		SetValue(v, pos, value.(types.Interval))
	case types.IDUUID:
		SetValue(v, pos, value.(types.UUID))
	case types.IDInternalID:
		SetValue(v, pos, value.(types.NodeRef))
	case types.IDList, types.IDStruct:
		encodeAuxJSON(v, pos, value)
	default:
		panic(fmt.Sprintf("vector: SetAny on %s", v.typ))
	}
}

// Nested values (LIST, STRUCT) are stored JSON-encoded in the auxiliary
// buffer. This keeps them out of the fixed-width fast path entirely.
func decodeAuxJSON(v *ValueVector, pos int, out any) {
	slot := GetValue[auxSlot](v, pos)
	if err := json.Unmarshal(v.aux.Slice(slot), out); err != nil {
		panic(fmt.Sprintf("vector: corrupt nested payload at %d: %v", pos, err))
	}
}

func encodeAuxJSON(v *ValueVector, pos int, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		panic(fmt.Sprintf("vector: unencodable nested value at %d: %v", pos, err))
	}
	SetValue(v, pos, v.aux.Append(payload))
}
