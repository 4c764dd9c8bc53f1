package vector

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/vanirdb/pkg/types"
)

func TestRoundTripFixedWidth(t *testing.T) {
	v := New(types.Int64(), 16)
	for pos := 0; pos < 16; pos++ {
		want := int64(pos * 100)
		SetValue(v, pos, want)
		v.SetNull(pos, false)
		assert.Equal(t, want, GetValue[int64](v, pos))
	}

	d := New(types.DateType(), 4)
	date := types.MakeDate(2024, 2, 29)
	SetValue(d, 2, date)
	d.SetNull(2, false)
	assert.Equal(t, date, GetValue[types.Date](d, 2))

	iv := New(types.IntervalType(), 4)
	want := types.Interval{Months: 1, Days: 2, Micros: 3}
	SetValue(iv, 0, want)
	iv.SetNull(0, false)
	assert.Equal(t, want, GetValue[types.Interval](iv, 0))

	b := New(types.Bool(), 4)
	SetValue(b, 3, true)
	b.SetNull(3, false)
	assert.True(t, GetValue[bool](b, 3))
}

func TestRoundTripStrings(t *testing.T) {
	v := New(types.String(), 8)
	v.SetString(0, "huginn")
	v.SetNull(0, false)
	v.SetString(5, "muninn")
	v.SetNull(5, false)

	assert.Equal(t, "huginn", v.GetString(0))
	assert.Equal(t, "muninn", v.GetString(5))
	assert.Equal(t, len("huginn")+len("muninn"), v.Aux().Size())
}

func TestNullBitsIndependentOfData(t *testing.T) {
	v := New(types.Int32(), 8)
	SetValue(v, 1, int32(42))
	v.SetNull(1, false)
	v.SetNull(2, true)

	assert.False(t, v.IsNull(1))
	assert.True(t, v.IsNull(2))

	// SetValue never clears the null bit by itself.
	SetValue(v, 2, int32(7))
	assert.True(t, v.IsNull(2))
	v.SetNull(2, false)
	assert.False(t, v.IsNull(2))
	assert.Equal(t, int32(7), GetValue[int32](v, 2))
}

func TestFlatInvariant(t *testing.T) {
	v := New(types.Int64(), DefaultCapacity)
	v.MakeFlat(17)

	require.True(t, v.State().IsFlat())
	assert.Equal(t, 1, v.State().Selection().SelectedSize())
	assert.Equal(t, 17, v.FlatPosition())

	// Position-less access targets the single selected slot.
	SetValue(v, v.FlatPosition(), int64(99))
	v.SetFlatNull(false)
	assert.False(t, v.FlatIsNull())
	assert.Equal(t, int64(99), GetValue[int64](v, v.FlatPosition()))
}

func TestUnflatIterationVisitsEachActivePositionOnce(t *testing.T) {
	v := New(types.Int64(), 64)
	sel := NewFiltered([]int{3, 9, 27, 45})
	v.MakeUnflat(sel)

	require.False(t, v.State().IsFlat())
	seen := make(map[int]int)
	s := v.State().Selection()
	for i := 0; i < s.SelectedSize(); i++ {
		pos := s.Position(i)
		assert.Less(t, pos, v.Capacity())
		seen[pos]++
	}
	assert.Equal(t, map[int]int{3: 1, 9: 1, 27: 1, 45: 1}, seen)
}

func TestIdentitySelection(t *testing.T) {
	sel := NewIdentity(5)
	assert.True(t, sel.IsIdentity())
	assert.Equal(t, 5, sel.SelectedSize())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, sel.SelectedPositions())
	assert.Equal(t, 3, sel.Position(3))
}

func TestNarrowCopiesWhenShared(t *testing.T) {
	sel := NewFiltered([]int{1, 3, 5, 7})
	a := New(types.Int64(), 8)
	b := New(types.Int64(), 8)
	a.MakeUnflat(sel)
	b.MakeUnflat(sel)

	// Two borrowers: narrowing must not touch the shared array.
	narrowed := sel.Narrow([]int{0, 2})
	assert.NotSame(t, sel, narrowed)
	assert.Equal(t, []int{1, 5}, narrowed.SelectedPositions())
	assert.Equal(t, []int{1, 3, 5, 7}, sel.SelectedPositions())

	// Sole borrower: in-place reuse is allowed.
	solo := NewFiltered([]int{2, 4, 6}).Retain()
	got := solo.Narrow([]int{1, 2})
	assert.Same(t, solo, got)
	assert.Equal(t, []int{4, 6}, got.SelectedPositions())
}

func TestFromBitmap(t *testing.T) {
	bm := roaring.New()
	bm.AddMany([]uint32{0, 2, 1000, 5000})

	sel := FromBitmap(bm, 2048)
	assert.Equal(t, []int{0, 2, 1000}, sel.SelectedPositions())
}

func TestResetAuxiliaryBuffer(t *testing.T) {
	v := New(types.String(), 4)
	v.SetString(0, "stale payload")
	v.SetNull(0, false)
	v.SetNull(1, true)
	require.Greater(t, v.Aux().Size(), 0)

	v.ResetAuxiliaryBuffer()
	assert.Equal(t, 0, v.Aux().Size())
	assert.False(t, v.IsNull(0))
	assert.False(t, v.IsNull(1))

	// The vector is reusable for the next batch.
	v.SetString(0, "fresh")
	v.SetNull(0, false)
	assert.Equal(t, "fresh", v.GetString(0))
}

func TestGetSetAny(t *testing.T) {
	v := New(types.TimestampType(), 4)
	ts := types.TimestampFromTime(types.MakeDate(2024, 6, 1).Time())
	v.SetAny(1, ts)
	v.SetNull(1, false)
	assert.Equal(t, ts, v.GetAny(1))

	l := New(types.List(types.Int64()), 4)
	l.SetAny(0, []any{float64(1), float64(2)})
	l.SetNull(0, false)
	assert.Equal(t, []any{float64(1), float64(2)}, l.GetAny(0))
}

func TestDebugTypeChecks(t *testing.T) {
	DebugTypeChecks = true
	defer func() { DebugTypeChecks = false }()

	v := New(types.Int32(), 4)
	SetValue(v, 0, int32(1)) // matching width passes

	assert.Panics(t, func() {
		GetValue[int64](v, 0) // 8-byte read from 4-byte cells
	})
}

func TestDataChunkSharedSelection(t *testing.T) {
	chunk := NewDataChunk([]types.LogicalType{types.Int64(), types.String()}, 16)
	require.Equal(t, 2, chunk.ColumnCount())

	sel := NewIdentity(3)
	chunk.SetSelection(sel)
	assert.Equal(t, 3, chunk.Size())
	// Sibling columns share one selection instance.
	assert.Same(t, chunk.Column(0).State().Selection(), chunk.Column(1).State().Selection())

	chunk.Column(0).SetNull(0, true)
	vectorSetString(chunk.Column(1), 0, "x")

	chunk.Reset()
	assert.Equal(t, 0, chunk.Size())
	assert.False(t, chunk.Column(0).IsNull(0))
	assert.Equal(t, 0, chunk.Column(1).Aux().Size())
}

func vectorSetString(v *ValueVector, pos int, s string) {
	v.SetString(pos, s)
	v.SetNull(pos, false)
}
