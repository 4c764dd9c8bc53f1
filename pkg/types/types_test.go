package types

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferDefaults(t *testing.T) {
	tests := []struct {
		host any
		want LogicalType
	}{
		{false, Bool()},
		{int16(0), Int16()},
		{int32(0), Int32()},
		{int64(0), Int64()},
		{float32(0), Float()},
		{float64(0), Double()},
		{"", String()},
		{[]byte(nil), Blob()},
		{Date(0), DateType()},
		{Timestamp(0), TimestampType()},
		{Interval{}, IntervalType()},
		{NodeRef{}, InternalID()},
	}
	for _, tt := range tests {
		got, err := Infer(reflect.TypeOf(tt.host))
		require.NoError(t, err, "Infer(%T)", tt.host)
		assert.True(t, got.Equal(tt.want), "Infer(%T) = %s, want %s", tt.host, got, tt.want)
	}
}

func TestInferNeverAmbiguous(t *testing.T) {
	// int32 infers INT32, never DATE; int64 infers INT64, never TIMESTAMP.
	got, err := Infer(reflect.TypeOf(int32(0)))
	require.NoError(t, err)
	assert.Equal(t, IDInt32, got.ID())

	got, err = Infer(reflect.TypeOf(int64(0)))
	require.NoError(t, err)
	assert.Equal(t, IDInt64, got.ID())
}

func TestInferRejectsPlatformInt(t *testing.T) {
	_, err := Infer(reflect.TypeOf(int(0)))
	require.ErrorIs(t, err, ErrUnsupportedHostType)

	_, err = Infer(reflect.TypeOf(uint(0)))
	require.ErrorIs(t, err, ErrUnsupportedHostType)
}

func TestCompatibleDisambiguation(t *testing.T) {
	// DATE accepts both the Date kind and a raw int32 (explicit annotation
	// is what disambiguates it from INT32).
	assert.NoError(t, Compatible(DateType(), reflect.TypeOf(Date(0))))
	assert.NoError(t, Compatible(DateType(), reflect.TypeOf(int32(0))))
	assert.ErrorIs(t, Compatible(DateType(), reflect.TypeOf(int64(0))), ErrIncompatibleType)

	assert.NoError(t, Compatible(TimestampType(), reflect.TypeOf(int64(0))))
	assert.ErrorIs(t, Compatible(TimestampType(), reflect.TypeOf(int32(0))), ErrIncompatibleType)

	assert.NoError(t, Compatible(Int32(), reflect.TypeOf(int32(0))))
	assert.ErrorIs(t, Compatible(Int32(), reflect.TypeOf("")), ErrIncompatibleType)
}

func TestLogicalTypeEqualAndString(t *testing.T) {
	assert.True(t, Decimal(18, 3).Equal(Decimal(18, 3)))
	assert.False(t, Decimal(18, 3).Equal(Decimal(18, 2)))
	assert.Equal(t, "DECIMAL(18,3)", Decimal(18, 3).String())

	assert.True(t, List(String()).Equal(List(String())))
	assert.False(t, List(String()).Equal(List(Int64())))
	assert.Equal(t, "LIST(STRING)", List(String()).String())

	s := Struct(StructField{"name", String()}, StructField{"age", Int64()})
	assert.True(t, s.Equal(Struct(StructField{"name", String()}, StructField{"age", Int64()})))
	assert.False(t, s.Equal(Struct(StructField{"name", String()})))
	assert.Equal(t, "STRUCT(name STRING, age INT64)", s.String())
}

func TestPhysicalSize(t *testing.T) {
	assert.Equal(t, 1, Bool().PhysicalSize())
	assert.Equal(t, 2, Int16().PhysicalSize())
	assert.Equal(t, 4, Int32().PhysicalSize())
	assert.Equal(t, 4, DateType().PhysicalSize())
	assert.Equal(t, 8, Int64().PhysicalSize())
	assert.Equal(t, 8, TimestampType().PhysicalSize())
	assert.Equal(t, 16, IntervalType().PhysicalSize())
	assert.Equal(t, 16, UUIDType().PhysicalSize())
	// Variable-length kinds store an 8-byte auxiliary slot.
	assert.Equal(t, 8, String().PhysicalSize())
	assert.Equal(t, 8, Blob().PhysicalSize())
	assert.Equal(t, 8, List(Int64()).PhysicalSize())
}

func TestDateArithmetic(t *testing.T) {
	d := MakeDate(2024, time.January, 1)
	assert.Equal(t, "2024-01-01", d.String())
	assert.Equal(t, "2024-01-02", d.AddDays(1).String())
	assert.Equal(t, "2023-12-31", d.AddDays(-1).String())

	// Epoch and pre-epoch dates round-trip.
	assert.Equal(t, Date(0), MakeDate(1970, time.January, 1))
	assert.Equal(t, "1969-12-31", Date(-1).String())

	ts := TimestampFromTime(time.Date(2024, time.March, 15, 12, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, time.March, 15, 12, 30, 0, 0, time.UTC), ts.Time())
}

func TestGoType(t *testing.T) {
	assert.Equal(t, reflect.TypeOf(int64(0)), GoType(Int64()))
	assert.Equal(t, reflect.TypeOf(Date(0)), GoType(DateType()))
	assert.Equal(t, reflect.TypeOf(""), GoType(String()))
	assert.Nil(t, GoType(List(Int64())))
}
