package function

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/vanirdb/pkg/types"
	"github.com/orneryd/vanirdb/pkg/vector"
)

func TestRegisterScalarInferred(t *testing.T) {
	r := NewEmptyRegistry()
	require.NoError(t, r.RegisterScalar("add5", func(x int32) int32 { return x + 5 }))

	ov, err := r.Resolve("add5", []types.LogicalType{types.Int32()})
	require.NoError(t, err)
	assert.True(t, ov.Return.Equal(types.Int32()))

	// The inferred parameter is INT32, never the ambiguous DATE reading.
	_, err = r.Resolve("add5", []types.LogicalType{types.DateType()})
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestAdd5EndToEnd(t *testing.T) {
	r := NewEmptyRegistry()
	invocations := 0
	require.NoError(t, r.RegisterScalar("add5", func(x int32) int32 {
		invocations++
		return x + 5
	}))

	in := vector.New(types.Int32(), vector.DefaultCapacity)
	for pos, val := range []int32{1, 2, 3, 0, 5} {
		vector.SetValue(in, pos, val)
		in.SetNull(pos, false)
	}
	in.SetNull(3, true)
	in.MakeUnflat(vector.NewIdentity(5))

	out := vector.New(types.Int32(), vector.DefaultCapacity)
	ov, err := r.Resolve("add5", []types.LogicalType{types.Int32()})
	require.NoError(t, err)
	require.NoError(t, ov.Execute([]*vector.ValueVector{in}, out))

	assert.Equal(t, 4, invocations)
	for pos, want := range []int32{6, 7, 8, 0, 10} {
		if pos == 3 {
			assert.True(t, out.IsNull(3))
			continue
		}
		assert.False(t, out.IsNull(pos))
		assert.Equal(t, want, vector.GetValue[int32](out, pos))
	}
}

func TestDuplicateRegistrationFailsWithoutMutating(t *testing.T) {
	r := NewEmptyRegistry()
	require.NoError(t, r.RegisterScalar("twice", func(x int64) int64 { return x * 2 }))

	err := r.RegisterScalar("twice", func(x float64) float64 { return x * 2 })
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	// The first registration is untouched.
	ov, err := r.Resolve("twice", []types.LogicalType{types.Int64()})
	require.NoError(t, err)
	assert.True(t, ov.Return.Equal(types.Int64()))
	_, err = r.Resolve("twice", []types.LogicalType{types.Double()})
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestRegisterScalarTypedValidatesHostTypes(t *testing.T) {
	r := NewEmptyRegistry()

	// DATE declared for a string parameter: incompatible.
	err := r.RegisterScalarTyped("bad",
		[]types.LogicalType{types.DateType()}, types.DateType(),
		func(s string) string { return s })
	require.ErrorIs(t, err, types.ErrIncompatibleType)
	assert.False(t, r.Exists("bad"))

	// Declared arity must match the callable.
	err = r.RegisterScalarTyped("bad",
		[]types.LogicalType{types.Int64(), types.Int64()}, types.Int64(),
		func(x int64) int64 { return x })
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestRegisterScalarRejectsBadCallables(t *testing.T) {
	r := NewEmptyRegistry()

	assert.ErrorIs(t, r.RegisterScalar("notfunc", 42), ErrBadSignature)
	assert.ErrorIs(t, r.RegisterScalar("plainint", func(x int) int { return x }), types.ErrUnsupportedHostType)
	assert.ErrorIs(t, r.RegisterScalar("noargs", func() int64 { return 0 }), ErrBadSignature)
	assert.ErrorIs(t, r.RegisterScalar("fourargs",
		func(a, b, c, d int64) int64 { return 0 }), ErrBadSignature)
	assert.ErrorIs(t, r.RegisterScalar("badsecond",
		func(a int64) (int64, int64) { return 0, 0 }), ErrBadSignature)
}

func TestAddDaysExplicitDateRegistration(t *testing.T) {
	r := NewEmptyRegistry()

	// addDays(int32,int32)->int32 registered explicitly as (DATE, INT32) -> DATE.
	require.NoError(t, r.RegisterScalarTyped("addDays",
		[]types.LogicalType{types.DateType(), types.Int32()}, types.DateType(),
		func(d, days int32) int32 { return d + days }))

	dates := vector.New(types.DateType(), vector.DefaultCapacity)
	for pos, d := range []types.Date{
		types.MakeDate(2024, time.January, 1),
		types.MakeDate(2024, time.February, 10),
		types.MakeDate(2024, time.March, 15),
	} {
		vector.SetValue(dates, pos, d)
		dates.SetNull(pos, false)
	}
	dates.MakeUnflat(vector.NewIdentity(3))

	days := vector.New(types.Int32(), vector.DefaultCapacity)
	for pos, n := range []int32{1, 2, 3} {
		vector.SetValue(days, pos, n)
		days.SetNull(pos, false)
	}
	days.MakeUnflat(dates.State().Selection())

	out := vector.New(types.DateType(), vector.DefaultCapacity)
	ov, err := r.Resolve("addDays", []types.LogicalType{types.DateType(), types.Int32()})
	require.NoError(t, err)
	require.NoError(t, ov.Execute([]*vector.ValueVector{dates, days}, out))

	want := []string{"2024-01-02", "2024-02-12", "2024-03-18"}
	for pos, w := range want {
		require.False(t, out.IsNull(pos))
		assert.Equal(t, w, vector.GetValue[types.Date](out, pos).String())
	}

	// The same callable registered via inference lands on INT32, not DATE.
	require.NoError(t, r.RegisterScalar("addDaysInferred",
		func(d, days int32) int32 { return d + days }))
	_, err = r.Resolve("addDaysInferred", []types.LogicalType{types.DateType(), types.Int32()})
	assert.ErrorIs(t, err, ErrUnresolved)
	_, err = r.Resolve("addDaysInferred", []types.LogicalType{types.Int32(), types.Int32()})
	assert.NoError(t, err)
}

func TestRegisterScalarWithErrorReturn(t *testing.T) {
	r := NewEmptyRegistry()
	require.NoError(t, r.RegisterScalar("checkedDiv", func(a, b int64) (int64, error) {
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	}))

	num := vector.New(types.Int64(), vector.DefaultCapacity)
	den := vector.New(types.Int64(), vector.DefaultCapacity)
	for pos, pair := range [][2]int64{{10, 2}, {9, 0}} {
		vector.SetValue(num, pos, pair[0])
		num.SetNull(pos, false)
		vector.SetValue(den, pos, pair[1])
		den.SetNull(pos, false)
	}
	num.MakeUnflat(vector.NewIdentity(2))
	den.MakeUnflat(num.State().Selection())

	out := vector.New(types.Int64(), vector.DefaultCapacity)
	ov, err := r.Resolve("checkedDiv", []types.LogicalType{types.Int64(), types.Int64()})
	require.NoError(t, err)
	err = ov.Execute([]*vector.ValueVector{num, den}, out)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestRegisterVectorized(t *testing.T) {
	r := NewEmptyRegistry()

	// A vectorized callable owns null handling and iteration itself. This
	// one counts non-null inputs into a flat INT64 result.
	countValid := func(args []*vector.ValueVector, result *vector.ValueVector) error {
		in := args[0]
		sel := in.State().Selection()
		var n int64
		for i := 0; i < sel.SelectedSize(); i++ {
			if !in.IsNull(sel.Position(i)) {
				n++
			}
		}
		result.MakeFlat(0)
		vector.SetValue(result, 0, n)
		result.SetNull(0, false)
		return nil
	}
	require.NoError(t, r.RegisterVectorizedTyped("countValid",
		[]types.LogicalType{types.Int64()}, types.Int64(), countValid))

	in := vector.New(types.Int64(), vector.DefaultCapacity)
	for pos := 0; pos < 4; pos++ {
		vector.SetValue(in, pos, int64(pos))
		in.SetNull(pos, false)
	}
	in.SetNull(2, true)
	in.MakeUnflat(vector.NewIdentity(4))

	out := vector.New(types.Int64(), vector.DefaultCapacity)
	ov, err := r.Resolve("countValid", []types.LogicalType{types.Int64()})
	require.NoError(t, err)
	require.NoError(t, ov.Execute([]*vector.ValueVector{in}, out))
	assert.True(t, out.State().IsFlat())
	assert.Equal(t, int64(3), vector.GetValue[int64](out, 0))

	// Untyped vectorized registration resolves for any argument types.
	require.NoError(t, r.RegisterVectorized("passthrough",
		func(args []*vector.ValueVector, result *vector.ValueVector) error { return nil }))
	_, err = r.Resolve("passthrough", []types.LogicalType{types.String(), types.Bool()})
	assert.NoError(t, err)
}

func TestBuiltinCatalog(t *testing.T) {
	r := NewRegistry()

	// Overloads under one name resolve by exact argument types.
	ov, err := r.Resolve("+", []types.LogicalType{types.Int64(), types.Int64()})
	require.NoError(t, err)
	assert.True(t, ov.Return.Equal(types.Int64()))

	ov, err = r.Resolve("+", []types.LogicalType{types.Double(), types.Double()})
	require.NoError(t, err)
	assert.True(t, ov.Return.Equal(types.Double()))

	_, err = r.Resolve("+", []types.LogicalType{types.String(), types.String()})
	assert.ErrorIs(t, err, ErrUnresolved)

	// Lookup is case-insensitive.
	_, err = r.Resolve("UPPER", []types.LogicalType{types.String()})
	assert.NoError(t, err)

	// User registration cannot shadow a built-in name.
	err = r.RegisterScalar("abs", func(x int64) int64 { return x })
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestBuiltinSubstring(t *testing.T) {
	r := NewRegistry()
	ov, err := r.Resolve("substring",
		[]types.LogicalType{types.String(), types.Int64(), types.Int64()})
	require.NoError(t, err)

	s := vector.New(types.String(), vector.DefaultCapacity)
	s.SetString(0, "valhalla")
	s.SetNull(0, false)
	s.MakeUnflat(vector.NewIdentity(1))

	start := vector.New(types.Int64(), vector.DefaultCapacity)
	vector.SetValue(start, 0, int64(4))
	start.SetNull(0, false)
	start.MakeFlat(0)

	length := vector.New(types.Int64(), vector.DefaultCapacity)
	vector.SetValue(length, 0, int64(4))
	length.SetNull(0, false)
	length.MakeFlat(0)

	out := vector.New(types.String(), vector.DefaultCapacity)
	require.NoError(t, ov.Execute([]*vector.ValueVector{s, start, length}, out))
	assert.Equal(t, "hall", out.GetString(0))
}

func TestBuiltinDateAdd(t *testing.T) {
	r := NewRegistry()
	ov, err := r.Resolve("date_add", []types.LogicalType{types.DateType(), types.Int32()})
	require.NoError(t, err)

	d := vector.New(types.DateType(), vector.DefaultCapacity)
	vector.SetValue(d, 0, types.MakeDate(2023, time.December, 31))
	d.SetNull(0, false)
	d.MakeUnflat(vector.NewIdentity(1))

	n := vector.New(types.Int32(), vector.DefaultCapacity)
	vector.SetValue(n, 0, int32(1))
	n.SetNull(0, false)
	n.MakeFlat(0)

	out := vector.New(types.DateType(), vector.DefaultCapacity)
	require.NoError(t, ov.Execute([]*vector.ValueVector{d, n}, out))
	assert.Equal(t, "2024-01-01", vector.GetValue[types.Date](out, 0).String())
}
