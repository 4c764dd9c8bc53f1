// Built-in function catalog seeded into every new registry.
//
// Built-ins use the same executors and overload shape as UDFs; the only
// privilege they have is stacking several typed overloads under one name.
// Domain errors (division by zero) are signalled by the op itself and abort
// the batch; integer overflow wraps, matching Go semantics.

package function

import (
	"errors"
	"strings"

	"github.com/orneryd/vanirdb/pkg/types"
	"github.com/orneryd/vanirdb/pkg/vector"
)

// ErrDivisionByZero aborts a batch dividing by an integer zero.
var ErrDivisionByZero = errors.New("division by zero")

func addUnary[A, R any](r *Registry, name string, param, ret types.LogicalType, op UnaryOp[A, R]) {
	overload := &Overload{
		Name:   normalize(name),
		Params: []types.LogicalType{param},
		Return: ret,
		Execute: func(args []*vector.ValueVector, result *vector.ValueVector) error {
			return ExecuteUnary(args[0], result, op)
		},
	}
	if err := r.add(overload, true); err != nil {
		panic(err) // built-in seeding is static; a failure is a programming error
	}
}

func addBinary[A, B, R any](r *Registry, name string, pa, pb, ret types.LogicalType, op BinaryOp[A, B, R]) {
	overload := &Overload{
		Name:   normalize(name),
		Params: []types.LogicalType{pa, pb},
		Return: ret,
		Execute: func(args []*vector.ValueVector, result *vector.ValueVector) error {
			return ExecuteBinary(args[0], args[1], result, op)
		},
	}
	if err := r.add(overload, true); err != nil {
		panic(err)
	}
}

func addTernary[A, B, C, R any](r *Registry, name string, pa, pb, pc, ret types.LogicalType, op TernaryOp[A, B, C, R]) {
	overload := &Overload{
		Name:   normalize(name),
		Params: []types.LogicalType{pa, pb, pc},
		Return: ret,
		Execute: func(args []*vector.ValueVector, result *vector.ValueVector) error {
			return ExecuteTernary(args[0], args[1], args[2], result, op)
		},
	}
	if err := r.add(overload, true); err != nil {
		panic(err)
	}
}

func seedBuiltins(r *Registry) {
	seedArithmetic(r)
	seedComparisons(r)
	seedStrings(r)
	seedTemporal(r)
}

func seedArithmetic(r *Registry) {
	addBinary(r, "+", types.Int32(), types.Int32(), types.Int32(),
		func(a, b int32) (int32, error) { return a + b, nil })
	addBinary(r, "+", types.Int64(), types.Int64(), types.Int64(),
		func(a, b int64) (int64, error) { return a + b, nil })
	addBinary(r, "+", types.Double(), types.Double(), types.Double(),
		func(a, b float64) (float64, error) { return a + b, nil })

	addBinary(r, "-", types.Int32(), types.Int32(), types.Int32(),
		func(a, b int32) (int32, error) { return a - b, nil })
	addBinary(r, "-", types.Int64(), types.Int64(), types.Int64(),
		func(a, b int64) (int64, error) { return a - b, nil })
	addBinary(r, "-", types.Double(), types.Double(), types.Double(),
		func(a, b float64) (float64, error) { return a - b, nil })

	addBinary(r, "*", types.Int32(), types.Int32(), types.Int32(),
		func(a, b int32) (int32, error) { return a * b, nil })
	addBinary(r, "*", types.Int64(), types.Int64(), types.Int64(),
		func(a, b int64) (int64, error) { return a * b, nil })
	addBinary(r, "*", types.Double(), types.Double(), types.Double(),
		func(a, b float64) (float64, error) { return a * b, nil })

	addBinary(r, "/", types.Int64(), types.Int64(), types.Int64(),
		func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, ErrDivisionByZero
			}
			return a / b, nil
		})
	addBinary(r, "/", types.Double(), types.Double(), types.Double(),
		func(a, b float64) (float64, error) { return a / b, nil })

	addUnary(r, "abs", types.Int64(), types.Int64(),
		func(a int64) (int64, error) {
			if a < 0 {
				return -a, nil
			}
			return a, nil
		})
	addUnary(r, "abs", types.Double(), types.Double(),
		func(a float64) (float64, error) {
			if a < 0 {
				return -a, nil
			}
			return a, nil
		})
	addUnary(r, "negate", types.Int64(), types.Int64(),
		func(a int64) (int64, error) { return -a, nil })
}

func seedComparisons(r *Registry) {
	addBinary(r, "=", types.Int64(), types.Int64(), types.Bool(),
		func(a, b int64) (bool, error) { return a == b, nil })
	addBinary(r, "=", types.Double(), types.Double(), types.Bool(),
		func(a, b float64) (bool, error) { return a == b, nil })
	addBinary(r, "=", types.String(), types.String(), types.Bool(),
		func(a, b string) (bool, error) { return a == b, nil })

	addBinary(r, "<", types.Int64(), types.Int64(), types.Bool(),
		func(a, b int64) (bool, error) { return a < b, nil })
	addBinary(r, "<", types.Double(), types.Double(), types.Bool(),
		func(a, b float64) (bool, error) { return a < b, nil })
	addBinary(r, "<", types.String(), types.String(), types.Bool(),
		func(a, b string) (bool, error) { return a < b, nil })

	addBinary(r, "<=", types.Int64(), types.Int64(), types.Bool(),
		func(a, b int64) (bool, error) { return a <= b, nil })
	addBinary(r, ">", types.Int64(), types.Int64(), types.Bool(),
		func(a, b int64) (bool, error) { return a > b, nil })
	addBinary(r, ">=", types.Int64(), types.Int64(), types.Bool(),
		func(a, b int64) (bool, error) { return a >= b, nil })
}

func seedStrings(r *Registry) {
	addUnary(r, "upper", types.String(), types.String(),
		func(s string) (string, error) { return strings.ToUpper(s), nil })
	addUnary(r, "lower", types.String(), types.String(),
		func(s string) (string, error) { return strings.ToLower(s), nil })
	addUnary(r, "size", types.String(), types.Int64(),
		func(s string) (int64, error) { return int64(len(s)), nil })
	addBinary(r, "concat", types.String(), types.String(), types.String(),
		func(a, b string) (string, error) { return a + b, nil })

	// substring(s, start, length), 1-indexed start as in Cypher. Out-of-range
	// arguments clamp rather than error.
	addTernary(r, "substring", types.String(), types.Int64(), types.Int64(), types.String(),
		func(s string, start, length int64) (string, error) {
			if start < 1 {
				start = 1
			}
			from := start - 1
			if from >= int64(len(s)) || length <= 0 {
				return "", nil
			}
			to := from + length
			if to > int64(len(s)) {
				to = int64(len(s))
			}
			return s[from:to], nil
		})
}

func seedTemporal(r *Registry) {
	addBinary(r, "date_add", types.DateType(), types.Int32(), types.DateType(),
		func(d types.Date, days int32) (types.Date, error) { return d.AddDays(days), nil })
	addBinary(r, "date_diff", types.DateType(), types.DateType(), types.Int64(),
		func(a, b types.Date) (int64, error) { return int64(a) - int64(b), nil })
	addBinary(r, "timestamp_add", types.TimestampType(), types.IntervalType(), types.TimestampType(),
		func(ts types.Timestamp, iv types.Interval) (types.Timestamp, error) {
			t := ts.Time().AddDate(0, int(iv.Months), int(iv.Days))
			return types.TimestampFromTime(t) + types.Timestamp(iv.Micros), nil
		})
}
