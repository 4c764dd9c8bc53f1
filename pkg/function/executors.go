// Package function implements VanirDB's function-execution framework: the
// generic executors that drive a position-wise operation across a batch, and
// the registry that binds function names to typed overloads.
//
// The executors separate "what to compute per element" (the op) from "how to
// iterate, broadcast and null-check" (the executor), so the same three
// drivers serve hand-written built-ins and user-supplied operations alike.
// An operation author never reimplements null handling:
//
//	// add5 over an unflat batch, nulls skipped automatically
//	err := function.ExecuteUnary(in, out, func(x int64) (int64, error) {
//		return x + 5, nil
//	})
//
// All executors uphold the same four contracts:
//
//  1. Null propagation: a position where any operand is null produces a null
//     output and the op is never invoked for it.
//  2. Flat/unflat dispatch: all-flat operands execute the op exactly once;
//     any unflat operand drives iteration over the shared selection, with
//     flat operands broadcast to every position.
//  3. Selection propagation: the result adopts the state (selection and
//     mode) of the operand driving iteration, keeping output and inputs
//     positionally aligned.
//  4. Result write: SetValue/SetNull on the result at the same position
//     being read on the inputs.
//
// Errors returned by the op abort the batch immediately and propagate
// unwrapped; the executor intercepts nothing.
package function

import (
	"reflect"

	"github.com/orneryd/vanirdb/pkg/vector"
)

// UnaryOp is a pure position-wise operation of arity 1.
type UnaryOp[A, R any] func(A) (R, error)

// BinaryOp is a pure position-wise operation of arity 2.
type BinaryOp[A, B, R any] func(A, B) (R, error)

// TernaryOp is a pure position-wise operation of arity 3.
type TernaryOp[A, B, C, R any] func(A, B, C) (R, error)

// readerFor picks the value accessor for T once per executor invocation:
// the unchecked reinterpret fast path for fixed-width types, the auxiliary
// buffer for strings and blobs, and the type-switched GetAny when T is an
// interface (the reflection UDF path).
func readerFor[T any](v *vector.ValueVector) func(pos int) T {
	var t T
	switch any(t).(type) {
	case string:
		return func(pos int) T { return any(v.GetString(pos)).(T) }
	case []byte:
		return func(pos int) T { return any(v.GetBlob(pos)).(T) }
	}
	if reflect.TypeOf(&t).Elem().Kind() == reflect.Interface {
		return func(pos int) T { return v.GetAny(pos).(T) }
	}
	return func(pos int) T { return vector.GetValue[T](v, pos) }
}

func writerFor[T any](v *vector.ValueVector) func(pos int, val T) {
	var t T
	switch any(t).(type) {
	case string:
		return func(pos int, val T) { v.SetString(pos, any(val).(string)) }
	case []byte:
		return func(pos int, val T) { v.SetBlob(pos, any(val).([]byte)) }
	}
	if reflect.TypeOf(&t).Elem().Kind() == reflect.Interface {
		return func(pos int, val T) { v.SetAny(pos, any(val)) }
	}
	return func(pos int, val T) { vector.SetValue(v, pos, val) }
}

// positionMap returns how a physical position of the driving operand maps to
// a read position on v: identity when v is iterated, a constant when v is a
// flat operand being broadcast.
func positionMap(v *vector.ValueVector) func(pos int) int {
	if v.State().IsFlat() {
		fp := v.FlatPosition()
		return func(int) int { return fp }
	}
	return func(pos int) int { return pos }
}

// ExecuteUnary applies op to every active position of input, writing into
// result. Result adopts input's state.
func ExecuteUnary[A, R any](input, result *vector.ValueVector, op UnaryOp[A, R]) error {
	read := readerFor[A](input)
	write := writerFor[R](result)
	result.ShareState(input)

	sel := input.State().Selection()
	for i := 0; i < sel.SelectedSize(); i++ {
		pos := sel.Position(i)
		if input.IsNull(pos) {
			result.SetNull(pos, true)
			continue
		}
		out, err := op(read(pos))
		if err != nil {
			return err
		}
		result.SetNull(pos, false)
		write(pos, out)
	}
	return nil
}

// ExecuteBinary applies op across two operands. A flat operand mixed with an
// unflat one is broadcast: its single value participates at every position
// named by the unflat operand's selection, which the result adopts.
func ExecuteBinary[A, B, R any](left, right, result *vector.ValueVector, op BinaryOp[A, B, R]) error {
	readA := readerFor[A](left)
	readB := readerFor[B](right)
	write := writerFor[R](result)

	driver := left
	if left.State().IsFlat() && !right.State().IsFlat() {
		driver = right
	}
	result.ShareState(driver)

	lpos := positionMap(left)
	rpos := positionMap(right)
	sel := driver.State().Selection()
	for i := 0; i < sel.SelectedSize(); i++ {
		pos := sel.Position(i)
		lp, rp := lpos(pos), rpos(pos)
		if left.IsNull(lp) || right.IsNull(rp) {
			result.SetNull(pos, true)
			continue
		}
		out, err := op(readA(lp), readB(rp))
		if err != nil {
			return err
		}
		result.SetNull(pos, false)
		write(pos, out)
	}
	return nil
}

// ExecuteTernary applies op across three operands with the same broadcast
// and null rules as ExecuteBinary.
func ExecuteTernary[A, B, C, R any](a, b, c, result *vector.ValueVector, op TernaryOp[A, B, C, R]) error {
	readA := readerFor[A](a)
	readB := readerFor[B](b)
	readC := readerFor[C](c)
	write := writerFor[R](result)

	driver := a
	if a.State().IsFlat() {
		if !b.State().IsFlat() {
			driver = b
		} else if !c.State().IsFlat() {
			driver = c
		}
	}
	result.ShareState(driver)

	apos := positionMap(a)
	bpos := positionMap(b)
	cpos := positionMap(c)
	sel := driver.State().Selection()
	for i := 0; i < sel.SelectedSize(); i++ {
		pos := sel.Position(i)
		ap, bp, cp := apos(pos), bpos(pos), cpos(pos)
		if a.IsNull(ap) || b.IsNull(bp) || c.IsNull(cp) {
			result.SetNull(pos, true)
			continue
		}
		out, err := op(readA(ap), readB(bp), readC(cp))
		if err != nil {
			return err
		}
		result.SetNull(pos, false)
		write(pos, out)
	}
	return nil
}
