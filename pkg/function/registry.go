// Function registry: binds names to typed overloads and resolves them at
// query-bind time.

package function

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/orneryd/vanirdb/pkg/types"
	"github.com/orneryd/vanirdb/pkg/vector"
)

// Errors reported by registration and resolution. All are synchronous and
// recoverable: a failed registration or resolution never corrupts the
// registry or in-flight queries.
var (
	ErrAlreadyRegistered = errors.New("function already registered")
	ErrUnresolved        = errors.New("no matching function overload")
	ErrBadSignature      = errors.New("invalid function signature")
)

// VectorizedFunc operates directly on a sequence of input vectors and one
// result vector. It assumes full responsibility for null handling,
// flat/unflat dispatch and auxiliary-buffer lifecycle, unless it delegates
// to ExecuteUnary/ExecuteBinary/ExecuteTernary internally.
type VectorizedFunc func(args []*vector.ValueVector, result *vector.ValueVector) error

// Overload is one resolved form of a named function: its declared parameter
// and return logical types plus the vectorized executable behind them.
// Scalar registrations are wrapped into a VectorizedFunc at registration
// time, so the evaluator only ever deals in this shape.
type Overload struct {
	Name    string
	Params  []types.LogicalType // nil means the overload accepts any arguments
	Return  types.LogicalType
	Execute VectorizedFunc
}

// Registry is the function catalog of one open database instance. It is
// populated by built-in seeding and UDF/extension registration, and read
// without locking during query binding. Registration is expected before or
// between query executions, serialized by the caller; the registry itself
// only guards its map.
type Registry struct {
	mu        sync.RWMutex
	functions map[string][]*Overload
}

// NewRegistry returns a registry pre-seeded with the built-in catalog.
func NewRegistry() *Registry {
	r := &Registry{functions: make(map[string][]*Overload)}
	seedBuiltins(r)
	return r
}

// NewEmptyRegistry returns a registry without built-ins. Used in tests and
// by tools that want full control of the catalog.
func NewEmptyRegistry() *Registry {
	return &Registry{functions: make(map[string][]*Overload)}
}

// normalize lowercases function names; lookup is case-insensitive like the
// rest of the query surface.
func normalize(name string) string { return strings.ToLower(name) }

// RegisterScalar registers a host callable under name, inferring each
// parameter's and the return value's logical type from the Go signature.
// The callable takes 1 to 3 parameters of supported host types and returns
// one value, optionally followed by an error.
//
// Ambiguous logical types are not reachable through this path: a 32-bit
// integer parameter always infers INT32 (never DATE) and a 64-bit integer
// always infers INT64 (never TIMESTAMP). Use RegisterScalarTyped to
// disambiguate explicitly.
func (r *Registry) RegisterScalar(name string, fn any) error {
	fnVal, err := checkCallable(fn)
	if err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	fnType := fnVal.Type()
	params := make([]types.LogicalType, fnType.NumIn())
	for i := range params {
		params[i], err = types.Infer(fnType.In(i))
		if err != nil {
			return fmt.Errorf("register %s: parameter %d: %w", name, i, err)
		}
	}
	ret, err := types.Infer(fnType.Out(0))
	if err != nil {
		return fmt.Errorf("register %s: return value: %w", name, err)
	}
	return r.add(&Overload{
		Name:    normalize(name),
		Params:  params,
		Return:  ret,
		Execute: bindScalar(params, ret, fnVal),
	}, false)
}

// RegisterScalarTyped registers a host callable with explicitly declared
// logical types. Each declared type must be compatible with the callable's
// corresponding host type per the canonical mapping table; an incompatible
// declaration fails the registration.
func (r *Registry) RegisterScalarTyped(name string, params []types.LogicalType, ret types.LogicalType, fn any) error {
	fnVal, err := checkCallable(fn)
	if err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	fnType := fnVal.Type()
	if fnType.NumIn() != len(params) {
		return fmt.Errorf("register %s: %w: %d parameter types declared for %d parameters",
			name, ErrBadSignature, len(params), fnType.NumIn())
	}
	for i, p := range params {
		if err := types.Compatible(p, fnType.In(i)); err != nil {
			return fmt.Errorf("register %s: parameter %d: %w", name, i, err)
		}
	}
	if err := types.Compatible(ret, fnType.Out(0)); err != nil {
		return fmt.Errorf("register %s: return value: %w", name, err)
	}
	return r.add(&Overload{
		Name:    normalize(name),
		Params:  params,
		Return:  ret,
		Execute: bindScalar(params, ret, fnVal),
	}, false)
}

// RegisterVectorized registers a callable that operates on whole vectors.
// Without declared types the overload matches any argument list; prefer
// RegisterVectorizedTyped so resolution can reject mistyped call sites.
func (r *Registry) RegisterVectorized(name string, fn VectorizedFunc) error {
	return r.add(&Overload{
		Name:    normalize(name),
		Return:  types.Any(),
		Execute: fn,
	}, false)
}

// RegisterVectorizedTyped registers a vectorized callable with declared
// parameter and return logical types.
func (r *Registry) RegisterVectorizedTyped(name string, params []types.LogicalType, ret types.LogicalType, fn VectorizedFunc) error {
	return r.add(&Overload{
		Name:    normalize(name),
		Params:  params,
		Return:  ret,
		Execute: fn,
	}, false)
}

// add inserts an overload. User registrations (allowOverload false) fail if
// the name exists at all, leaving the existing registration untouched.
// Built-in seeding (allowOverload true) may stack overloads under one name.
func (r *Registry) add(o *Overload, allowOverload bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.functions[o.Name]; ok && !allowOverload {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, o.Name)
	}
	r.functions[o.Name] = append(r.functions[o.Name], o)
	return nil
}

// Resolve selects the overload of name whose declared parameter types
// exactly match the call site's argument types. Numeric promotion is the
// binder's concern, not the registry's. Resolution failures surface at bind
// time, never at execution time.
func (r *Registry) Resolve(name string, argTypes []types.LogicalType) (*Overload, error) {
	r.mu.RLock()
	overloads, ok := r.functions[normalize(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnresolved, name)
	}
	for _, o := range overloads {
		if o.Params == nil {
			return o, nil // untyped vectorized: accepts anything
		}
		if typesMatch(o.Params, argTypes) {
			return o, nil
		}
	}
	return nil, fmt.Errorf("%w: %s(%s)", ErrUnresolved, name, typeList(argTypes))
}

// Exists reports whether any overload is registered under the name.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.functions[normalize(name)]
	return ok
}

// Names returns all registered function names, unordered.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	return names
}

func typesMatch(params, args []types.LogicalType) bool {
	if len(params) != len(args) {
		return false
	}
	for i := range params {
		if !params[i].Equal(args[i]) {
			return false
		}
	}
	return true
}

func typeList(ts []types.LogicalType) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// checkCallable validates the host callable shape shared by both scalar
// registration paths: a non-variadic func, 1 to 3 parameters, one return
// value optionally followed by an error.
func checkCallable(fn any) (reflect.Value, error) {
	fnVal := reflect.ValueOf(fn)
	if !fnVal.IsValid() || fnVal.Kind() != reflect.Func {
		return reflect.Value{}, fmt.Errorf("%w: not a function", ErrBadSignature)
	}
	fnType := fnVal.Type()
	if fnType.IsVariadic() {
		return reflect.Value{}, fmt.Errorf("%w: variadic functions are not supported", ErrBadSignature)
	}
	if fnType.NumIn() < 1 || fnType.NumIn() > 3 {
		return reflect.Value{}, fmt.Errorf("%w: %d parameters (1 to 3 supported)", ErrBadSignature, fnType.NumIn())
	}
	switch fnType.NumOut() {
	case 1:
	case 2:
		if fnType.Out(1) != reflect.TypeOf((*error)(nil)).Elem() {
			return reflect.Value{}, fmt.Errorf("%w: second return value must be error", ErrBadSignature)
		}
	default:
		return reflect.Value{}, fmt.Errorf("%w: %d return values (1 or 2 supported)", ErrBadSignature, fnType.NumOut())
	}
	return fnVal, nil
}

// bindScalar wraps a host callable into a VectorizedFunc by delegating to
// the generic executors with interface-typed operands. Values read as the
// logical type's canonical representation are converted to the callable's
// host types (e.g. types.Date to int32 for an explicitly DATE-typed int32
// parameter) and the return value is converted back.
func bindScalar(params []types.LogicalType, ret types.LogicalType, fnVal reflect.Value) VectorizedFunc {
	fnType := fnVal.Type()
	hasErr := fnType.NumOut() == 2
	inTypes := make([]reflect.Type, fnType.NumIn())
	for i := range inTypes {
		inTypes[i] = fnType.In(i)
	}
	retGo := types.GoType(ret)

	call := func(args ...any) (any, error) {
		in := make([]reflect.Value, len(args))
		for i, a := range args {
			av := reflect.ValueOf(a)
			if av.Type() != inTypes[i] {
				av = av.Convert(inTypes[i])
			}
			in[i] = av
		}
		out := fnVal.Call(in)
		if hasErr && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		rv := out[0]
		if retGo != nil && rv.Type() != retGo {
			rv = rv.Convert(retGo)
		}
		return rv.Interface(), nil
	}

	switch len(params) {
	case 1:
		return func(args []*vector.ValueVector, result *vector.ValueVector) error {
			return ExecuteUnary(args[0], result, func(a any) (any, error) {
				return call(a)
			})
		}
	case 2:
		return func(args []*vector.ValueVector, result *vector.ValueVector) error {
			return ExecuteBinary(args[0], args[1], result, func(a, b any) (any, error) {
				return call(a, b)
			})
		}
	default:
		return func(args []*vector.ValueVector, result *vector.ValueVector) error {
			return ExecuteTernary(args[0], args[1], args[2], result, func(a, b, c any) (any, error) {
				return call(a, b, c)
			})
		}
	}
}
