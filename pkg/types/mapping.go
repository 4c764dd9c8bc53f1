// Host-type mapping between Go types and logical types.
//
// The mapping is used twice by the function registry: Infer derives a default
// logical type from a Go function signature, and Compatible validates an
// explicitly declared logical type against the callable's Go types.
//
// Invariant: every supported Go type maps to exactly one default logical type.
// A logical type may however be reachable from more than one Go type when the
// caller disambiguates explicitly. DATE and INT32 both accept int32, but only
// INT32 is ever inferred; declaring DATE requires explicit registration.

package types

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Errors reported by the host-type mapping.
var (
	ErrUnsupportedHostType = errors.New("unsupported host type")
	ErrIncompatibleType    = errors.New("logical type incompatible with host type")
)

var (
	reflectBool      = reflect.TypeOf(false)
	reflectInt16     = reflect.TypeOf(int16(0))
	reflectInt32     = reflect.TypeOf(int32(0))
	reflectInt64     = reflect.TypeOf(int64(0))
	reflectFloat32   = reflect.TypeOf(float32(0))
	reflectFloat64   = reflect.TypeOf(float64(0))
	reflectString    = reflect.TypeOf("")
	reflectBytes     = reflect.TypeOf([]byte(nil))
	reflectDate      = reflect.TypeOf(Date(0))
	reflectTimestamp = reflect.TypeOf(Timestamp(0))
	reflectInterval  = reflect.TypeOf(Interval{})
	reflectUUID      = reflect.TypeOf(uuid.UUID{})
	reflectNodeRef   = reflect.TypeOf(NodeRef{})
)

// Infer returns the default logical type for a Go type used in a function
// signature. Named types that alias a primitive (other than the types defined
// in this package) are not accepted: the caller should use the primitive or
// register with explicit logical types.
//
// Plain int and uint are rejected because their width is platform-dependent;
// signatures must use a sized integer type.
func Infer(rt reflect.Type) (LogicalType, error) {
	switch rt {
	case reflectBool:
		return Bool(), nil
	case reflectInt16:
		return Int16(), nil
	case reflectInt32:
		return Int32(), nil
	case reflectInt64:
		return Int64(), nil
	case reflectFloat32:
		return Float(), nil
	case reflectFloat64:
		return Double(), nil
	case reflectString:
		return String(), nil
	case reflectBytes:
		return Blob(), nil
	case reflectDate:
		return DateType(), nil
	case reflectTimestamp:
		return TimestampType(), nil
	case reflectInterval:
		return IntervalType(), nil
	case reflectUUID:
		return UUIDType(), nil
	case reflectNodeRef:
		return InternalID(), nil
	}
	if rt.Kind() == reflect.Int || rt.Kind() == reflect.Uint {
		return Any(), fmt.Errorf("%w: %s (use a sized integer type)", ErrUnsupportedHostType, rt)
	}
	return Any(), fmt.Errorf("%w: %s", ErrUnsupportedHostType, rt)
}

// hostTypes returns the Go types a logical type accepts in an explicitly
// typed registration. The first entry is the canonical representation, the
// one GetAny/SetAny traffic in.
func hostTypes(lt LogicalType) []reflect.Type {
	switch lt.ID() {
	case IDBool:
		return []reflect.Type{reflectBool}
	case IDInt16:
		return []reflect.Type{reflectInt16}
	case IDInt32:
		return []reflect.Type{reflectInt32}
	case IDInt64:
		return []reflect.Type{reflectInt64}
	case IDFloat:
		return []reflect.Type{reflectFloat32}
	case IDDouble:
		return []reflect.Type{reflectFloat64}
	case IDString:
		return []reflect.Type{reflectString}
	case IDBlob:
		return []reflect.Type{reflectBytes}
	case IDDate:
		// DATE is the disambiguated reading of a 32-bit integer.
		return []reflect.Type{reflectDate, reflectInt32}
	case IDTimestamp:
		// TIMESTAMP is the disambiguated reading of a 64-bit integer.
		return []reflect.Type{reflectTimestamp, reflectInt64}
	case IDInterval:
		return []reflect.Type{reflectInterval}
	case IDUUID:
		return []reflect.Type{reflectUUID}
	case IDInternalID:
		return []reflect.Type{reflectNodeRef}
	case IDDecimal:
		// Decimals travel as scaled 64-bit integers.
		return []reflect.Type{reflectInt64}
	default:
		return nil
	}
}

// Compatible validates that a declared logical type can carry values of the
// given Go type per the canonical mapping table. It returns a wrapped
// ErrIncompatibleType when the declaration does not match.
func Compatible(lt LogicalType, rt reflect.Type) error {
	accepted := hostTypes(lt)
	if len(accepted) == 0 {
		return fmt.Errorf("%w: %s has no host representation", ErrIncompatibleType, lt)
	}
	for _, a := range accepted {
		if rt == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s does not accept %s", ErrIncompatibleType, lt, rt)
}

// GoType returns the canonical Go representation of a logical type. This is
// the concrete type produced by ValueVector.GetAny and consumed by SetAny.
// Nil when the logical type has no scalar host representation (LIST, STRUCT).
func GoType(lt LogicalType) reflect.Type {
	accepted := hostTypes(lt)
	if len(accepted) == 0 {
		return nil
	}
	return accepted[0]
}
